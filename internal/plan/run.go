package plan

import (
	"context"
	"fmt"
	"strings"

	"github.com/KaramelBytes/surveyloom-cli/internal/config"
	"github.com/KaramelBytes/surveyloom-cli/internal/logging"
	"github.com/KaramelBytes/surveyloom-cli/internal/report"
	"github.com/KaramelBytes/surveyloom-cli/internal/source"
	"github.com/KaramelBytes/surveyloom-cli/internal/survey"
)

// loadLimit bounds concurrent input loading.
const loadLimit = 4

// runner carries the state of one plan execution.
type runner struct {
	plan    *Plan
	cfg     *config.Global
	table   *survey.Table
	derived map[string]bool
	rep     *report.Report
}

// Run loads the plan's inputs, joins and derives columns, then builds every
// report section. A missing field anywhere is fatal.
func Run(ctx context.Context, p *Plan, cfg *config.Global) (*report.Report, error) {
	if cfg == nil {
		cfg = &config.Global{}
	}
	log := logging.New("plan")
	r := &runner{plan: p, cfg: cfg, derived: map[string]bool{}, rep: report.New(p.Title)}

	inputs := make([]source.Input, len(p.Inputs))
	for i, in := range p.Inputs {
		opt, err := r.options(in)
		if err != nil {
			return nil, fmt.Errorf("inputs[%d]: %w", i, err)
		}
		inputs[i] = source.Input{Path: p.InputPath(in), Options: opt}
	}
	tables, err := source.LoadAll(ctx, inputs, loadLimit)
	if err != nil {
		return nil, err
	}
	byName := map[string]*survey.Table{}
	for i, t := range tables {
		byName[t.Name] = t
		r.rep.Inputs = append(r.rep.Inputs, report.Input(inputs[i].Path, t))
	}
	log.Info("inputs loaded", "count", len(tables))

	if err := r.join(tables, byName); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.derive(); err != nil {
		return nil, err
	}
	if err := r.sections(); err != nil {
		return nil, err
	}
	log.Info("plan complete", "records", r.table.Len(), "warnings", len(r.rep.Warnings))
	return r.rep, nil
}

func (r *runner) options(in InputSpec) (source.Options, error) {
	delim, err := ParseDelimiter(in.Delimiter)
	if err != nil {
		return source.Options{}, err
	}
	key := in.Key
	if key == "" && r.plan.Join != nil {
		key = r.plan.Join.Key
	}
	enc := in.Encoding
	if enc == "" {
		enc = r.cfg.Encoding
	}
	dec := in.Decimal
	if dec == "" {
		dec = r.cfg.DecimalSeparator
	}
	return source.Options{
		Name:       InputName(in),
		Key:        key,
		Delimiter:  delim,
		Encoding:   enc,
		Sheet:      in.Sheet,
		SheetIndex: in.SheetIndex,
		Table:      in.Table,
		Query:      in.Query,
		Number:     NumberFormat(dec),
	}, nil
}

// NumberFormat maps a decimal separator setting to a number format. An empty
// setting auto-detects per value.
func NumberFormat(decimal string) survey.NumberFormat {
	switch decimal {
	case ",":
		return survey.NumberFormat{Decimal: ',', Thousands: '.'}
	case ".":
		return survey.NumberFormat{Decimal: '.', Thousands: ','}
	default:
		return survey.NumberFormat{}
	}
}

func (r *runner) join(tables []*survey.Table, byName map[string]*survey.Table) error {
	j := r.plan.Join
	if j == nil {
		r.table = tables[0]
		if len(tables) > 1 {
			var skipped []string
			for _, t := range tables[1:] {
				skipped = append(skipped, t.Name)
			}
			r.rep.Warn(fmt.Sprintf("inputs %s are not joined and were not analyzed", strings.Join(skipped, ", ")))
		}
		return nil
	}
	primary := byName[r.plan.primaryName()]
	policy := survey.JoinLeft
	if j.Inner {
		policy = survey.JoinInner
	}
	steps := make([]survey.JoinStep, len(j.Steps))
	for i, s := range j.Steps {
		steps[i] = survey.JoinStep{Table: byName[s.Input], Suffix: s.Suffix}
	}
	joined, stats, err := survey.JoinAll(primary, j.Key, policy, steps...)
	if err != nil {
		return err
	}
	left := primary.Name
	for i, st := range stats {
		r.rep.Joins = append(r.rep.Joins, report.Join(left, j.Steps[i].Input, j.Key, st))
		left = left + "+" + j.Steps[i].Input
		if st.FanOut > 0 {
			r.rep.Warn(fmt.Sprintf("%d %s records matched several %s records; their values were merged", st.FanOut, primary.Name, j.Steps[i].Input))
		}
	}
	r.table = joined
	return nil
}

// derive adds recoded, flag, score and bin columns in that order, so that a
// bin may label a score or a recoded value.
func (r *runner) derive() error {
	t := r.table
	var err error
	for _, rc := range r.plan.Recodes {
		if t, err = survey.Recode(t, rc.Field, rc.Into, rc.Map); err != nil {
			return err
		}
	}
	for _, f := range r.plan.Flags {
		preds, err := buildAll(f.Predicates)
		if err != nil {
			return fmt.Errorf("flag %q: %w", f.Name, err)
		}
		p := survey.All(preds...)
		if f.Match == "any" {
			p = survey.Any(preds...)
		}
		if t, err = survey.Flag(t, f.Name, p); err != nil {
			return err
		}
		r.derived[f.Name] = true
	}
	for _, s := range r.plan.Scores {
		score, err := s.build()
		if err != nil {
			return err
		}
		rows, err := score.Apply(t)
		if err != nil {
			return err
		}
		if t, err = score.AddTo(t); err != nil {
			return err
		}
		if s.Hidden {
			continue
		}
		r.rep.Scores = append(r.rep.Scores, report.Score(s.Title, score, rows))
		substituted := 0
		for _, row := range rows {
			if len(row.Substituted) > 0 {
				substituted++
			}
		}
		if substituted > 0 {
			r.rep.Warn(fmt.Sprintf("score %s: %d of %d records had missing or non-numeric inputs counted as 0", s.Name, substituted, len(rows)))
		}
	}
	for _, b := range r.plan.Bins {
		if t, err = survey.Bin(t, b.Field, b.Into, survey.Bins{Edges: b.Edges, Labels: b.Labels}); err != nil {
			return err
		}
		r.derived[b.Into] = true
	}
	r.table = t
	return nil
}

func (s ScoreSpec) build() (survey.Score, error) {
	switch survey.ScoreKind(s.Kind) {
	case survey.ScoreSum:
		return survey.SumOf(s.Name, s.Fields...), nil
	case survey.ScoreWeighted:
		terms := make([]survey.Term, len(s.Terms))
		for i, t := range s.Terms {
			terms[i] = survey.Term{Field: t.Field, Weight: t.Weight}
		}
		return survey.Score{Name: s.Name, Kind: survey.ScoreWeighted, Terms: terms}, nil
	case survey.ScorePredicates:
		preds, err := buildAll(s.Predicates)
		if err != nil {
			return survey.Score{}, fmt.Errorf("score %q: %w", s.Name, err)
		}
		return survey.CountOf(s.Name, preds...), nil
	default:
		return survey.Score{}, fmt.Errorf("score %q: unknown kind %q", s.Name, s.Kind)
	}
}

func buildAll(specs []PredicateSpec) ([]survey.Predicate, error) {
	out := make([]survey.Predicate, len(specs))
	for i, ps := range specs {
		p, err := ps.build()
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// field resolves the normalizer of a field from the plan and configuration.
// Flag and bin columns default to scalar.
func (r *runner) field(name string) survey.FieldSpec {
	n := survey.MultiValued(r.cfg.Delimiters)
	n.Scalar = r.derived[name]
	if m, ok := survey.ParseCaseMode(r.cfg.CaseMode); ok {
		n.Case = m
	}
	sentinel := r.cfg.SentinelLabel
	fc, declared := r.plan.Fields[name]
	if declared {
		if fc.Scalar {
			n.Scalar = true
		}
		if fc.Delimiters != "" {
			n.Delimiters = fc.Delimiters
		}
		if fc.Case != "" {
			n.Case, _ = survey.ParseCaseMode(fc.Case)
		}
		switch {
		case fc.Outcome:
			n.Scalar = true
			n.Known = r.outcomeLabels()
			n.Fallback = r.outcomeFallback(fc.Fallback)
		case len(fc.Known) > 0:
			n.Known = fc.Known
			n.Fallback = fc.Fallback
		}
		if fc.Sentinel != "" {
			sentinel = fc.Sentinel
		}
	}
	if sentinel != "" {
		n.Missing = survey.Sentinel(sentinel)
	}
	return survey.Field(name, n)
}

// order returns the display order of a field: explicit order, the closed
// vocabulary, or bin labels. Labels resolve through the field's normalizer so
// they name the same tokens as the data, the sentinel included.
func (r *runner) order(name string, explicit []string) []survey.Token {
	labels := r.orderLabels(name, explicit)
	if len(labels) == 0 {
		return nil
	}
	return r.field(name).Normalizer.Tokens(labels...)
}

func (r *runner) orderLabels(name string, explicit []string) []string {
	if len(explicit) > 0 {
		return explicit
	}
	if fc, ok := r.plan.Fields[name]; ok {
		switch {
		case len(fc.Order) > 0:
			return fc.Order
		case fc.Outcome:
			return r.outcomeLabels()
		case len(fc.Known) > 0:
			return fc.Known
		}
	}
	for _, b := range r.plan.Bins {
		if b.Into == name {
			return b.Labels
		}
	}
	return nil
}

func (r *runner) outcomeLabels() []string {
	if len(r.cfg.OutcomeLabels) > 0 {
		return r.cfg.OutcomeLabels
	}
	return config.DefaultOutcomeLabels
}

func (r *runner) outcomeFallback(override string) string {
	switch {
	case override != "":
		return override
	case r.cfg.OutcomeFallback != "":
		return r.cfg.OutcomeFallback
	default:
		return "Autre"
	}
}

func (r *runner) top(spec *int) int {
	switch {
	case spec != nil:
		return *spec
	case r.plan.TopN != nil:
		return *r.plan.TopN
	default:
		return r.cfg.TopN
	}
}

func (r *runner) sections() error {
	t := r.table
	if r.plan.Describe {
		profiles := survey.Describe(t, survey.DescribeOptions{Delimiters: r.cfg.Delimiters})
		r.rep.Columns = append(r.rep.Columns, report.Columns(t, profiles))
	}
	for _, fs := range r.plan.Frequencies {
		f := r.field(fs.Field)
		members, err := survey.Memberships(t, f)
		if err != nil {
			return err
		}
		freq := survey.Frequencies(members)
		freq.Field = fs.Field
		r.rep.Frequencies = append(r.rep.Frequencies, report.Frequencies(fs.Title, freq, r.top(fs.Top)))
		if len(fs.Shares) > 0 {
			mode, _ := survey.ParseMatchMode(fs.Match)
			shares := survey.Shares(members, f.Normalizer.Tokens(fs.Shares...), mode)
			r.rep.Shares = append(r.rep.Shares, report.Shares(fs.Title, fs.Field, mode, len(members), shares))
		}
	}

	for _, gs := range r.plan.Grouped {
		groups, err := survey.GroupedFrequencies(t, r.field(gs.Field), r.field(gs.By), r.order(gs.By, gs.Order))
		if err != nil {
			return err
		}
		r.rep.Grouped = append(r.rep.Grouped, report.Grouped(gs.Title, gs.Field, gs.By, groups, r.top(gs.Top)))
	}

	for _, cs := range r.plan.CrossTabs {
		opt := survey.CrossTabOptions{RowOrder: r.order(cs.Rows, cs.RowOrder), ColOrder: r.order(cs.Cols, cs.ColOrder)}
		ct, err := survey.CrossTabulate(t, r.field(cs.Rows), r.field(cs.Cols), opt)
		if err != nil {
			return err
		}
		if cs.Transpose {
			ct = ct.Transpose()
		}
		mode, _ := survey.ParseNormalization(cs.Normalize)
		r.rep.CrossTabs = append(r.rep.CrossTabs, report.CrossTab(cs.Title, ct, mode))
	}

	for _, ms := range r.plan.Means {
		groups, err := survey.GroupMeans(t, r.field(ms.By), r.order(ms.By, ms.Order), ms.Fields...)
		if err != nil {
			return err
		}
		r.rep.Means = append(r.rep.Means, report.Means(ms.Title, ms.By, ms.Fields, groups))
	}

	for _, ps := range r.plan.Pivots {
		opt := survey.CrossTabOptions{RowOrder: r.order(ps.Rows, ps.RowOrder), ColOrder: r.order(ps.Cols, ps.ColOrder)}
		pv, err := survey.PivotMeans(t, r.field(ps.Rows), r.field(ps.Cols), ps.Value, opt)
		if err != nil {
			return err
		}
		r.rep.Pivots = append(r.rep.Pivots, report.Pivot(ps.Title, pv))
	}

	for _, cs := range r.plan.Correlations {
		c, err := survey.Pearson(t, cs.X, cs.Y)
		if err != nil {
			return err
		}
		if c.N < 2 {
			r.rep.Warn(fmt.Sprintf("correlation %s~%s: fewer than two complete records", cs.X, cs.Y))
		}
		r.rep.Correlations = append(r.rep.Correlations, report.Correlation(cs.Title, c))
	}
	return nil
}
