package plan

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/surveyloom-cli/internal/report"
	"github.com/KaramelBytes/surveyloom-cli/internal/survey"
)

// ValidationError lists every problem found in a plan.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid plan: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid plan (%d problems):\n  - %s", len(e.Problems), strings.Join(e.Problems, "\n  - "))
}

type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

// Validate checks the plan's structure. Field names are checked later
// against the loaded tables.
func (p *Plan) Validate() error {
	var probs problems

	names := map[string]bool{}
	if len(p.Inputs) == 0 {
		probs.addf("at least one input is required")
	}
	for i, in := range p.Inputs {
		where := fmt.Sprintf("inputs[%d]", i)
		if strings.TrimSpace(in.Path) == "" {
			probs.addf("%s: path is required", where)
			continue
		}
		name := InputName(in)
		if names[name] {
			probs.addf("%s: duplicate input name %q", where, name)
		}
		names[name] = true
		if _, err := ParseDelimiter(in.Delimiter); err != nil {
			probs.addf("%s: %v", where, err)
		}
		if in.Decimal != "" && in.Decimal != "." && in.Decimal != "," {
			probs.addf("%s: decimal must be \".\" or \",\", got %q", where, in.Decimal)
		}
		if in.Sheet != "" && in.SheetIndex > 0 {
			probs.addf("%s: set sheet or sheet_index, not both", where)
		}
		if in.Table != "" && in.Query != "" {
			probs.addf("%s: set table or query, not both", where)
		}
	}

	if j := p.Join; j != nil {
		if strings.TrimSpace(j.Key) == "" {
			probs.addf("join: key is required")
		}
		if j.Primary != "" && !names[j.Primary] {
			probs.addf("join: unknown primary input %q", j.Primary)
		}
		if len(j.Steps) == 0 {
			probs.addf("join: at least one step is required")
		}
		for i, s := range j.Steps {
			switch {
			case !names[s.Input]:
				probs.addf("join.steps[%d]: unknown input %q", i, s.Input)
			case s.Input == p.primaryName():
				probs.addf("join.steps[%d]: cannot join %q onto itself", i, s.Input)
			}
		}
	}

	for name, fc := range p.Fields {
		if _, ok := survey.ParseCaseMode(fc.Case); !ok {
			probs.addf("fields.%s: unknown case %q", name, fc.Case)
		}
		if fc.Outcome && len(fc.Known) > 0 {
			probs.addf("fields.%s: set outcome or known, not both", name)
		}
		if fc.Fallback != "" && len(fc.Known) == 0 && !fc.Outcome {
			probs.addf("fields.%s: fallback needs a known vocabulary", name)
		}
	}

	for i, r := range p.Recodes {
		where := fmt.Sprintf("recodes[%d]", i)
		requireNames(&probs, where, map[string]string{"field": r.Field, "into": r.Into})
		if len(r.Map) == 0 {
			probs.addf("%s: map is empty", where)
		}
	}
	for i, f := range p.Flags {
		where := fmt.Sprintf("flags[%d]", i)
		requireNames(&probs, where, map[string]string{"name": f.Name})
		if f.Match != "" && f.Match != "all" && f.Match != "any" {
			probs.addf("%s: match must be all or any, got %q", where, f.Match)
		}
		if len(f.Predicates) == 0 {
			probs.addf("%s: at least one predicate is required", where)
		}
		checkPredicates(&probs, where, f.Predicates)
	}
	for i, s := range p.Scores {
		where := fmt.Sprintf("scores[%d]", i)
		requireNames(&probs, where, map[string]string{"name": s.Name})
		switch survey.ScoreKind(s.Kind) {
		case survey.ScoreSum:
			if len(s.Fields) == 0 {
				probs.addf("%s: sum score needs fields", where)
			}
		case survey.ScoreWeighted:
			if len(s.Terms) == 0 {
				probs.addf("%s: weighted score needs terms", where)
			}
			for j, t := range s.Terms {
				if strings.TrimSpace(t.Field) == "" {
					probs.addf("%s.terms[%d]: field is required", where, j)
				}
			}
		case survey.ScorePredicates:
			if len(s.Predicates) == 0 {
				probs.addf("%s: predicate score needs predicates", where)
			}
			checkPredicates(&probs, where, s.Predicates)
		default:
			probs.addf("%s: kind must be sum, weighted or predicates, got %q", where, s.Kind)
		}
	}
	for i, b := range p.Bins {
		where := fmt.Sprintf("bins[%d]", i)
		requireNames(&probs, where, map[string]string{"field": b.Field, "into": b.Into})
		if err := (survey.Bins{Edges: b.Edges, Labels: b.Labels}).Validate(); err != nil {
			probs.addf("%s: %v", where, err)
		}
	}

	for i, f := range p.Frequencies {
		where := fmt.Sprintf("frequencies[%d]", i)
		requireNames(&probs, where, map[string]string{"field": f.Field})
		if _, ok := survey.ParseMatchMode(f.Match); !ok {
			probs.addf("%s: unknown match %q", where, f.Match)
		}
		checkTop(&probs, where, f.Top)
	}
	for i, g := range p.Grouped {
		where := fmt.Sprintf("grouped_frequencies[%d]", i)
		requireNames(&probs, where, map[string]string{"field": g.Field, "by": g.By})
		checkTop(&probs, where, g.Top)
	}
	for i, c := range p.CrossTabs {
		where := fmt.Sprintf("crosstabs[%d]", i)
		requireNames(&probs, where, map[string]string{"rows": c.Rows, "cols": c.Cols})
		if _, ok := survey.ParseNormalization(c.Normalize); !ok {
			probs.addf("%s: unknown normalize %q", where, c.Normalize)
		}
	}
	for i, m := range p.Means {
		where := fmt.Sprintf("means[%d]", i)
		requireNames(&probs, where, map[string]string{"by": m.By})
		if len(m.Fields) == 0 {
			probs.addf("%s: at least one field is required", where)
		}
	}
	for i, pv := range p.Pivots {
		where := fmt.Sprintf("pivots[%d]", i)
		requireNames(&probs, where, map[string]string{"rows": pv.Rows, "cols": pv.Cols, "value": pv.Value})
	}
	for i, c := range p.Correlations {
		where := fmt.Sprintf("correlations[%d]", i)
		requireNames(&probs, where, map[string]string{"x": c.X, "y": c.Y})
	}

	if _, ok := report.ParseFormat(p.Format); !ok {
		probs.addf("format must be markdown, text or json, got %q", p.Format)
	}
	checkTop(&probs, "top_n", p.TopN)

	if len(probs) > 0 {
		return &ValidationError{Problems: probs}
	}
	return nil
}

func (p *Plan) primaryName() string {
	if p.Join != nil && p.Join.Primary != "" {
		return p.Join.Primary
	}
	if len(p.Inputs) == 0 {
		return ""
	}
	return InputName(p.Inputs[0])
}

// requireNames reports empty attributes in a stable order.
func requireNames(probs *problems, where string, attrs map[string]string) {
	for _, k := range []string{"name", "field", "into", "by", "rows", "cols", "value", "x", "y"} {
		v, ok := attrs[k]
		if ok && strings.TrimSpace(v) == "" {
			probs.addf("%s: %s is required", where, k)
		}
	}
}

func checkTop(probs *problems, where string, top *int) {
	if top != nil && *top < 0 {
		probs.addf("%s: top must not be negative", where)
	}
}

func checkPredicates(probs *problems, where string, preds []PredicateSpec) {
	for i, ps := range preds {
		if _, err := ps.build(); err != nil {
			probs.addf("%s.predicates[%d]: %v", where, i, err)
		}
	}
}

// build turns a predicate declaration into a survey predicate.
func (ps PredicateSpec) build() (survey.Predicate, error) {
	if strings.TrimSpace(ps.Field) == "" {
		return survey.Predicate{}, fmt.Errorf("field is required")
	}
	switch ps.Op {
	case "contains", "not_contains":
		vals := ps.Values
		if len(vals) == 0 && ps.Value != "" {
			vals = []string{ps.Value}
		}
		if len(vals) == 0 {
			return survey.Predicate{}, fmt.Errorf("%s needs values", ps.Op)
		}
		if ps.Op == "contains" {
			return survey.Contains(ps.Field, vals...), nil
		}
		return survey.NotContains(ps.Field, vals...), nil
	case "equals":
		return survey.Equals(ps.Field, ps.Value), nil
	case "gt", "ge", "lt", "le", "eq", "ne":
		if ps.Number == nil {
			return survey.Predicate{}, fmt.Errorf("%s needs a number", ps.Op)
		}
		return survey.Compare(ps.Field, ps.Op, *ps.Number)
	default:
		return survey.Predicate{}, fmt.Errorf("unknown op %q", ps.Op)
	}
}

// ParseDelimiter accepts a single character, or "tab".
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}
