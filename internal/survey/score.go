package survey

import (
	"fmt"
	"strings"
)

// ScoreKind selects how a composite score combines its inputs.
type ScoreKind string

const (
	ScoreSum        ScoreKind = "sum"
	ScoreWeighted   ScoreKind = "weighted"
	ScorePredicates ScoreKind = "predicates"
)

// Term is one weighted numeric input of a sum score.
type Term struct {
	Field  string
	Weight float64
}

// Predicate is a pure boolean test over one or more fields. A predicate over
// a missing field is false.
type Predicate struct {
	Name   string
	Fields []string
	Test   func(Record) bool
}

// Score declares a per-record derived score.
type Score struct {
	Name       string
	Kind       ScoreKind
	Terms      []Term
	Predicates []Predicate
}

// SumOf declares an unweighted sum score.
func SumOf(name string, fields ...string) Score {
	terms := make([]Term, len(fields))
	for i, f := range fields {
		terms[i] = Term{Field: f, Weight: 1}
	}
	return Score{Name: name, Kind: ScoreSum, Terms: terms}
}

// CountOf declares a predicate-count score.
func CountOf(name string, preds ...Predicate) Score {
	return Score{Name: name, Kind: ScorePredicates, Predicates: preds}
}

// Result is one computed score. Substituted lists the fields that were
// missing or non-numeric and counted as zero.
type Result struct {
	Value       float64
	Substituted []string
}

// Fields returns every field the score reads, in declaration order.
func (s Score) Fields() []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(f string) {
		if _, ok := seen[f]; ok {
			return
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	for _, t := range s.Terms {
		add(t.Field)
	}
	for _, p := range s.Predicates {
		for _, f := range p.Fields {
			add(f)
		}
	}
	return out
}

// Compute evaluates the score for one record. It never fails.
func (s Score) Compute(r Record) Result {
	var res Result
	switch s.Kind {
	case ScorePredicates:
		for _, p := range s.Predicates {
			if p.Test != nil && p.Test(r) {
				res.Value++
			}
		}
	default:
		for _, t := range s.Terms {
			x, ok := r.Get(t.Field).Float()
			if !ok {
				res.Substituted = append(res.Substituted, t.Field)
				continue
			}
			w := t.Weight
			if s.Kind == ScoreSum {
				w = 1
			}
			res.Value += w * x
		}
	}
	return res
}

// ScoreRow is a score keyed by record identifier.
type ScoreRow struct {
	ID string
	Result
}

// Apply computes the score for every record. Declared fields must exist in
// the table schema.
func (s Score) Apply(t *Table) ([]ScoreRow, error) {
	if err := t.RequireColumns(fmt.Sprintf("score %q", s.Name), s.Fields()...); err != nil {
		return nil, err
	}
	out := make([]ScoreRow, len(t.Records))
	for i, r := range t.Records {
		out[i] = ScoreRow{ID: t.RecordID(i), Result: s.Compute(r)}
	}
	return out, nil
}

// AddTo returns a new table carrying the score as a numeric column.
func (s Score) AddTo(t *Table) (*Table, error) {
	if err := t.RequireColumns(fmt.Sprintf("score %q", s.Name), s.Fields()...); err != nil {
		return nil, err
	}
	return t.WithColumn(s.Name, func(r Record) Value { return Number(s.Compute(r).Value) }), nil
}

// Contains tests whether the field contains any of the substrings, ignoring
// case.
func Contains(field string, substrings ...string) Predicate {
	needles := lowerAll(substrings)
	return Predicate{
		Name:   fmt.Sprintf("%s contains %s", field, strings.Join(substrings, "|")),
		Fields: []string{field},
		Test: func(r Record) bool {
			v := r.Get(field)
			if v.IsBlank() {
				return false
			}
			hay := strings.ToLower(v.Text())
			for _, n := range needles {
				if strings.Contains(hay, n) {
					return true
				}
			}
			return false
		},
	}
}

// NotContains is true when the field is present and contains none of the
// substrings, ignoring case.
func NotContains(field string, substrings ...string) Predicate {
	c := Contains(field, substrings...)
	return Predicate{
		Name:   fmt.Sprintf("%s lacks %s", field, strings.Join(substrings, "|")),
		Fields: []string{field},
		Test: func(r Record) bool {
			if r.Get(field).IsBlank() {
				return false
			}
			return !c.Test(r)
		},
	}
}

// Equals compares the trimmed field text to value, ignoring case.
func Equals(field, value string) Predicate {
	want := strings.ToLower(strings.TrimSpace(value))
	return Predicate{
		Name:   fmt.Sprintf("%s = %s", field, value),
		Fields: []string{field},
		Test: func(r Record) bool {
			v := r.Get(field)
			if v.IsBlank() {
				return false
			}
			return strings.ToLower(strings.TrimSpace(v.Text())) == want
		},
	}
}

// Compare applies a numeric comparison; op is one of gt, ge, lt, le, eq, ne.
// Non-numeric or missing values are false.
func Compare(field, op string, threshold float64) (Predicate, error) {
	var cmp func(float64) bool
	switch op {
	case "gt", ">":
		cmp = func(x float64) bool { return x > threshold }
	case "ge", ">=":
		cmp = func(x float64) bool { return x >= threshold }
	case "lt", "<":
		cmp = func(x float64) bool { return x < threshold }
	case "le", "<=":
		cmp = func(x float64) bool { return x <= threshold }
	case "eq", "==":
		cmp = func(x float64) bool { return x == threshold }
	case "ne", "!=":
		cmp = func(x float64) bool { return x != threshold }
	default:
		return Predicate{}, fmt.Errorf("unknown comparison %q", op)
	}
	return Predicate{
		Name:   fmt.Sprintf("%s %s %g", field, op, threshold),
		Fields: []string{field},
		Test: func(r Record) bool {
			x, ok := r.Get(field).Float()
			return ok && cmp(x)
		},
	}, nil
}

// All is true when every predicate holds.
func All(preds ...Predicate) Predicate {
	return combine("all", preds, func(n int) bool { return n == len(preds) })
}

// Any is true when at least one predicate holds.
func Any(preds ...Predicate) Predicate {
	return combine("any", preds, func(n int) bool { return n > 0 })
}

func combine(kind string, preds []Predicate, accept func(int) bool) Predicate {
	var fields, names []string
	for _, p := range preds {
		fields = append(fields, p.Fields...)
		names = append(names, p.Name)
	}
	return Predicate{
		Name:   fmt.Sprintf("%s(%s)", kind, strings.Join(names, "; ")),
		Fields: fields,
		Test: func(r Record) bool {
			if len(preds) == 0 {
				return false
			}
			n := 0
			for _, p := range preds {
				if p.Test(r) {
					n++
				}
			}
			return accept(n)
		},
	}
}

// Flag returns a new table with a boolean column ("true"/"false") computed
// from the predicate, usable as a cross-tab axis.
func Flag(t *Table, name string, p Predicate) (*Table, error) {
	if err := t.RequireColumns(fmt.Sprintf("flag %q", name), p.Fields...); err != nil {
		return nil, err
	}
	return t.WithColumn(name, func(r Record) Value {
		if p.Test(r) {
			return String("true")
		}
		return String("false")
	}), nil
}

func lowerAll(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if s == "" {
			continue
		}
		out = append(out, strings.ToLower(s))
	}
	return out
}
