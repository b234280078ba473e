package survey

import (
	"math"
	"sort"
	"strings"
)

// Column kinds reported by Describe.
const (
	KindNameNumeric     = "numeric"
	KindNameCategorical = "categorical"
	KindNameMulti       = "multi-valued"
	KindNameText        = "text"
	KindNameEmpty       = "empty"
)

// ColumnProfile captures the inferred kind and summary statistics of one
// column.
type ColumnProfile struct {
	Name    string
	Kind    string
	Present int
	Missing int
	Unique  int
	// Numeric stats, set when Kind is numeric.
	Min, Max, Mean, Median float64
	// Top holds the most frequent raw values (or tokens for multi-valued
	// columns), descending.
	Top []ValueCount
}

// ValueCount is one value with its number of records.
type ValueCount struct {
	Value string
	Count int
}

// DescribeOptions tunes kind inference.
type DescribeOptions struct {
	// Delimiters mark multi-valued cells; empty means DefaultDelimiters.
	Delimiters string
	// Top limits Top per column; 0 means 5.
	Top int
}

// Describe profiles every column of the table in schema order. A column is
// multi-valued when some cells hold a delimiter and splitting does not grow
// the set of distinct values, so the pieces recur across records; code lists
// such as "1,2" land here before the numeric check. A column is numeric when
// every present value parses as a number. Otherwise it is categorical when
// its distinct values stay few relative to the records, and text when they
// do not.
func Describe(t *Table, opt DescribeOptions) []ColumnProfile {
	delims := opt.Delimiters
	if delims == "" {
		delims = DefaultDelimiters
	}
	top := opt.Top
	if top <= 0 {
		top = 5
	}
	out := make([]ColumnProfile, 0, len(t.Columns))
	for _, col := range t.Columns {
		out = append(out, describeColumn(t, col, delims, top))
	}
	return out
}

func describeColumn(t *Table, col, delims string, top int) ColumnProfile {
	p := ColumnProfile{Name: col}
	counts := map[string]int{}
	var nums []float64
	numeric := true
	multi := 0
	for _, r := range t.Records {
		v := r.Get(col)
		if v.IsBlank() {
			p.Missing++
			continue
		}
		p.Present++
		s := strings.TrimSpace(v.Text())
		counts[s]++
		if x, ok := v.Float(); ok {
			nums = append(nums, x)
		} else {
			numeric = false
		}
		if strings.ContainsAny(s, delims) {
			multi++
		}
	}
	p.Unique = len(counts)

	var tokens map[string]int
	if multi > 0 {
		tokens = tokenCounts(t, col, MultiValued(delims))
	}

	switch {
	case p.Present == 0:
		p.Kind = KindNameEmpty
		return p
	case tokens != nil && len(tokens) <= p.Unique:
		p.Kind = KindNameMulti
		counts = tokens
	case numeric:
		p.Kind = KindNameNumeric
		p.Min, p.Max, p.Mean, p.Median = numSummary(nums)
	case p.Unique <= 20 || p.Unique*2 <= p.Present:
		p.Kind = KindNameCategorical
	default:
		p.Kind = KindNameText
	}
	if p.Kind != KindNameNumeric {
		p.Top = topValues(counts, top)
	}
	return p
}

func tokenCounts(t *Table, col string, n Normalizer) map[string]int {
	out := map[string]int{}
	for _, r := range t.Records {
		v := r.Get(col)
		if v.IsBlank() {
			continue
		}
		for _, tok := range n.Normalize(v) {
			out[tok.String()]++
		}
	}
	return out
}

func numSummary(vals []float64) (lo, hi, mean, median float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	sum := 0.0
	for _, x := range vals {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
		sum += x
	}
	mean = sum / float64(len(vals))
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	return lo, hi, mean, quantile(sorted, 0.5)
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// topValues sorts by count, descending, then by value.
func topValues(counts map[string]int, n int) []ValueCount {
	out := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
