package survey

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Recode returns a new table with a numeric column computed by looking up
// the trimmed text of field in mapping (e.g. a duration bucket to years).
// Unmapped or missing values become Missing.
func Recode(t *Table, field, into string, mapping map[string]float64) (*Table, error) {
	if err := t.RequireColumns(fmt.Sprintf("recode %q", into), field); err != nil {
		return nil, err
	}
	lookup := make(map[string]float64, len(mapping))
	for k, v := range mapping {
		lookup[strings.TrimSpace(k)] = v
	}
	return t.WithColumn(into, func(r Record) Value {
		v := r.Get(field)
		if v.IsBlank() {
			return Missing()
		}
		if x, ok := lookup[strings.TrimSpace(v.Text())]; ok {
			return Number(x)
		}
		return Missing()
	}), nil
}

// Bins assigns labels to half-open numeric intervals (Edges[i], Edges[i+1]].
// len(Labels) must be len(Edges)-1.
type Bins struct {
	Edges  []float64
	Labels []string
}

// Validate checks the edges are strictly increasing and labels line up.
func (b Bins) Validate() error {
	if len(b.Edges) < 2 {
		return fmt.Errorf("bins need at least two edges, got %d", len(b.Edges))
	}
	if len(b.Labels) != len(b.Edges)-1 {
		return fmt.Errorf("bins need %d labels for %d edges, got %d", len(b.Edges)-1, len(b.Edges), len(b.Labels))
	}
	if !sort.Float64sAreSorted(b.Edges) {
		return fmt.Errorf("bin edges must be increasing")
	}
	for i := 1; i < len(b.Edges); i++ {
		if b.Edges[i] == b.Edges[i-1] {
			return fmt.Errorf("bin edges must be strictly increasing")
		}
	}
	return nil
}

// Label returns the label of the interval containing x.
func (b Bins) Label(x float64) (string, bool) {
	if math.IsNaN(x) {
		return "", false
	}
	for i := 1; i < len(b.Edges); i++ {
		if x > b.Edges[i-1] && x <= b.Edges[i] {
			return b.Labels[i-1], true
		}
	}
	return "", false
}

// Bin returns a new table with a categorical column labeling the numeric
// field's interval. Non-numeric or out-of-range values become Missing.
func Bin(t *Table, field, into string, b Bins) (*Table, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("bin %q: %w", into, err)
	}
	if err := t.RequireColumns(fmt.Sprintf("bin %q", into), field); err != nil {
		return nil, err
	}
	return t.WithColumn(into, func(r Record) Value {
		x, ok := r.Get(field).Float()
		if !ok {
			return Missing()
		}
		if l, ok := b.Label(x); ok {
			return String(l)
		}
		return Missing()
	}), nil
}
