package survey

import (
	"fmt"
	"math"
)

// NumSummary aggregates the numeric readings of one field within a group.
type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// GroupMean holds per-field summaries for one group token.
type GroupMean struct {
	Group   Token
	Records int
	Metrics map[string]NumSummary
}

// GroupMeans averages numeric fields per category of a grouping field. A
// multi-valued grouping field counts a record in each of its groups. Values
// that are missing or non-numeric are skipped. Groups follow order first,
// then first-seen order; ordered groups without records are kept empty.
func GroupMeans(t *Table, group FieldSpec, order []Token, fields ...string) ([]GroupMean, error) {
	if err := t.RequireColumns("group means", fields...); err != nil {
		return nil, err
	}
	members, err := Memberships(t, group)
	if err != nil {
		return nil, err
	}
	type acc struct {
		n             int
		sum, min, max float64
	}
	keys := newAxis(order)
	sizes := map[Token]int{}
	accs := map[Token]map[string]*acc{}
	for i, r := range t.Records {
		for _, g := range members[i] {
			keys.add(g)
			sizes[g]++
			if accs[g] == nil {
				accs[g] = map[string]*acc{}
			}
			for _, f := range fields {
				x, ok := r.Get(f).Float()
				if !ok {
					continue
				}
				a := accs[g][f]
				if a == nil {
					a = &acc{min: math.Inf(1), max: math.Inf(-1)}
					accs[g][f] = a
				}
				a.n++
				a.sum += x
				a.min = math.Min(a.min, x)
				a.max = math.Max(a.max, x)
			}
		}
	}
	out := make([]GroupMean, 0, len(keys.tokens))
	for _, g := range keys.tokens {
		gm := GroupMean{Group: g, Records: sizes[g], Metrics: map[string]NumSummary{}}
		for f, a := range accs[g] {
			gm.Metrics[f] = NumSummary{Count: a.n, Min: a.min, Max: a.max, Mean: a.sum / float64(a.n)}
		}
		out = append(out, gm)
	}
	return out, nil
}

// Pivot holds the mean of a numeric field per (row, column) token pair.
type Pivot struct {
	RowField, ColField, Value string
	Rows, Cols                []Token
	// Means[i][j] is NaN when the cell has no numeric value.
	Means  [][]float64
	Counts [][]int
}

// PivotMeans averages value over the joint explosion of two grouping fields
// (e.g. mean documentation score by team size and outcome).
func PivotMeans(t *Table, row, col FieldSpec, value string, opt CrossTabOptions) (*Pivot, error) {
	if err := t.RequireColumns("pivot", value); err != nil {
		return nil, err
	}
	lt, err := Explode(t, row, col)
	if err != nil {
		return nil, err
	}
	ra, ca := newAxis(opt.RowOrder), newAxis(opt.ColOrder)
	type cell struct{ r, c int }
	sums := map[cell]float64{}
	ns := map[cell]int{}
	for _, lr := range lt.Rows {
		k := cell{ra.add(lr.Tokens[0]), ca.add(lr.Tokens[1])}
		x, ok := t.Records[lr.Record].Get(value).Float()
		if !ok {
			continue
		}
		sums[k] += x
		ns[k]++
	}
	p := &Pivot{RowField: row.Name, ColField: col.Name, Value: value, Rows: ra.tokens, Cols: ca.tokens}
	p.Means = make([][]float64, len(ra.tokens))
	p.Counts = make([][]int, len(ra.tokens))
	for i := range ra.tokens {
		p.Means[i] = make([]float64, len(ca.tokens))
		p.Counts[i] = make([]int, len(ca.tokens))
		for j := range ca.tokens {
			k := cell{i, j}
			p.Counts[i][j] = ns[k]
			if ns[k] == 0 {
				p.Means[i][j] = math.NaN()
				continue
			}
			p.Means[i][j] = sums[k] / float64(ns[k])
		}
	}
	return p, nil
}

// Correlation is a Pearson coefficient over pairwise-complete records.
type Correlation struct {
	X, Y string
	N    int
	R    float64
}

// Pearson correlates two numeric fields using the records where both are
// numeric. With fewer than two pairs or zero variance R is 0.
func Pearson(t *Table, x, y string) (Correlation, error) {
	c := Correlation{X: x, Y: y}
	if err := t.RequireColumns(fmt.Sprintf("correlation %s~%s", x, y), x, y); err != nil {
		return c, err
	}
	var n, sumX, sumY, sumXX, sumYY, sumXY float64
	for _, r := range t.Records {
		a, ok1 := r.Get(x).Float()
		b, ok2 := r.Get(y).Float()
		if !ok1 || !ok2 {
			continue
		}
		n++
		sumX += a
		sumY += b
		sumXX += a * a
		sumYY += b * b
		sumXY += a * b
	}
	c.N = int(n)
	if n < 2 {
		return c, nil
	}
	denom := math.Sqrt((n*sumXX - sumX*sumX) * (n*sumYY - sumY*sumY))
	if denom == 0 || math.IsNaN(denom) {
		return c, nil
	}
	r := (n*sumXY - sumX*sumY) / denom
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	c.R = r
	return c, nil
}
