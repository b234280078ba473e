package survey

import "strings"

// CrossTabOptions fixes axis ordering. A supplied order is kept verbatim and
// also acts as a vocabulary: its tokens appear even with zero counts. Tokens
// seen in the data but absent from the order are appended in first-seen
// order so no pair is dropped.
type CrossTabOptions struct {
	RowOrder []Token
	ColOrder []Token
}

// CrossTab is a co-occurrence count matrix between two token dimensions.
type CrossTab struct {
	RowField string
	ColField string
	Rows     []Token
	Cols     []Token
	// Counts is row-major: Counts[i][j] pairs Rows[i] with Cols[j].
	Counts [][]int
}

type axis struct {
	tokens []Token
	index  map[Token]int
}

func newAxis(order []Token) *axis {
	a := &axis{index: make(map[Token]int, len(order))}
	for _, t := range order {
		a.add(t)
	}
	return a
}

func (a *axis) add(t Token) int {
	if i, ok := a.index[t]; ok {
		return i
	}
	a.index[t] = len(a.tokens)
	a.tokens = append(a.tokens, t)
	return len(a.tokens) - 1
}

// NewCrossTab counts aligned (row, column) token pairs, typically the two
// columns of a jointly exploded long table.
func NewCrossTab(rows, cols []Token, opt CrossTabOptions) (*CrossTab, error) {
	if len(rows) != len(cols) {
		return nil, &LengthMismatchError{Rows: len(rows), Cols: len(cols)}
	}
	ra := newAxis(opt.RowOrder)
	ca := newAxis(opt.ColOrder)
	type pair struct{ r, c int }
	counts := map[pair]int{}
	for i := range rows {
		counts[pair{ra.add(rows[i]), ca.add(cols[i])}]++
	}
	ct := &CrossTab{Rows: ra.tokens, Cols: ca.tokens, Counts: make([][]int, len(ra.tokens))}
	for i := range ct.Counts {
		ct.Counts[i] = make([]int, len(ca.tokens))
	}
	for p, n := range counts {
		ct.Counts[p.r][p.c] = n
	}
	return ct, nil
}

// CrossTabulate explodes a table jointly on two fields and counts the pairs.
// Each record contributes |rows| x |cols| pairs.
func CrossTabulate(t *Table, row, col FieldSpec, opt CrossTabOptions) (*CrossTab, error) {
	if row.Name == col.Name {
		// Same field on both axes: co-occurrence of tokens within a record.
		members, err := Memberships(t, row)
		if err != nil {
			return nil, err
		}
		var rs, cs []Token
		for _, set := range members {
			for _, a := range set {
				for _, b := range set {
					rs = append(rs, a)
					cs = append(cs, b)
				}
			}
		}
		ct, err := NewCrossTab(rs, cs, opt)
		if err != nil {
			return nil, err
		}
		ct.RowField, ct.ColField = row.Name, col.Name
		return ct, nil
	}
	lt, err := Explode(t, row, col)
	if err != nil {
		return nil, err
	}
	rs, _ := lt.Column(row.Name)
	cs, _ := lt.Column(col.Name)
	ct, err := NewCrossTab(rs, cs, opt)
	if err != nil {
		return nil, err
	}
	ct.RowField, ct.ColField = row.Name, col.Name
	return ct, nil
}

// Count returns the cell for a token pair; unknown tokens read as zero.
func (c *CrossTab) Count(row, col Token) int {
	i, j := indexOf(c.Rows, row), indexOf(c.Cols, col)
	if i < 0 || j < 0 {
		return 0
	}
	return c.Counts[i][j]
}

func indexOf(ts []Token, t Token) int {
	for i, x := range ts {
		if x == t {
			return i
		}
	}
	return -1
}

// RowTotals returns the sum of each row.
func (c *CrossTab) RowTotals() []int {
	out := make([]int, len(c.Rows))
	for i, row := range c.Counts {
		for _, n := range row {
			out[i] += n
		}
	}
	return out
}

// ColTotals returns the sum of each column.
func (c *CrossTab) ColTotals() []int {
	out := make([]int, len(c.Cols))
	for _, row := range c.Counts {
		for j, n := range row {
			out[j] += n
		}
	}
	return out
}

// Total returns the sum of all cells.
func (c *CrossTab) Total() int {
	n := 0
	for _, t := range c.RowTotals() {
		n += t
	}
	return n
}

// Normalization selects the base of a proportion matrix.
type Normalization int

const (
	NormalizeNone Normalization = iota
	NormalizeRows
	NormalizeColumns
	NormalizeAll
)

// ParseNormalization maps "none", "row", "column" and "all".
func ParseNormalization(s string) (Normalization, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "count", "counts":
		return NormalizeNone, true
	case "row", "rows", "index":
		return NormalizeRows, true
	case "col", "cols", "column", "columns":
		return NormalizeColumns, true
	case "all", "total":
		return NormalizeAll, true
	default:
		return NormalizeNone, false
	}
}

func (n Normalization) String() string {
	switch n {
	case NormalizeRows:
		return "row"
	case NormalizeColumns:
		return "column"
	case NormalizeAll:
		return "all"
	default:
		return "none"
	}
}

// Proportions divides each cell by its row, column or grand total. Cells
// whose base is zero stay zero. NormalizeNone returns the counts as floats.
func (c *CrossTab) Proportions(mode Normalization) [][]float64 {
	rt, ct, total := c.RowTotals(), c.ColTotals(), c.Total()
	out := make([][]float64, len(c.Rows))
	for i, row := range c.Counts {
		out[i] = make([]float64, len(c.Cols))
		for j, n := range row {
			var base int
			switch mode {
			case NormalizeRows:
				base = rt[i]
			case NormalizeColumns:
				base = ct[j]
			case NormalizeAll:
				base = total
			default:
				out[i][j] = float64(n)
				continue
			}
			if base != 0 {
				out[i][j] = float64(n) / float64(base)
			}
		}
	}
	return out
}

// Transpose swaps the axes.
func (c *CrossTab) Transpose() *CrossTab {
	t := &CrossTab{
		RowField: c.ColField,
		ColField: c.RowField,
		Rows:     append([]Token(nil), c.Cols...),
		Cols:     append([]Token(nil), c.Rows...),
	}
	t.Counts = make([][]int, len(c.Cols))
	for j := range c.Cols {
		t.Counts[j] = make([]int, len(c.Rows))
		for i := range c.Rows {
			t.Counts[j][i] = c.Counts[i][j]
		}
	}
	return t
}
