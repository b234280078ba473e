package survey

import (
	"sort"
	"strings"
)

// Count is the tally of one token.
type Count struct {
	Token Token
	// Occurrences counts every appearance, including repeats introduced by
	// joint explosion.
	Occurrences int
	// Records counts distinct records whose membership contains the token.
	Records int
	// Share is Records divided by the distinct-record total.
	Share float64
}

// Frequency is a token frequency table over one field.
type Frequency struct {
	Field   string
	Records int
	Counts  []Count
}

// Frequencies tallies per-record token sets. Counts are ordered by
// occurrences, descending, ties kept in first-seen order.
func Frequencies(memberships [][]Token) *Frequency {
	f := &Frequency{Records: len(memberships)}
	index := map[Token]int{}
	for _, set := range memberships {
		inRecord := map[Token]struct{}{}
		for _, tok := range set {
			i, ok := index[tok]
			if !ok {
				i = len(f.Counts)
				index[tok] = i
				f.Counts = append(f.Counts, Count{Token: tok})
			}
			f.Counts[i].Occurrences++
			if _, dup := inRecord[tok]; !dup {
				inRecord[tok] = struct{}{}
				f.Counts[i].Records++
			}
		}
	}
	f.finish()
	return f
}

// Frequencies tallies an exploded field. Occurrences count long-form rows;
// Records and Share use the source record count as the base.
func (lt *LongTable) Frequencies(field string) (*Frequency, error) {
	col, err := lt.Column(field)
	if err != nil {
		return nil, err
	}
	f := &Frequency{Field: field, Records: lt.Records}
	index := map[Token]int{}
	seen := map[[2]int]struct{}{}
	for i, row := range lt.Rows {
		tok := col[i]
		j, ok := index[tok]
		if !ok {
			j = len(f.Counts)
			index[tok] = j
			f.Counts = append(f.Counts, Count{Token: tok})
		}
		f.Counts[j].Occurrences++
		key := [2]int{row.Record, j}
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			f.Counts[j].Records++
		}
	}
	f.finish()
	return f, nil
}

func (f *Frequency) finish() {
	for i := range f.Counts {
		f.Counts[i].Share = share(f.Counts[i].Records, f.Records)
	}
	sort.SliceStable(f.Counts, func(i, j int) bool {
		return f.Counts[i].Occurrences > f.Counts[j].Occurrences
	})
}

// Lookup returns the count for a token.
func (f *Frequency) Lookup(tok Token) (Count, bool) {
	for _, c := range f.Counts {
		if c.Token == tok {
			return c, true
		}
	}
	return Count{}, false
}

// Total returns the sum of occurrences.
func (f *Frequency) Total() int {
	n := 0
	for _, c := range f.Counts {
		n += c.Occurrences
	}
	return n
}

// Top returns at most n counts; n <= 0 returns all.
func (f *Frequency) Top(n int) []Count {
	if n <= 0 || n >= len(f.Counts) {
		return f.Counts
	}
	return f.Counts[:n]
}

// MatchMode selects how a category is tested against a record's tokens.
type MatchMode int

const (
	// MatchExact requires a token equal to the category.
	MatchExact MatchMode = iota
	// MatchSubstring accepts any non-sentinel token whose label contains the
	// category label.
	MatchSubstring
)

// ParseMatchMode maps "exact" and "substring" to a MatchMode.
func ParseMatchMode(s string) (MatchMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return MatchExact, true
	case "substring", "contains":
		return MatchSubstring, true
	default:
		return MatchExact, false
	}
}

func (m MatchMode) String() string {
	if m == MatchSubstring {
		return "substring"
	}
	return "exact"
}

// CategoryShare is the fraction of records mentioning a category.
type CategoryShare struct {
	Category Token
	Records  int
	Share    float64
}

// Shares computes, for each category, the fraction of records whose
// membership contains it. The denominator is always the record count, so
// shares of overlapping categories may sum past 1.
func Shares(memberships [][]Token, categories []Token, mode MatchMode) []CategoryShare {
	out := make([]CategoryShare, len(categories))
	for i, cat := range categories {
		n := 0
		for _, set := range memberships {
			if contains(set, cat, mode) {
				n++
			}
		}
		out[i] = CategoryShare{Category: cat, Records: n, Share: share(n, len(memberships))}
	}
	return out
}

func contains(set []Token, cat Token, mode MatchMode) bool {
	for _, tok := range set {
		if tok == cat {
			return true
		}
		if mode == MatchSubstring && !tok.sentinel && !cat.sentinel && strings.Contains(tok.label, cat.label) {
			return true
		}
	}
	return false
}

func share(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// GroupedFrequencies tallies a token field separately for each category of a
// grouping field (e.g. causes cited per outcome). Groups follow order, then
// first-seen order for groups outside it.
func GroupedFrequencies(t *Table, field, group FieldSpec, order []Token) ([]GroupFrequency, error) {
	lt, err := Explode(t, group, field)
	if err != nil {
		return nil, err
	}
	keys := newAxis(order)
	buckets := map[Token][][]Token{}
	members, err := lt.Memberships(field.Name)
	if err != nil {
		return nil, err
	}
	groups, err := lt.Memberships(group.Name)
	if err != nil {
		return nil, err
	}
	for rec := range members {
		for _, g := range groups[rec] {
			keys.add(g)
			buckets[g] = append(buckets[g], members[rec])
		}
	}
	out := make([]GroupFrequency, 0, len(keys.tokens))
	for _, g := range keys.tokens {
		f := Frequencies(buckets[g])
		f.Field = field.Name
		out = append(out, GroupFrequency{Group: g, Frequency: f})
	}
	return out, nil
}

// GroupFrequency is the frequency table of one group.
type GroupFrequency struct {
	Group     Token
	Frequency *Frequency
}
