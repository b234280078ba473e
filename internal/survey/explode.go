package survey

// FieldSpec pairs a field name with the normalizer used to tokenize it.
type FieldSpec struct {
	Name       string
	Normalizer Normalizer
}

// Field is shorthand for a FieldSpec.
func Field(name string, n Normalizer) FieldSpec {
	return FieldSpec{Name: name, Normalizer: n}
}

// Memberships returns the normalized token set of one field for every
// record, in record order. Each set is non-empty.
func Memberships(t *Table, f FieldSpec) ([][]Token, error) {
	if err := t.RequireColumns("normalize", f.Name); err != nil {
		return nil, err
	}
	out := make([][]Token, len(t.Records))
	for i, r := range t.Records {
		out[i] = f.Normalizer.Normalize(r.Get(f.Name))
	}
	return out, nil
}

// LongRow is one exploded unit: a record paired with one token per exploded
// field, plus a copy of the record's other fields.
type LongRow struct {
	Record int
	ID     string
	Tokens []Token
	Fields Record
}

// LongTable is the long form of a table exploded on one or more fields.
type LongTable struct {
	Source   string
	Exploded []string
	Records  int
	Rows     []LongRow
}

// Explode produces one row per element of the Cartesian product of the
// records' token sets for the given fields. Records whose fields normalize
// to the sentinel are kept.
func Explode(t *Table, fields ...FieldSpec) (*LongTable, error) {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	if err := t.RequireColumns("explode", names...); err != nil {
		return nil, err
	}
	lt := &LongTable{Source: t.Name, Exploded: names, Records: len(t.Records)}
	if len(fields) == 0 {
		return lt, nil
	}
	exploded := make(map[string]struct{}, len(names))
	for _, n := range names {
		exploded[n] = struct{}{}
	}
	for i, r := range t.Records {
		sets := make([][]Token, len(fields))
		for j, f := range fields {
			sets[j] = f.Normalizer.Normalize(r.Get(f.Name))
		}
		id := t.RecordID(i)
		cartesian(sets, func(combo []Token) {
			carried := make(Record, len(r))
			for k, v := range r {
				if _, skip := exploded[k]; !skip {
					carried[k] = v
				}
			}
			lt.Rows = append(lt.Rows, LongRow{Record: i, ID: id, Tokens: combo, Fields: carried})
		})
	}
	return lt, nil
}

// cartesian calls fn with a fresh slice for every combination, varying the
// last set fastest.
func cartesian(sets [][]Token, fn func([]Token)) {
	idx := make([]int, len(sets))
	for {
		combo := make([]Token, len(sets))
		for j, s := range sets {
			combo[j] = s[idx[j]]
		}
		fn(combo)
		k := len(sets) - 1
		for k >= 0 {
			idx[k]++
			if idx[k] < len(sets[k]) {
				break
			}
			idx[k] = 0
			k--
		}
		if k < 0 {
			return
		}
	}
}

// Len returns the number of long-form rows.
func (lt *LongTable) Len() int { return len(lt.Rows) }

// Column returns the tokens of one exploded field, aligned by row.
func (lt *LongTable) Column(field string) ([]Token, error) {
	j := -1
	for i, n := range lt.Exploded {
		if n == field {
			j = i
			break
		}
	}
	if j < 0 {
		return nil, &MissingFieldError{Field: field, Table: lt.Source, Context: "long-form column"}
	}
	out := make([]Token, len(lt.Rows))
	for i, row := range lt.Rows {
		out[i] = row.Tokens[j]
	}
	return out, nil
}

// Memberships regroups one exploded field per source record, dropping the
// repetitions introduced by joint explosion.
func (lt *LongTable) Memberships(field string) ([][]Token, error) {
	col, err := lt.Column(field)
	if err != nil {
		return nil, err
	}
	out := make([][]Token, lt.Records)
	seen := make([]map[Token]struct{}, lt.Records)
	for i, row := range lt.Rows {
		tok := col[i]
		if seen[row.Record] == nil {
			seen[row.Record] = map[Token]struct{}{}
		}
		if _, dup := seen[row.Record][tok]; dup {
			continue
		}
		seen[row.Record][tok] = struct{}{}
		out[row.Record] = append(out[row.Record], tok)
	}
	return out, nil
}
