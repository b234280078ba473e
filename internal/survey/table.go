package survey

import (
	"strconv"
	"strings"
)

// Record is one survey response: field name to cell value. Absent keys read
// as Missing.
type Record map[string]Value

// Get returns the value of a field, Missing when absent.
func (r Record) Get(field string) Value {
	if r == nil {
		return Missing()
	}
	return r[field]
}

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered set of records sharing a declared schema.
type Table struct {
	Name    string
	Columns []string
	Records []Record
	// Key names the identifier field, if any.
	Key string
}

// NewTable builds a table from columns and records without copying them.
func NewTable(name string, columns []string, records []Record) *Table {
	return &Table{Name: name, Columns: columns, Records: records}
}

// WithKey sets the identifier field and returns the table.
func (t *Table) WithKey(key string) *Table {
	t.Key = key
	return t
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// HasColumn reports whether the schema declares the field.
func (t *Table) HasColumn(name string) bool {
	return t.columnIndex(name) >= 0
}

func (t *Table) columnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// RequireColumns returns a MissingFieldError for the first field that the
// schema does not declare.
func (t *Table) RequireColumns(context string, fields ...string) error {
	for _, f := range fields {
		if !t.HasColumn(f) {
			return &MissingFieldError{Field: f, Table: t.displayName(), Context: context}
		}
	}
	return nil
}

func (t *Table) displayName() string {
	if t == nil || t.Name == "" {
		return "(unnamed)"
	}
	return t.Name
}

// RecordID returns the canonical identifier of record i: the key field when
// the table declares one, otherwise the 1-based row number.
func (t *Table) RecordID(i int) string {
	if t.Key != "" {
		if id := CanonicalID(t.Records[i].Get(t.Key)); id != "" {
			return id
		}
	}
	return strconv.Itoa(i + 1)
}

// Column returns the values of one field in record order.
func (t *Table) Column(field string) []Value {
	out := make([]Value, len(t.Records))
	for i, r := range t.Records {
		out[i] = r.Get(field)
	}
	return out
}

// WithColumn returns a new table with an extra (or replaced) column whose
// value for record i is fn(record i). The receiver is not modified.
func (t *Table) WithColumn(name string, fn func(Record) Value) *Table {
	cols := make([]string, len(t.Columns), len(t.Columns)+1)
	copy(cols, t.Columns)
	if !t.HasColumn(name) {
		cols = append(cols, name)
	}
	recs := make([]Record, len(t.Records))
	for i, r := range t.Records {
		c := r.Clone()
		c[name] = fn(r)
		recs[i] = c
	}
	return &Table{Name: t.Name, Columns: cols, Records: recs, Key: t.Key}
}

// CanonicalID normalizes an identifier so numeric and textual spellings of
// the same id compare equal: 7, 7.0 and " 7 " all become "7". Missing or
// blank ids return "".
func CanonicalID(v Value) string {
	switch v.Kind() {
	case KindNumber:
		f, _ := v.Float()
		return formatNumber(f)
	case KindString:
		s := strings.TrimSpace(v.Text())
		if s == "" {
			return ""
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !strings.ContainsAny(s, "iInN") {
			return formatNumber(f)
		}
		return s
	default:
		return ""
	}
}
