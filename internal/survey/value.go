package survey

import (
	"math"
	"strconv"
	"strings"
)

// Kind classifies a cell value.
type Kind int

const (
	KindMissing Kind = iota
	KindString
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	default:
		return "missing"
	}
}

// Value is an immutable table cell: a string, a number, or missing.
// Numbers parsed from text keep their raw spelling so that tokenizing a
// numeric-looking multi-valued cell (e.g. "1,2") never loses information.
type Value struct {
	kind Kind
	s    string
	n    float64
}

// Missing returns the absent value.
func Missing() Value { return Value{} }

// String returns a string value. An empty string is kept as a string; use
// IsBlank to test for it.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, n: f} }

// Infer converts raw cell text to a value: blank text is missing, text that
// parses as a number (see ParseNumber) becomes a number that remembers its
// raw text, anything else is a string.
func Infer(raw string, nf NumberFormat) Value {
	t := strings.TrimSpace(raw)
	if t == "" {
		return Missing()
	}
	if f, ok := ParseNumber(t, nf); ok {
		return Value{kind: KindNumber, n: f, s: t}
	}
	return String(raw)
}

func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the value is absent.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// IsBlank reports whether the value is missing or only whitespace.
func (v Value) IsBlank() bool {
	return v.kind == KindMissing || (v.kind == KindString && strings.TrimSpace(v.s) == "")
}

// Text returns the textual form of the value. Missing values return "".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		if v.s != "" {
			return v.s
		}
		return formatNumber(v.n)
	default:
		return ""
	}
}

// Float returns the numeric reading of the value. Strings are coerced with
// ParseNumber using auto-detected separators; ok is false for missing or
// non-numeric values.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.n, true
	case KindString:
		return ParseNumber(v.s, NumberFormat{})
	default:
		return 0, false
	}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	default:
		return true
	}
}

// GoString makes test failures readable.
func (v Value) GoString() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.s)
	case KindNumber:
		return formatNumber(v.n)
	default:
		return "<missing>"
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// NumberFormat fixes the decimal and thousands separators used to read
// numbers. Zero runes mean auto-detect per value.
type NumberFormat struct {
	Decimal   rune
	Thousands rune
}

// ParseNumber reads locale-formatted numbers such as "1.000,5", "12,5%" or
// "3 200". A trailing or embedded percent sign is ignored.
func ParseNumber(s string, nf NumberFormat) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := nf.Decimal
	thou := nf.Thousands
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		if cpos >= 0 && dpos >= 0 {
			if cpos > dpos {
				dec = ','
				thou = '.'
			} else {
				dec = '.'
				thou = ','
			}
		} else if cpos >= 0 {
			dec = ','
		} else {
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	// ParseFloat accepts "Inf" and "NaN"; survey cells never mean that.
	if strings.ContainsAny(raw, "iInN") {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
