package survey

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultEmptyLabel is the display label of the default sentinel token.
const DefaultEmptyLabel = "Empty"

// Token is an atomic category label. The sentinel variant stands for an
// absent value and never equals an ordinary label, even one spelled "Empty".
type Token struct {
	label    string
	sentinel bool
}

// Empty is the default sentinel token.
var Empty = Sentinel(DefaultEmptyLabel)

// Label returns an ordinary token. An empty label yields Empty.
func Label(s string) Token {
	if s == "" {
		return Empty
	}
	return Token{label: s}
}

// Sentinel returns a sentinel token displayed as label.
func Sentinel(label string) Token {
	if label == "" {
		label = DefaultEmptyLabel
	}
	return Token{label: label, sentinel: true}
}

// IsSentinel reports whether the token marks an absent value.
func (t Token) IsSentinel() bool { return t.sentinel }

// Equal reports whether two tokens are the same category.
func (t Token) Equal(o Token) bool { return t == o }

// String returns the display label.
func (t Token) String() string {
	if t.label == "" {
		return DefaultEmptyLabel
	}
	return t.label
}

// Labels converts plain strings to tokens.
func Labels(ss ...string) []Token {
	out := make([]Token, len(ss))
	for i, s := range ss {
		out[i] = Label(s)
	}
	return out
}

// CaseMode controls token casing.
type CaseMode int

const (
	// CasePreserve keeps source casing, for closed vocabularies matched
	// exactly against known labels.
	CasePreserve CaseMode = iota
	// CaseLower lowercases tokens, for open-vocabulary cause analysis.
	CaseLower
	// CaseFold lowercases and strips diacritics.
	CaseFold
)

// ParseCaseMode maps "preserve", "lower" and "fold" to a CaseMode.
func ParseCaseMode(s string) (CaseMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "preserve", "none":
		return CasePreserve, true
	case "lower", "lowercase":
		return CaseLower, true
	case "fold", "ascii":
		return CaseFold, true
	default:
		return CasePreserve, false
	}
}

func (m CaseMode) String() string {
	switch m {
	case CaseLower:
		return "lower"
	case CaseFold:
		return "fold"
	default:
		return "preserve"
	}
}

// DefaultDelimiters splits multi-valued cells on commas.
const DefaultDelimiters = ","

// Normalizer turns a raw cell into a non-empty token sequence.
//
// Multi-valued mode (the default) removes all whitespace, splits on any rune
// of Delimiters and collapses duplicates. An empty piece, as in "A," or
// "A,,B", becomes the sentinel. Scalar mode keeps the trimmed value
// as one token. When Known is set the vocabulary is closed: values outside it
// (and missing values) become Fallback.
type Normalizer struct {
	Delimiters string
	Case       CaseMode
	Scalar     bool
	Known      []string
	Fallback   string
	// Missing is the sentinel used for absent values; zero means Empty.
	Missing Token
}

// MultiValued returns a normalizer splitting on the given delimiters.
func MultiValued(delimiters string) Normalizer {
	return Normalizer{Delimiters: delimiters}
}

// Scalar returns a normalizer that keeps the whole value as one token.
func Scalar() Normalizer {
	return Normalizer{Scalar: true}
}

// Closed returns a scalar normalizer over a fixed label set; anything else,
// including missing values, maps to fallback.
func Closed(fallback string, known ...string) Normalizer {
	return Normalizer{Scalar: true, Known: known, Fallback: fallback}
}

func (n Normalizer) sentinel() Token {
	if n.Missing.label == "" {
		return Empty
	}
	return n.Missing
}

func (n Normalizer) delimiters() string {
	if n.Delimiters == "" {
		return DefaultDelimiters
	}
	return n.Delimiters
}

// Normalize parses a cell. The result is never empty.
func (n Normalizer) Normalize(v Value) []Token {
	if v.IsMissing() {
		return []Token{n.absent()}
	}
	return n.NormalizeString(v.Text())
}

// NormalizeString parses raw cell text. The result is never empty.
func (n Normalizer) NormalizeString(raw string) []Token {
	s := n.clean(raw)
	if n.Scalar {
		s = strings.TrimSpace(s)
		if s == "" {
			return []Token{n.absent()}
		}
		return []Token{n.close(s)}
	}
	s = stripSpace(s)
	if s == "" {
		return []Token{n.absent()}
	}
	pieces := splitAny(s, n.delimiters())
	out := make([]Token, 0, len(pieces))
	seen := make(map[Token]struct{}, len(pieces))
	for _, p := range pieces {
		tok := n.absent()
		if p != "" {
			tok = n.close(p)
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// splitAny splits s around every rune of delims, keeping empty pieces.
func splitAny(s, delims string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if strings.ContainsRune(delims, r) {
			out = append(out, s[start:i])
			start = i + utf8.RuneLen(r)
		}
	}
	return append(out, s[start:])
}

// NormalizeTokens re-normalizes an already parsed sequence. Applying it to
// the output of Normalize returns the same sequence.
func (n Normalizer) NormalizeTokens(in []Token) []Token {
	out := make([]Token, 0, len(in))
	seen := make(map[Token]struct{}, len(in))
	add := func(t Token) {
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, t := range in {
		if t.sentinel {
			add(t)
			continue
		}
		for _, nt := range n.NormalizeString(t.label) {
			add(nt)
		}
	}
	if len(out) == 0 {
		return []Token{n.absent()}
	}
	return out
}

// Token resolves a label supplied by a caller (an axis order entry, a share
// category) to the token this normalizer produces for it. The sentinel's
// display label and blank labels resolve to the sentinel; other labels get
// the same cleaning, casing and vocabulary closure as cell text.
func (n Normalizer) Token(label string) Token {
	s := strings.TrimSpace(label)
	if s == "" || s == n.sentinel().String() {
		return n.absent()
	}
	s = n.key(s)
	if s == "" {
		return n.absent()
	}
	return n.close(s)
}

// Tokens resolves several labels with Token.
func (n Normalizer) Tokens(labels ...string) []Token {
	out := make([]Token, len(labels))
	for i, l := range labels {
		out[i] = n.Token(l)
	}
	return out
}

func (n Normalizer) absent() Token {
	if len(n.Known) > 0 && n.Fallback != "" {
		return Label(n.Fallback)
	}
	return n.sentinel()
}

func (n Normalizer) close(s string) Token {
	if len(n.Known) == 0 {
		return Label(s)
	}
	for _, k := range n.Known {
		if n.key(k) == s {
			return Label(k)
		}
	}
	if n.Fallback != "" {
		return Label(n.Fallback)
	}
	return Label(s)
}

// foldAccents builds a fresh chain per call; chained transformers keep state.
func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// clean repairs invalid UTF-8, composes the text to NFC and applies casing.
func (n Normalizer) clean(raw string) string {
	s := raw
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	s = norm.NFC.String(s)
	switch n.Case {
	case CaseLower:
		s = strings.ToLower(s)
	case CaseFold:
		if folded, _, err := transform.String(foldAccents(), strings.ToLower(s)); err == nil {
			s = folded
		} else {
			s = strings.ToLower(s)
		}
	}
	return s
}

// key is the comparable form of a label under this normalizer.
func (n Normalizer) key(s string) string {
	s = n.clean(s)
	if n.Scalar {
		return strings.TrimSpace(s)
	}
	return stripSpace(s)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
