// Package plan reads YAML analysis plans and runs them against survey tables.
package plan

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Plan declares the inputs of a survey analysis and the sections of its
// report. Analyses run on the working table: the joined table when Join is
// set, the first input otherwise.
type Plan struct {
	Title  string      `yaml:"title,omitempty" json:"title,omitempty" jsonschema:"description=Report title"`
	Inputs []InputSpec `yaml:"inputs" json:"inputs" jsonschema:"required,minItems=1"`
	Join   *JoinSpec   `yaml:"join,omitempty" json:"join,omitempty"`

	// Fields configures the normalizer of named fields. Unlisted fields are
	// multi-valued with the configured delimiters.
	Fields map[string]FieldConfig `yaml:"fields,omitempty" json:"fields,omitempty"`

	// Derived columns, applied in this order.
	Recodes []RecodeSpec `yaml:"recodes,omitempty" json:"recodes,omitempty"`
	Flags   []FlagSpec   `yaml:"flags,omitempty" json:"flags,omitempty"`
	Scores  []ScoreSpec  `yaml:"scores,omitempty" json:"scores,omitempty"`
	Bins    []BinSpec    `yaml:"bins,omitempty" json:"bins,omitempty"`

	Frequencies  []FrequencySpec   `yaml:"frequencies,omitempty" json:"frequencies,omitempty"`
	Grouped      []GroupedSpec     `yaml:"grouped_frequencies,omitempty" json:"grouped_frequencies,omitempty"`
	CrossTabs    []CrossTabSpec    `yaml:"crosstabs,omitempty" json:"crosstabs,omitempty"`
	Means        []MeansSpec       `yaml:"means,omitempty" json:"means,omitempty"`
	Pivots       []PivotSpec       `yaml:"pivots,omitempty" json:"pivots,omitempty"`
	Correlations []CorrelationSpec `yaml:"correlations,omitempty" json:"correlations,omitempty"`

	// Describe adds a profile of every column of the working table.
	Describe bool `yaml:"describe,omitempty" json:"describe,omitempty"`
	// Format overrides the configured output format.
	Format string `yaml:"format,omitempty" json:"format,omitempty" jsonschema:"enum=markdown,enum=text,enum=json"`
	// TopN overrides the configured frequency row limit; 0 keeps all rows.
	TopN *int `yaml:"top_n,omitempty" json:"top_n,omitempty" jsonschema:"minimum=0"`

	dir string
}

// InputSpec names one tabular file.
type InputSpec struct {
	Name string `yaml:"name,omitempty" json:"name,omitempty" jsonschema:"description=Table name used by joins; defaults to the file name"`
	// Path is relative to the plan file.
	Path       string `yaml:"path" json:"path" jsonschema:"required"`
	Key        string `yaml:"key,omitempty" json:"key,omitempty" jsonschema:"description=Identifier field"`
	Delimiter  string `yaml:"delimiter,omitempty" json:"delimiter,omitempty" jsonschema:"description=CSV delimiter; sniffed when empty"`
	Encoding   string `yaml:"encoding,omitempty" json:"encoding,omitempty"`
	Decimal    string `yaml:"decimal,omitempty" json:"decimal,omitempty" jsonschema:"description=Decimal separator; auto-detected when empty"`
	Sheet      string `yaml:"sheet,omitempty" json:"sheet,omitempty"`
	SheetIndex int    `yaml:"sheet_index,omitempty" json:"sheet_index,omitempty" jsonschema:"minimum=0"`
	Table      string `yaml:"table,omitempty" json:"table,omitempty" jsonschema:"description=SQLite table"`
	Query      string `yaml:"query,omitempty" json:"query,omitempty" jsonschema:"description=SQLite query"`
}

// JoinSpec chains secondary inputs onto a primary one.
type JoinSpec struct {
	Primary string         `yaml:"primary,omitempty" json:"primary,omitempty" jsonschema:"description=Primary input name; defaults to the first input"`
	Key     string         `yaml:"key" json:"key" jsonschema:"required"`
	Inner   bool           `yaml:"inner,omitempty" json:"inner,omitempty" jsonschema:"description=Drop primary records without a match"`
	Steps   []JoinStepSpec `yaml:"steps" json:"steps" jsonschema:"required,minItems=1"`
}

// JoinStepSpec is one secondary input of a join.
type JoinStepSpec struct {
	Input  string `yaml:"input" json:"input" jsonschema:"required"`
	Suffix string `yaml:"suffix,omitempty" json:"suffix,omitempty"`
}

// FieldConfig configures how one field is tokenized.
type FieldConfig struct {
	Scalar     bool   `yaml:"scalar,omitempty" json:"scalar,omitempty"`
	Delimiters string `yaml:"delimiters,omitempty" json:"delimiters,omitempty"`
	Case       string `yaml:"case,omitempty" json:"case,omitempty" jsonschema:"enum=preserve,enum=lower,enum=fold"`
	// Known closes the vocabulary; it is also the default display order.
	Known    []string `yaml:"known,omitempty" json:"known,omitempty"`
	Fallback string   `yaml:"fallback,omitempty" json:"fallback,omitempty"`
	// Outcome uses the configured outcome labels and fallback.
	Outcome  bool     `yaml:"outcome,omitempty" json:"outcome,omitempty"`
	Order    []string `yaml:"order,omitempty" json:"order,omitempty"`
	Sentinel string   `yaml:"sentinel,omitempty" json:"sentinel,omitempty" jsonschema:"description=Label for empty cells"`
}

// RecodeSpec maps text buckets of a field to numbers.
type RecodeSpec struct {
	Field string             `yaml:"field" json:"field" jsonschema:"required"`
	Into  string             `yaml:"into" json:"into" jsonschema:"required"`
	Map   map[string]float64 `yaml:"map" json:"map" jsonschema:"required"`
}

// BinSpec labels numeric intervals (edges[i], edges[i+1]].
type BinSpec struct {
	Field  string    `yaml:"field" json:"field" jsonschema:"required"`
	Into   string    `yaml:"into" json:"into" jsonschema:"required"`
	Edges  []float64 `yaml:"edges" json:"edges" jsonschema:"required,minItems=2"`
	Labels []string  `yaml:"labels" json:"labels" jsonschema:"required,minItems=1"`
}

// PredicateSpec is one boolean test. Contains and not_contains read Values,
// equals reads Value, numeric comparisons read Number.
type PredicateSpec struct {
	Field  string   `yaml:"field" json:"field" jsonschema:"required"`
	Op     string   `yaml:"op" json:"op" jsonschema:"required,enum=contains,enum=not_contains,enum=equals,enum=gt,enum=ge,enum=lt,enum=le,enum=eq,enum=ne"`
	Values []string `yaml:"values,omitempty" json:"values,omitempty"`
	Value  string   `yaml:"value,omitempty" json:"value,omitempty"`
	Number *float64 `yaml:"number,omitempty" json:"number,omitempty"`
}

// FlagSpec derives a "true"/"false" column from predicates.
type FlagSpec struct {
	Name       string          `yaml:"name" json:"name" jsonschema:"required"`
	Match      string          `yaml:"match,omitempty" json:"match,omitempty" jsonschema:"enum=all,enum=any"`
	Predicates []PredicateSpec `yaml:"predicates" json:"predicates" jsonschema:"required,minItems=1"`
}

// TermSpec is one weighted input of a weighted score.
type TermSpec struct {
	Field  string  `yaml:"field" json:"field" jsonschema:"required"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// ScoreSpec declares a composite score. The score is added to the working
// table as a numeric column and reported as its own section.
type ScoreSpec struct {
	Title      string          `yaml:"title,omitempty" json:"title,omitempty"`
	Name       string          `yaml:"name" json:"name" jsonschema:"required"`
	Kind       string          `yaml:"kind" json:"kind" jsonschema:"required,enum=sum,enum=weighted,enum=predicates"`
	Fields     []string        `yaml:"fields,omitempty" json:"fields,omitempty"`
	Terms      []TermSpec      `yaml:"terms,omitempty" json:"terms,omitempty"`
	Predicates []PredicateSpec `yaml:"predicates,omitempty" json:"predicates,omitempty"`
	Hidden     bool            `yaml:"hidden,omitempty" json:"hidden,omitempty" jsonschema:"description=Add the column without a report section"`
}

// FrequencySpec reports a token frequency table and optional shares.
type FrequencySpec struct {
	Title  string   `yaml:"title,omitempty" json:"title,omitempty"`
	Field  string   `yaml:"field" json:"field" jsonschema:"required"`
	Top    *int     `yaml:"top,omitempty" json:"top,omitempty" jsonschema:"minimum=0"`
	Shares []string `yaml:"shares,omitempty" json:"shares,omitempty"`
	Match  string   `yaml:"match,omitempty" json:"match,omitempty" jsonschema:"enum=exact,enum=substring"`
}

// GroupedSpec reports frequencies of Field within each category of By.
type GroupedSpec struct {
	Title string   `yaml:"title,omitempty" json:"title,omitempty"`
	Field string   `yaml:"field" json:"field" jsonschema:"required"`
	By    string   `yaml:"by" json:"by" jsonschema:"required"`
	Top   *int     `yaml:"top,omitempty" json:"top,omitempty" jsonschema:"minimum=0"`
	Order []string `yaml:"order,omitempty" json:"order,omitempty"`
}

// CrossTabSpec reports a contingency table.
type CrossTabSpec struct {
	Title     string   `yaml:"title,omitempty" json:"title,omitempty"`
	Rows      string   `yaml:"rows" json:"rows" jsonschema:"required"`
	Cols      string   `yaml:"cols" json:"cols" jsonschema:"required"`
	Normalize string   `yaml:"normalize,omitempty" json:"normalize,omitempty" jsonschema:"enum=none,enum=row,enum=column,enum=all"`
	RowOrder  []string `yaml:"row_order,omitempty" json:"row_order,omitempty"`
	ColOrder  []string `yaml:"col_order,omitempty" json:"col_order,omitempty"`
	Transpose bool     `yaml:"transpose,omitempty" json:"transpose,omitempty"`
}

// MeansSpec reports numeric means per category of By.
type MeansSpec struct {
	Title  string   `yaml:"title,omitempty" json:"title,omitempty"`
	By     string   `yaml:"by" json:"by" jsonschema:"required"`
	Fields []string `yaml:"fields" json:"fields" jsonschema:"required,minItems=1"`
	Order  []string `yaml:"order,omitempty" json:"order,omitempty"`
}

// PivotSpec reports the mean of Value per (Rows, Cols) pair.
type PivotSpec struct {
	Title    string   `yaml:"title,omitempty" json:"title,omitempty"`
	Rows     string   `yaml:"rows" json:"rows" jsonschema:"required"`
	Cols     string   `yaml:"cols" json:"cols" jsonschema:"required"`
	Value    string   `yaml:"value" json:"value" jsonschema:"required"`
	RowOrder []string `yaml:"row_order,omitempty" json:"row_order,omitempty"`
	ColOrder []string `yaml:"col_order,omitempty" json:"col_order,omitempty"`
}

// CorrelationSpec reports a Pearson coefficient.
type CorrelationSpec struct {
	Title string `yaml:"title,omitempty" json:"title,omitempty"`
	X     string `yaml:"x" json:"x" jsonschema:"required"`
	Y     string `yaml:"y" json:"y" jsonschema:"required"`
}

// Load reads and validates a plan file. Unknown keys are rejected.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", filepath.Base(path), err)
	}
	p.dir = filepath.Dir(path)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Parse decodes a plan without validating it. Relative input paths resolve
// against the working directory.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// InputPath resolves an input path against the plan's directory.
func (p *Plan) InputPath(in InputSpec) string {
	if filepath.IsAbs(in.Path) || p.dir == "" {
		return in.Path
	}
	return filepath.Join(p.dir, in.Path)
}

// InputName returns the declared name or the file name without extension.
func InputName(in InputSpec) string {
	if strings.TrimSpace(in.Name) != "" {
		return in.Name
	}
	base := filepath.Base(in.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
