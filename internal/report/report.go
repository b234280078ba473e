package report

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/surveyloom-cli/internal/survey"
)

// Report is the rendered outcome of one analysis run.
type Report struct {
	ID           string               `json:"id"`
	Title        string               `json:"title,omitempty"`
	Generated    time.Time            `json:"generated"`
	Inputs       []InputSummary       `json:"inputs,omitempty"`
	Joins        []JoinSummary        `json:"joins,omitempty"`
	Columns      []ColumnsSection     `json:"columns,omitempty"`
	Frequencies  []FrequencySection   `json:"frequencies,omitempty"`
	Shares       []ShareSection       `json:"shares,omitempty"`
	Grouped      []GroupedSection     `json:"grouped_frequencies,omitempty"`
	CrossTabs    []CrossTabSection    `json:"crosstabs,omitempty"`
	Scores       []ScoreSection       `json:"scores,omitempty"`
	Means        []MeansSection       `json:"means,omitempty"`
	Pivots       []PivotSection       `json:"pivots,omitempty"`
	Correlations []CorrelationSection `json:"correlations,omitempty"`
	Warnings     []string             `json:"warnings,omitempty"`
}

// New returns an empty report with a fresh run id.
func New(title string) *Report {
	return &Report{ID: uuid.NewString(), Title: title, Generated: time.Now().UTC()}
}

// Warn records a note shown at the end of the report.
func (r *Report) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

type InputSummary struct {
	Name    string   `json:"name"`
	Path    string   `json:"path"`
	Records int      `json:"records"`
	Columns []string `json:"columns"`
	Key     string   `json:"key,omitempty"`
}

// Input summarizes a loaded table.
func Input(path string, t *survey.Table) InputSummary {
	return InputSummary{Name: t.Name, Path: path, Records: t.Len(), Columns: t.Columns, Key: t.Key}
}

type JoinSummary struct {
	Left      string            `json:"left"`
	Right     string            `json:"right"`
	Key       string            `json:"key"`
	Matched   int               `json:"matched"`
	Unmatched int               `json:"unmatched"`
	FanOut    int               `json:"fan_out"`
	Renamed   map[string]string `json:"renamed,omitempty"`
}

// Join summarizes one join step.
func Join(left, right, key string, st survey.JoinStats) JoinSummary {
	return JoinSummary{Left: left, Right: right, Key: key, Matched: st.Matched, Unmatched: st.Unmatched, FanOut: st.FanOut, Renamed: st.Renamed}
}

type ColumnProfile struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Present int      `json:"present"`
	Missing int      `json:"missing"`
	Unique  int      `json:"unique"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Mean    *float64 `json:"mean,omitempty"`
	Median  *float64 `json:"median,omitempty"`
	Top     []string `json:"top,omitempty"`
}

type ColumnsSection struct {
	Table   string          `json:"table"`
	Records int             `json:"records"`
	Columns []ColumnProfile `json:"columns"`
}

// Columns converts column profiles; Top entries read "value (count)".
func Columns(t *survey.Table, profiles []survey.ColumnProfile) ColumnsSection {
	s := ColumnsSection{Table: t.Name, Records: t.Len()}
	for _, p := range profiles {
		c := ColumnProfile{Name: p.Name, Kind: p.Kind, Present: p.Present, Missing: p.Missing, Unique: p.Unique}
		if p.Kind == survey.KindNameNumeric {
			c.Min, c.Max, c.Mean, c.Median = ptr(p.Min), ptr(p.Max), ptr(p.Mean), ptr(p.Median)
		}
		for _, vc := range p.Top {
			c.Top = append(c.Top, fmt.Sprintf("%s (%d)", vc.Value, vc.Count))
		}
		s.Columns = append(s.Columns, c)
	}
	return s
}

type FrequencyRow struct {
	Label       string  `json:"label"`
	Sentinel    bool    `json:"sentinel,omitempty"`
	Occurrences int     `json:"occurrences"`
	Records     int     `json:"records"`
	Share       float64 `json:"share"`
}

type FrequencySection struct {
	Title   string         `json:"title"`
	Field   string         `json:"field"`
	Records int            `json:"records"`
	Rows    []FrequencyRow `json:"rows"`
	// Hidden counts categories cut by a top-N limit.
	Hidden int `json:"hidden,omitempty"`
}

// Frequencies converts a frequency table, keeping the top n rows (n <= 0
// keeps all).
func Frequencies(title string, f *survey.Frequency, n int) FrequencySection {
	counts := f.Top(n)
	s := FrequencySection{Title: title, Field: f.Field, Records: f.Records, Hidden: len(f.Counts) - len(counts)}
	for _, c := range counts {
		s.Rows = append(s.Rows, FrequencyRow{Label: c.Token.String(), Sentinel: c.Token.IsSentinel(), Occurrences: c.Occurrences, Records: c.Records, Share: c.Share})
	}
	return s
}

type ShareRow struct {
	Category string  `json:"category"`
	Records  int     `json:"records"`
	Share    float64 `json:"share"`
}

type ShareSection struct {
	Title   string     `json:"title"`
	Field   string     `json:"field"`
	Match   string     `json:"match"`
	Records int        `json:"records"`
	Rows    []ShareRow `json:"rows"`
}

// Shares converts per-category shares.
func Shares(title, field string, mode survey.MatchMode, records int, shares []survey.CategoryShare) ShareSection {
	s := ShareSection{Title: title, Field: field, Match: mode.String(), Records: records}
	for _, c := range shares {
		s.Rows = append(s.Rows, ShareRow{Category: c.Category.String(), Records: c.Records, Share: c.Share})
	}
	return s
}

type GroupFrequency struct {
	Group   string         `json:"group"`
	Records int            `json:"records"`
	Rows    []FrequencyRow `json:"rows"`
}

type GroupedSection struct {
	Title      string           `json:"title"`
	Field      string           `json:"field"`
	GroupField string           `json:"group_field"`
	Groups     []GroupFrequency `json:"groups"`
}

// Grouped converts per-group frequencies, keeping the top n rows of each.
func Grouped(title, field, groupField string, groups []survey.GroupFrequency, n int) GroupedSection {
	s := GroupedSection{Title: title, Field: field, GroupField: groupField}
	for _, g := range groups {
		fs := Frequencies("", g.Frequency, n)
		s.Groups = append(s.Groups, GroupFrequency{Group: g.Group.String(), Records: g.Frequency.Records, Rows: fs.Rows})
	}
	return s
}

type CrossTabSection struct {
	Title     string   `json:"title"`
	RowField  string   `json:"row_field"`
	ColField  string   `json:"col_field"`
	Normalize string   `json:"normalize"`
	Rows      []string `json:"rows"`
	Cols      []string `json:"cols"`
	Counts    [][]int  `json:"counts"`
	// Proportions is set when Normalize is not "none".
	Proportions [][]float64 `json:"proportions,omitempty"`
}

// CrossTab converts a contingency table.
func CrossTab(title string, ct *survey.CrossTab, mode survey.Normalization) CrossTabSection {
	s := CrossTabSection{
		Title: title, RowField: ct.RowField, ColField: ct.ColField, Normalize: mode.String(),
		Rows: labels(ct.Rows), Cols: labels(ct.Cols), Counts: ct.Counts,
	}
	if mode != survey.NormalizeNone {
		s.Proportions = ct.Proportions(mode)
	}
	return s
}

type ScoreRow struct {
	ID          string   `json:"id"`
	Value       float64  `json:"value"`
	Substituted []string `json:"substituted,omitempty"`
}

type ScoreSection struct {
	Title string     `json:"title"`
	Name  string     `json:"name"`
	Kind  string     `json:"kind"`
	Rows  []ScoreRow `json:"rows"`
	Min   float64    `json:"min"`
	Max   float64    `json:"max"`
	Mean  float64    `json:"mean"`
	// Distribution counts records per score value, ascending.
	Distribution []ValueCount `json:"distribution"`
}

type ValueCount struct {
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// Score converts computed scores and summarizes their distribution.
func Score(title string, s survey.Score, rows []survey.ScoreRow) ScoreSection {
	sec := ScoreSection{Title: title, Name: s.Name, Kind: string(s.Kind)}
	dist := map[float64]int{}
	sum := 0.0
	for i, r := range rows {
		sec.Rows = append(sec.Rows, ScoreRow{ID: r.ID, Value: r.Value, Substituted: r.Substituted})
		if i == 0 || r.Value < sec.Min {
			sec.Min = r.Value
		}
		if i == 0 || r.Value > sec.Max {
			sec.Max = r.Value
		}
		sum += r.Value
		dist[r.Value]++
	}
	if len(rows) > 0 {
		sec.Mean = sum / float64(len(rows))
	}
	for v, n := range dist {
		sec.Distribution = append(sec.Distribution, ValueCount{Value: v, Count: n})
	}
	sort.Slice(sec.Distribution, func(i, j int) bool { return sec.Distribution[i].Value < sec.Distribution[j].Value })
	return sec
}

type MeanRow struct {
	Group   string `json:"group"`
	Records int    `json:"records"`
	// Means is nil for a field with no numeric value in the group.
	Means []*float64 `json:"means"`
}

type MeansSection struct {
	Title      string    `json:"title"`
	GroupField string    `json:"group_field"`
	Fields     []string  `json:"fields"`
	Rows       []MeanRow `json:"rows"`
}

// Means converts per-group means; Fields fixes the column order.
func Means(title, groupField string, fields []string, groups []survey.GroupMean) MeansSection {
	s := MeansSection{Title: title, GroupField: groupField, Fields: fields}
	for _, g := range groups {
		row := MeanRow{Group: g.Group.String(), Records: g.Records, Means: make([]*float64, len(fields))}
		for i, f := range fields {
			if m, ok := g.Metrics[f]; ok && m.Count > 0 {
				row.Means[i] = ptr(m.Mean)
			}
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

type PivotSection struct {
	Title    string       `json:"title"`
	RowField string       `json:"row_field"`
	ColField string       `json:"col_field"`
	Value    string       `json:"value"`
	Rows     []string     `json:"rows"`
	Cols     []string     `json:"cols"`
	Means    [][]*float64 `json:"means"`
	Counts   [][]int      `json:"counts"`
}

// Pivot converts a pivot of means; empty cells become null.
func Pivot(title string, p *survey.Pivot) PivotSection {
	s := PivotSection{Title: title, RowField: p.RowField, ColField: p.ColField, Value: p.Value, Rows: labels(p.Rows), Cols: labels(p.Cols), Counts: p.Counts}
	s.Means = make([][]*float64, len(p.Means))
	for i, row := range p.Means {
		s.Means[i] = make([]*float64, len(row))
		for j, m := range row {
			if !math.IsNaN(m) {
				s.Means[i][j] = ptr(m)
			}
		}
	}
	return s
}

type CorrelationSection struct {
	Title string  `json:"title"`
	X     string  `json:"x"`
	Y     string  `json:"y"`
	N     int     `json:"n"`
	R     float64 `json:"r"`
}

// Correlation converts a Pearson coefficient.
func Correlation(title string, c survey.Correlation) CorrelationSection {
	return CorrelationSection{Title: title, X: c.X, Y: c.Y, N: c.N, R: c.R}
}

func labels(ts []survey.Token) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.String()
	}
	return out
}

func ptr(f float64) *float64 { return &f }
