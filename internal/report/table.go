package report

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// ParseFormat accepts markdown (md), text (ascii) and json.
func ParseFormat(s string) (Format, bool) {
	switch s {
	case "", "markdown", "md":
		return FormatMarkdown, true
	case "text", "ascii", "txt":
		return FormatText, true
	case "json":
		return FormatJSON, true
	default:
		return FormatMarkdown, false
	}
}

// grid wraps a go-pretty writer; numeric columns are right-aligned.
type grid struct {
	w      table.Writer
	format Format
}

func newGrid(f Format) *grid {
	w := table.NewWriter()
	if f == FormatText {
		style := table.StyleLight
		// labels are data; keep their case
		style.Format.Header = text.FormatDefault
		style.Format.Footer = text.FormatDefault
		w.SetStyle(style)
	}
	return &grid{w: w, format: f}
}

func (g *grid) header(cols ...string) {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	g.w.AppendHeader(row)
}

func (g *grid) row(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	g.w.AppendRow(row)
}

func (g *grid) footer(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	g.w.AppendFooter(row)
}

// alignRight right-aligns the given 1-based columns.
func (g *grid) alignRight(cols ...int) {
	cfgs := make([]table.ColumnConfig, len(cols))
	for i, n := range cols {
		cfgs[i] = table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignRight, AlignFooter: text.AlignRight}
	}
	g.w.SetColumnConfigs(cfgs)
}

func (g *grid) String() string {
	if g.format == FormatText {
		return g.w.Render()
	}
	return g.w.RenderMarkdown()
}
