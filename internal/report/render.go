package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/surveyloom-cli/internal/utils"
)

// Render returns the report in the requested format.
func (r *Report) Render(f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return utils.PrettyJSON(r)
	case FormatText:
		return []byte(r.render(FormatText)), nil
	default:
		return []byte(r.render(FormatMarkdown)), nil
	}
}

// Markdown renders the report with GitHub-flavoured tables.
func (r *Report) Markdown() string { return r.render(FormatMarkdown) }

// Text renders the report with box-drawn terminal tables.
func (r *Report) Text() string { return r.render(FormatText) }

func (r *Report) render(f Format) string {
	var b strings.Builder
	b.WriteString("[SURVEY REPORT]\n")
	if r.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", r.Title)
	}
	fmt.Fprintf(&b, "Run: %s\n", r.ID)
	if !r.Generated.IsZero() {
		fmt.Fprintf(&b, "Generated: %s\n", r.Generated.Format("2006-01-02 15:04:05 UTC"))
	}

	if len(r.Inputs) > 0 {
		b.WriteString("\n[INPUTS]\n")
		g := newGrid(f)
		g.header("Table", "Path", "Records", "Columns", "Key")
		for _, in := range r.Inputs {
			g.row(in.Name, in.Path, in.Records, len(in.Columns), in.Key)
		}
		g.alignRight(3, 4)
		section(&b, g)
	}

	if len(r.Joins) > 0 {
		b.WriteString("\n[JOINS]\n")
		g := newGrid(f)
		g.header("Left", "Right", "Key", "Matched", "Unmatched", "Fan-out")
		for _, j := range r.Joins {
			g.row(j.Left, j.Right, j.Key, j.Matched, j.Unmatched, j.FanOut)
		}
		g.alignRight(4, 5, 6)
		section(&b, g)
		for _, j := range r.Joins {
			srcs := make([]string, 0, len(j.Renamed))
			for src := range j.Renamed {
				srcs = append(srcs, src)
			}
			sort.Strings(srcs)
			for _, src := range srcs {
				fmt.Fprintf(&b, "- %s.%s renamed to %s\n", j.Right, src, j.Renamed[src])
			}
		}
	}

	for _, s := range r.Columns {
		fmt.Fprintf(&b, "\n[COLUMNS] %s\n", s.Table)
		fmt.Fprintf(&b, "Records: %d\n", s.Records)
		g := newGrid(f)
		g.header("Column", "Kind", "Present", "Missing", "Unique", "Summary")
		for _, c := range s.Columns {
			g.row(safeVal(c.Name), c.Kind, c.Present, c.Missing, c.Unique, safeVal(columnSummary(c)))
		}
		g.alignRight(3, 4, 5)
		section(&b, g)
	}

	for _, s := range r.Frequencies {
		fmt.Fprintf(&b, "\n[FREQUENCIES] %s\n", heading(s.Title, s.Field))
		fmt.Fprintf(&b, "Field: %s, records: %d\n", s.Field, s.Records)
		section(&b, frequencyGrid(f, s.Rows))
		if s.Hidden > 0 {
			fmt.Fprintf(&b, "(%d more categories not shown)\n", s.Hidden)
		}
	}

	for _, s := range r.Shares {
		fmt.Fprintf(&b, "\n[SHARES] %s\n", heading(s.Title, s.Field))
		fmt.Fprintf(&b, "Field: %s, records: %d, match: %s\n", s.Field, s.Records, s.Match)
		g := newGrid(f)
		g.header("Category", "Records", "Share")
		for _, row := range s.Rows {
			g.row(safeVal(row.Category), row.Records, pct(row.Share))
		}
		g.alignRight(2, 3)
		section(&b, g)
	}

	for _, s := range r.Grouped {
		fmt.Fprintf(&b, "\n[GROUPED FREQUENCIES] %s\n", heading(s.Title, s.Field+" by "+s.GroupField))
		for _, grp := range s.Groups {
			fmt.Fprintf(&b, "- %s (n=%d)\n", safeVal(grp.Group), grp.Records)
			if len(grp.Rows) == 0 {
				continue
			}
			section(&b, frequencyGrid(f, grp.Rows))
		}
	}

	for _, s := range r.CrossTabs {
		fmt.Fprintf(&b, "\n[CROSS-TABULATION] %s\n", heading(s.Title, s.RowField+" x "+s.ColField))
		fmt.Fprintf(&b, "Rows: %s, columns: %s, normalize: %s\n", s.RowField, s.ColField, s.Normalize)
		section(&b, crossTabGrid(f, s))
	}

	for _, s := range r.Scores {
		fmt.Fprintf(&b, "\n[SCORE] %s\n", heading(s.Title, s.Name))
		fmt.Fprintf(&b, "Kind: %s, records: %d, min %s, max %s, mean %.2f\n", s.Kind, len(s.Rows), num(s.Min), num(s.Max), s.Mean)
		g := newGrid(f)
		g.header("Score", "Records")
		for _, d := range s.Distribution {
			g.row(num(d.Value), d.Count)
		}
		g.alignRight(1, 2)
		section(&b, g)
		substituted := 0
		for _, row := range s.Rows {
			if len(row.Substituted) > 0 {
				substituted++
			}
		}
		if substituted > 0 {
			fmt.Fprintf(&b, "(%d records had missing inputs counted as 0)\n", substituted)
		}
	}

	for _, s := range r.Means {
		fmt.Fprintf(&b, "\n[GROUP MEANS] %s\n", heading(s.Title, "by "+s.GroupField))
		g := newGrid(f)
		head := append([]string{s.GroupField, "n"}, s.Fields...)
		g.header(head...)
		for _, row := range s.Rows {
			vals := []any{safeVal(row.Group), row.Records}
			for _, m := range row.Means {
				vals = append(vals, optNum(m))
			}
			g.row(vals...)
		}
		g.alignRight(seq(2, len(head))...)
		section(&b, g)
	}

	for _, s := range r.Pivots {
		fmt.Fprintf(&b, "\n[PIVOT] %s\n", heading(s.Title, "mean "+s.Value+" by "+s.RowField+" x "+s.ColField))
		g := newGrid(f)
		head := append([]string{s.RowField}, s.Cols...)
		g.header(head...)
		for i, label := range s.Rows {
			vals := []any{safeVal(label)}
			for _, m := range s.Means[i] {
				vals = append(vals, optNum(m))
			}
			g.row(vals...)
		}
		g.alignRight(seq(2, len(head))...)
		section(&b, g)
	}

	if len(r.Correlations) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, c := range r.Correlations {
			fmt.Fprintf(&b, "- %s ~ %s: r=%.3f (n=%d)", c.X, c.Y, c.R, c.N)
			if c.Title != "" {
				fmt.Fprintf(&b, " %s", c.Title)
			}
			b.WriteString("\n")
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func columnSummary(c ColumnProfile) string {
	if c.Mean != nil {
		return fmt.Sprintf("min %s, median %s, mean %.2f, max %s", num(*c.Min), num(*c.Median), *c.Mean, num(*c.Max))
	}
	if len(c.Top) == 0 {
		return ""
	}
	return "top: " + strings.Join(c.Top, "; ")
}

func frequencyGrid(f Format, rows []FrequencyRow) *grid {
	g := newGrid(f)
	g.header("Category", "Occurrences", "Records", "Share")
	for _, row := range rows {
		g.row(safeVal(row.Label), row.Occurrences, row.Records, pct(row.Share))
	}
	g.alignRight(2, 3, 4)
	return g
}

func crossTabGrid(f Format, s CrossTabSection) *grid {
	g := newGrid(f)
	head := append([]string{s.RowField + " \\ " + s.ColField}, s.Cols...)
	head = append(head, "Total")
	g.header(head...)
	colTotals := make([]int, len(s.Cols))
	grand := 0
	for i, label := range s.Rows {
		vals := []any{safeVal(label)}
		rowTotal := 0
		for j, n := range s.Counts[i] {
			if s.Proportions != nil {
				vals = append(vals, pct(s.Proportions[i][j]))
			} else {
				vals = append(vals, n)
			}
			rowTotal += n
			colTotals[j] += n
		}
		grand += rowTotal
		vals = append(vals, rowTotal)
		g.row(vals...)
	}
	foot := []any{"Total"}
	for _, n := range colTotals {
		foot = append(foot, n)
	}
	foot = append(foot, grand)
	g.footer(foot...)
	g.alignRight(seq(2, len(head))...)
	return g
}

func section(b *strings.Builder, g *grid) {
	b.WriteString(g.String())
	b.WriteString("\n")
}

func heading(title, fallback string) string {
	if strings.TrimSpace(title) != "" {
		return title
	}
	return fallback
}

func pct(x float64) string { return strconv.FormatFloat(x*100, 'f', 1, 64) + "%" }

func num(x float64) string { return strconv.FormatFloat(x, 'f', -1, 64) }

func optNum(m *float64) string {
	if m == nil {
		return "-"
	}
	return strconv.FormatFloat(*m, 'f', 2, 64)
}

// seq returns from..to inclusive.
func seq(from, to int) []int {
	var out []int
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
