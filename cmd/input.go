package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyloom-cli/internal/plan"
	"github.com/KaramelBytes/surveyloom-cli/internal/report"
	"github.com/KaramelBytes/surveyloom-cli/internal/source"
	"github.com/KaramelBytes/surveyloom-cli/internal/survey"
	"github.com/KaramelBytes/surveyloom-cli/internal/utils"
)

// inputFlags holds the flags shared by commands reading tabular files.
type inputFlags struct {
	delimiter  string
	encoding   string
	decimal    string
	sheetName  string
	sheetIndex int
	sqlTable   string
	sqlQuery   string
	key        string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab' (sniffed if omitted)")
	cmd.Flags().StringVar(&f.encoding, "encoding", "", "text encoding: utf-8 | latin1 | windows-1252 (overrides config)")
	cmd.Flags().StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.' | ',' (auto-detect if omitted)")
	cmd.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name")
	cmd.Flags().IntVar(&f.sheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	cmd.Flags().StringVar(&f.sqlTable, "sql-table", "", "SQLite: table to read")
	cmd.Flags().StringVar(&f.sqlQuery, "sql-query", "", "SQLite: query to read instead of a table")
	cmd.Flags().StringVar(&f.key, "key", "", "identifier field")
}

func (f *inputFlags) options() (source.Options, error) {
	delim, err := plan.ParseDelimiter(f.delimiter)
	if err != nil {
		return source.Options{}, fmt.Errorf("--delimiter: %w", err)
	}
	c := settings()
	enc := f.encoding
	if enc == "" {
		enc = c.Encoding
	}
	dec := f.decimal
	if dec == "" {
		dec = c.DecimalSeparator
	}
	switch dec {
	case "", ".", ",":
	default:
		return source.Options{}, fmt.Errorf("unsupported --decimal: %s (use '.' or ',')", dec)
	}
	return source.Options{
		Key:        f.key,
		Delimiter:  delim,
		Encoding:   enc,
		Sheet:      f.sheetName,
		SheetIndex: f.sheetIndex,
		Table:      f.sqlTable,
		Query:      f.sqlQuery,
		Number:     plan.NumberFormat(dec),
	}, nil
}

func (f *inputFlags) load(cmd *cobra.Command, path string) (*survey.Table, error) {
	opt, err := f.options()
	if err != nil {
		return nil, err
	}
	return source.Load(cmd.Context(), path, opt)
}

// fieldFlags configures the normalizer of one field from the command line.
type fieldFlags struct {
	delimiters string
	caseMode   string
	scalar     bool
	sentinel   string
}

func (f *fieldFlags) normalizer() (survey.Normalizer, error) {
	c := settings()
	delims := f.delimiters
	if delims == "" {
		delims = c.Delimiters
	}
	n := survey.MultiValued(delims)
	n.Scalar = f.scalar
	mode := f.caseMode
	if mode == "" {
		mode = c.CaseMode
	}
	m, ok := survey.ParseCaseMode(mode)
	if !ok {
		return n, fmt.Errorf("unsupported --case: %s (use preserve, lower or fold)", mode)
	}
	n.Case = m
	label := f.sentinel
	if label == "" {
		label = c.SentinelLabel
	}
	if label != "" {
		n.Missing = survey.Sentinel(label)
	}
	return n, nil
}

// outputFormat resolves --format against the configured default.
func outputFormat(flag string) (report.Format, error) {
	v := flag
	if v == "" {
		v = settings().OutputFormat
	}
	f, ok := report.ParseFormat(v)
	if !ok {
		return f, fmt.Errorf("unsupported --format: %s (use markdown, text or json)", v)
	}
	return f, nil
}

// emit writes a rendered result to path, or to stdout when path is empty.
func emit(cmd *cobra.Command, path string, data []byte, what string) error {
	wrote, err := utils.WriteOutput(path, data, cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if wrote {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s to %s\n", what, path)
	} else if len(data) > 0 && data[len(data)-1] != '\n' {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

func renderReport(cmd *cobra.Command, rep *report.Report, format, path string) error {
	f, err := outputFormat(format)
	if err != nil {
		return err
	}
	b, err := rep.Render(f)
	if err != nil {
		return err
	}
	for _, w := range rep.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s\n", w)
	}
	return emit(cmd, path, b, "report")
}
