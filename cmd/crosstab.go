package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyloom-cli/internal/report"
	"github.com/KaramelBytes/surveyloom-cli/internal/survey"
)

var (
	ctIn        inputFlags
	ctRowNorm   fieldFlags
	ctColNorm   fieldFlags
	ctRows      string
	ctCols      string
	ctNormalize string
	ctRowOrder  []string
	ctColOrder  []string
	ctTranspose bool
	ctFormat    string
	ctOutput    string
)

var crosstabCmd = &cobra.Command{
	Use:   "crosstab <file>",
	Short: "Cross-tabulate two fields",
	Long: `Cross-tabulate two fields. Both fields are exploded jointly, so a record
citing two categories on each side contributes to four cells.

Axis orders are repeatable flags since labels may contain commas:
  surveyloom crosstab data.csv --rows conseils --cols issue --cols-scalar \
    --col-order "Succès" --col-order "Échec (abandon, gel, oubli)"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, ok := survey.ParseNormalization(ctNormalize)
		if !ok {
			return fmt.Errorf("unsupported --normalize: %s (use none, row, column or all)", ctNormalize)
		}
		rn, err := ctRowNorm.normalizer()
		if err != nil {
			return err
		}
		ctColNorm.delimiters, ctColNorm.caseMode, ctColNorm.sentinel = ctRowNorm.delimiters, ctRowNorm.caseMode, ctRowNorm.sentinel
		cn, err := ctColNorm.normalizer()
		if err != nil {
			return err
		}
		t, err := ctIn.load(cmd, args[0])
		if err != nil {
			return err
		}
		opt := survey.CrossTabOptions{RowOrder: rn.Tokens(ctRowOrder...), ColOrder: cn.Tokens(ctColOrder...)}
		ct, err := survey.CrossTabulate(t, survey.Field(ctRows, rn), survey.Field(ctCols, cn), opt)
		if err != nil {
			return err
		}
		if ctTranspose {
			ct = ct.Transpose()
		}
		rep := report.New("")
		rep.Inputs = append(rep.Inputs, report.Input(args[0], t))
		rep.CrossTabs = append(rep.CrossTabs, report.CrossTab("", ct, mode))
		return renderReport(cmd, rep, ctFormat, ctOutput)
	},
}

func init() {
	rootCmd.AddCommand(crosstabCmd)
	ctIn.register(crosstabCmd)
	f := crosstabCmd.Flags()
	f.StringVar(&ctRows, "rows", "", "row field (required)")
	f.StringVar(&ctCols, "cols", "", "column field (required)")
	f.StringVar(&ctNormalize, "normalize", "none", "proportions: none|row|column|all")
	f.StringArrayVar(&ctRowOrder, "row-order", nil, "row label in display order (repeatable)")
	f.StringArrayVar(&ctColOrder, "col-order", nil, "column label in display order (repeatable)")
	f.BoolVar(&ctRowNorm.scalar, "rows-scalar", false, "treat the row field as single-valued")
	f.BoolVar(&ctColNorm.scalar, "cols-scalar", false, "treat the column field as single-valued")
	f.StringVar(&ctRowNorm.delimiters, "delimiters", "", "characters splitting multi-valued cells (overrides config)")
	f.StringVar(&ctRowNorm.caseMode, "case", "", "token case: preserve|lower|fold (overrides config)")
	f.StringVar(&ctRowNorm.sentinel, "sentinel", "", "label for empty cells (overrides config)")
	f.BoolVar(&ctTranspose, "transpose", false, "swap rows and columns in the output")
	f.StringVar(&ctFormat, "format", "", "output format: markdown|text|json")
	f.StringVarP(&ctOutput, "output", "o", "", "optional path to write the result")
	_ = crosstabCmd.MarkFlagRequired("rows")
	_ = crosstabCmd.MarkFlagRequired("cols")
}
