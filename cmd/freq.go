package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyloom-cli/internal/report"
	"github.com/KaramelBytes/surveyloom-cli/internal/survey"
)

var (
	freqIn     inputFlags
	freqNorm   fieldFlags
	freqField  string
	freqShares []string
	freqMatch  string
	freqTop    int
	freqFormat string
	freqOutput string
)

var freqCmd = &cobra.Command{
	Use:   "freq <file>",
	Short: "Count the categories of one field",
	Long: `Count the categories of one field. Multi-valued cells are split on the
configured delimiters; every record counts once per distinct category and
percentages use the number of records as the base.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, ok := survey.ParseMatchMode(freqMatch)
		if !ok {
			return fmt.Errorf("unsupported --match: %s (use exact or substring)", freqMatch)
		}
		n, err := freqNorm.normalizer()
		if err != nil {
			return err
		}
		t, err := freqIn.load(cmd, args[0])
		if err != nil {
			return err
		}
		members, err := survey.Memberships(t, survey.Field(freqField, n))
		if err != nil {
			return err
		}
		f := survey.Frequencies(members)
		f.Field = freqField

		top := freqTop
		if !cmd.Flags().Changed("top") {
			top = settings().TopN
		}
		rep := report.New("")
		rep.Inputs = append(rep.Inputs, report.Input(args[0], t))
		rep.Frequencies = append(rep.Frequencies, report.Frequencies("", f, top))
		if len(freqShares) > 0 {
			shares := survey.Shares(members, n.Tokens(freqShares...), mode)
			rep.Shares = append(rep.Shares, report.Shares("", freqField, mode, len(members), shares))
		}
		return renderReport(cmd, rep, freqFormat, freqOutput)
	},
}

func init() {
	rootCmd.AddCommand(freqCmd)
	freqIn.register(freqCmd)
	freqCmd.Flags().StringVar(&freqField, "field", "", "field to count (required)")
	freqCmd.Flags().StringVar(&freqNorm.delimiters, "delimiters", "", "characters splitting multi-valued cells (overrides config)")
	freqCmd.Flags().StringVar(&freqNorm.caseMode, "case", "", "token case: preserve|lower|fold (overrides config)")
	freqCmd.Flags().BoolVar(&freqNorm.scalar, "scalar", false, "treat the field as single-valued")
	freqCmd.Flags().StringVar(&freqNorm.sentinel, "sentinel", "", "label for empty cells (overrides config)")
	freqCmd.Flags().StringArrayVar(&freqShares, "share", nil, "category whose share of records to report (repeatable)")
	freqCmd.Flags().StringVar(&freqMatch, "match", "exact", "share matching: exact|substring")
	freqCmd.Flags().IntVar(&freqTop, "top", 0, "show only the N most frequent categories (0 = all; default from config)")
	freqCmd.Flags().StringVar(&freqFormat, "format", "", "output format: markdown|text|json")
	freqCmd.Flags().StringVarP(&freqOutput, "output", "o", "", "optional path to write the result")
	_ = freqCmd.MarkFlagRequired("field")
}
