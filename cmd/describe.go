package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyloom-cli/internal/report"
	"github.com/KaramelBytes/surveyloom-cli/internal/survey"
)

var (
	describeIn     inputFlags
	describeDelims string
	describeTop    int
	describeFormat string
	describeOutput string
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Profile every column of a survey file",
	Long: `Profile every column of a survey file: inferred kind, missing cells,
distinct values, numeric summary and the most frequent values. Use it to decide
which fields to treat as multi-valued before writing a plan.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := describeIn.load(cmd, args[0])
		if err != nil {
			return err
		}
		delims := describeDelims
		if delims == "" {
			delims = settings().Delimiters
		}
		profiles := survey.Describe(t, survey.DescribeOptions{Delimiters: delims, Top: describeTop})
		rep := report.New("")
		rep.Inputs = append(rep.Inputs, report.Input(args[0], t))
		rep.Columns = append(rep.Columns, report.Columns(t, profiles))
		return renderReport(cmd, rep, describeFormat, describeOutput)
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeIn.register(describeCmd)
	describeCmd.Flags().StringVar(&describeDelims, "delimiters", "", "characters marking multi-valued cells (overrides config)")
	describeCmd.Flags().IntVar(&describeTop, "top", 5, "most frequent values to list per column")
	describeCmd.Flags().StringVar(&describeFormat, "format", "", "output format: markdown|text|json")
	describeCmd.Flags().StringVarP(&describeOutput, "output", "o", "", "optional path to write the result")
}
