package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyloom-cli/internal/logging"
	"github.com/KaramelBytes/surveyloom-cli/internal/plan"
)

var (
	anaOutputPath string
	anaFormat     string
	anaTitle      string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <plan.yaml>",
	Short: "Run an analysis plan and render its report",
	Long: `Run an analysis plan: load and join the declared inputs, derive recoded,
flag, score and bin columns, then render frequencies, cross-tabulations,
scores, group means, pivots and correlations.

Run 'surveyloom schema' for the plan file's JSON schema.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := plan.Load(args[0])
		if err != nil {
			return err
		}
		if anaTitle != "" {
			p.Title = anaTitle
		}
		logging.New("cmd").Debug("plan loaded", "path", args[0], "inputs", len(p.Inputs))
		rep, err := plan.Run(cmd.Context(), p, settings())
		if err != nil {
			return fmt.Errorf("run plan: %w", err)
		}
		format := anaFormat
		if format == "" {
			format = p.Format
		}
		return renderReport(cmd, rep, format, anaOutputPath)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
	analyzeCmd.Flags().StringVar(&anaFormat, "format", "", "report format: markdown|text|json (overrides plan and config)")
	analyzeCmd.Flags().StringVar(&anaTitle, "title", "", "report title (overrides plan)")
}
