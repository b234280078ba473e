package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyloom-cli/internal/plan"
)

var schemaOutput string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of analysis plan files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := plan.Schema()
		if err != nil {
			return err
		}
		return emit(cmd, schemaOutput, b, "schema")
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "optional path to write the schema")
}
