package cmd

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyloom-cli/internal/logging"
	"github.com/KaramelBytes/surveyloom-cli/internal/survey"
)

var (
	joinIn     inputFlags
	joinSuffix string
	joinInner  bool
	joinOutput string
)

var joinCmd = &cobra.Command{
	Use:   "join <left> <right>",
	Short: "Join two tables on a shared identifier and write CSV",
	Long: `Join two tables on a shared identifier and write the result as CSV.

Every left record appears once. Identifiers match in canonical form, so 7,
"7" and "7.0" are the same respondent. When several right records match, their
distinct values are merged into one comma-separated cell.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if joinIn.key == "" {
			return fmt.Errorf("--key is required")
		}
		left, err := joinIn.load(cmd, args[0])
		if err != nil {
			return err
		}
		right, err := joinIn.load(cmd, args[1])
		if err != nil {
			return err
		}
		policy := survey.JoinLeft
		if joinInner {
			policy = survey.JoinInner
		}
		out, st, err := survey.Join(left, right, survey.JoinOptions{Key: joinIn.key, Suffix: joinSuffix, Policy: policy})
		if err != nil {
			return err
		}
		logging.New("cmd").Debug("join complete", "left", left.Name, "right", right.Name, "matched", st.Matched, "fan_out", st.FanOut)

		b, err := tableCSV(out)
		if err != nil {
			return err
		}
		if err := emit(cmd, joinOutput, b, "joined table"); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Joined %d records: %d matched, %d unmatched\n", out.Len(), st.Matched, st.Unmatched)
		if st.FanOut > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %d records matched several %s records; values were merged\n", st.FanOut, right.Name)
		}
		renamed := make([]string, 0, len(st.Renamed))
		for src := range st.Renamed {
			renamed = append(renamed, src)
		}
		sort.Strings(renamed)
		for _, src := range renamed {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s.%s renamed to %s\n", right.Name, src, st.Renamed[src])
		}
		return nil
	},
}

// tableCSV writes a table with its header; missing values are empty cells.
func tableCSV(t *survey.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, err
	}
	row := make([]string, len(t.Columns))
	for _, r := range t.Records {
		for i, c := range t.Columns {
			row[i] = r.Get(c).Text()
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func init() {
	rootCmd.AddCommand(joinCmd)
	joinIn.register(joinCmd)
	joinCmd.Flags().StringVar(&joinSuffix, "suffix", survey.DefaultJoinSuffix, "suffix for right columns clashing with left ones")
	joinCmd.Flags().BoolVar(&joinInner, "inner", false, "drop left records without a match")
	joinCmd.Flags().StringVarP(&joinOutput, "output", "o", "", "optional path to write the joined CSV")
}
