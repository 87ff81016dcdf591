// internal/commands/summary.go
package schemarena

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schemarena/schemarena/internal/report"
	"github.com/schemarena/schemarena/internal/run"
)

// summaryCmd implements 'summary', which aggregates a run's recorded results
// per model.
var summaryCmd = &cobra.Command{
	Use:   "summary <run-id>",
	Short: "Show per-model aggregation for a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gateway, err := openStore()
		if err != nil {
			return err
		}
		defer gateway.Close()

		ctx := cmd.Context()
		testRun, err := gateway.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		results, err := gateway.ListResults(ctx, args[0])
		if err != nil {
			return err
		}

		summary := run.Summarize(testRun, results)
		fmt.Fprint(cmd.OutOrStdout(), report.RenderSummary(&summary))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
