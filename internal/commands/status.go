// internal/commands/status.go
package schemarena

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schemarena/schemarena/internal/report"
)

// statusCmd implements 'status', which shows a run's lifecycle state and
// how many task results have been recorded so far.
var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Show the lifecycle state and progress of a run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gateway, err := openStore()
		if err != nil {
			return err
		}
		defer gateway.Close()

		ctx := cmd.Context()

		if len(args) == 0 {
			runs, err := gateway.ListRuns(ctx, 20)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-10s  %s\n", r.ID, r.Status, r.Name)
			}
			return nil
		}

		testRun, err := gateway.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		results, err := gateway.ListResults(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), report.RenderRun(testRun, results))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
