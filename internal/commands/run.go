// internal/commands/run.go
package schemarena

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/schemarena/schemarena/internal/report"
	"github.com/schemarena/schemarena/internal/suite"
)

var (
	runSuitePath string
	runWait      bool
)

// runCmd implements 'run', which loads a suite file, executes every model
// against every item, and records the outcomes.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a test suite against the configured completion service",
	Long: `The 'run' command loads a suite file describing the prompt template, the
JSON schema the output must satisfy, the input items, and the models under
test. It executes every model x item pair and records one result per pair.

Interrupting the command (Ctrl-C) stops dispatching new tasks; calls already
in flight finish and their results are still recorded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := suite.Load(runSuitePath)
		if err != nil {
			return err
		}

		manager, cleanup, err := newManager()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		testRun, err := manager.StartRun(ctx, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Started run %s (%d tasks)\n", testRun.ID, testRun.ExpectedTasks)

		// The engine runs in this process, so the command always waits for
		// the dispatch goroutine before returning.
		manager.Wait()

		final, results, err := manager.GetRun(cmd.Context(), testRun.ID)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), report.RenderRun(final, results))

		if runWait {
			summary, err := manager.GetSummary(cmd.Context(), testRun.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), "\n"+report.RenderSummary(summary))
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runSuitePath, "suite", "", "path to the suite JSON file")
	runCmd.Flags().BoolVar(&runWait, "wait", true, "print the per-model summary once the run finishes")
	_ = runCmd.MarkFlagRequired("suite")
	rootCmd.AddCommand(runCmd)
}
