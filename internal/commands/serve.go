// internal/commands/serve.go
package schemarena

import (
	"github.com/spf13/cobra"

	"github.com/schemarena/schemarena/internal/server"
)

// serveCmd implements 'serve', which exposes the run engine over HTTP so
// callers can submit runs and poll for status and summaries.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run engine over HTTP",
	Long: `The 'serve' command starts an HTTP API for the run engine:

  POST /runs              submit a run configuration
  GET  /runs/{id}         poll a run's state and recorded results
  GET  /runs/{id}/summary per-model aggregation for a run

The bind address comes from the 'listen' config key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, cleanup, err := newManager()
		if err != nil {
			return err
		}
		defer cleanup()

		srv := server.New(manager)
		return srv.ListenAndServe(GetConfig().ListenAddress())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
