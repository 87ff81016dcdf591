// internal/commands/models.go
package schemarena

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schemarena/schemarena/internal/report"
)

// modelsCmd implements 'models', which lists the models the configured
// completion service advertises.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models advertised by the completion service",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		models, err := client.ListModels(cmd.Context())
		if err != nil {
			return fmt.Errorf("list models: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), report.RenderModels(models))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
