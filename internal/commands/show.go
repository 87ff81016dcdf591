// internal/commands/show.go
package schemarena

import (
	"github.com/spf13/cobra"
)

// showCmd groups the 'show' subcommands.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show application information",
}

func init() {
	rootCmd.AddCommand(showCmd)
}
