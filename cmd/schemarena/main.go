// cmd/schemarena/main.go
package main

import (
	cmd "github.com/schemarena/schemarena/internal/commands"
)

// main starts the schemarena CLI application by delegating to the
// cobra root command defined in the schemarena package. It does not
// take any arguments and does not return a value.
func main() {
	cmd.Execute()
}
