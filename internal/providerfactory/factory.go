// internal/providerfactory/factory.go
package providerfactory

import (
	"fmt"

	"github.com/schemarena/schemarena/internal/appconfig"
	"github.com/schemarena/schemarena/internal/providers"
	"github.com/schemarena/schemarena/internal/providers/openai"
)

// NewCompletionClient selects and configures the completion client named by
// the application configuration.
func NewCompletionClient(cfg *appconfig.Config) (providers.CompletionClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}

	switch cfg.ProviderType() {
	case "openai":
		return openai.New(cfg), nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.ProviderType())
	}
}
