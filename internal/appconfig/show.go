package appconfig

import (
	"fmt"
	"io"
	"strings"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config, fallback Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	fmt.Fprintln(out, "Current configuration:")
	if cfg == nil {
		cfg = &fallback
	}

	fmt.Fprintf(out, "  Service URL:   %s\n", cfg.ServiceURL)
	fmt.Fprintf(out, "  API Key:       %s\n", maskKey(cfg.ServiceAPIKey))
	fmt.Fprintf(out, "  Provider:      %s\n", cfg.ProviderType())
	fmt.Fprintf(out, "  Timeout:       %s per call\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Concurrency:   %d workers\n", cfg.Concurrency())
	fmt.Fprintf(out, "  Temperature:   %g\n", cfg.Temperature())
	fmt.Fprintf(out, "  Max Tokens:    %d\n", cfg.MaxTokens())
	fmt.Fprintf(out, "  Database:      %s\n", cfg.DatabaseFilePath())
	fmt.Fprintf(out, "  Listen:        %s\n", cfg.ListenAddress())
	fmt.Fprintf(out, "  Log File:      %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Debug:         %v\n", cfg.Debug)
}

// maskKey hides all but the last four characters of an API key.
func maskKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
