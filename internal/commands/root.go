// internal/commands/root.go
package schemarena

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/schemarena/schemarena/internal/appconfig"
	"github.com/schemarena/schemarena/internal/logging"
	"github.com/schemarena/schemarena/internal/providerfactory"
	"github.com/schemarena/schemarena/internal/providers"
	"github.com/schemarena/schemarena/internal/run"
	"github.com/schemarena/schemarena/internal/store"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "schemarena",
	Short: "schemarena — measure how reliably models produce schema-conformant JSON",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		if !cmd.Flags().Changed("debug") {
			_ = cmd.Flags().Set("debug", strconv.FormatBool(viper.GetBool("debug")))
		}
		for _, name := range []string{"logFile", "serviceUrl", "database"} {
			if !cmd.Flags().Changed(name) {
				_ = cmd.Flags().Set(name, viper.GetString(name))
			}
		}

		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = cfgFile
		currentConfig = &cfg

		if err := logging.Init(currentConfig.LogFilePath()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	defer logging.Close()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("logFile", "", "path to the log file")
	rootCmd.PersistentFlags().String("serviceUrl", "", "base URL of the OpenAI-compatible completion service")
	rootCmd.PersistentFlags().String("database", "", "path to the SQLite database file")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("logFile", rootCmd.PersistentFlags().Lookup("logFile"))
	_ = viper.BindPFlag("serviceUrl", rootCmd.PersistentFlags().Lookup("serviceUrl"))
	_ = viper.BindPFlag("database", rootCmd.PersistentFlags().Lookup("database"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config and sets safe defaults.
func ensureConfigLoaded() error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// DebugEnabled returns true if debug mode is enabled.
func DebugEnabled() bool { return viper.GetBool("debug") }

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// openStore opens the run database configured for this invocation.
func openStore() (*store.Store, error) {
	cfg := GetConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration is not initialized")
	}
	return store.New(cfg.DatabaseFilePath())
}

// newClient builds a completion client, which needs a configured service URL.
func newClient() (providers.CompletionClient, error) {
	cfg := GetConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration is not initialized")
	}
	if cfg.ServiceURL == "" {
		return nil, fmt.Errorf("serviceUrl is not set; configure it in %s or pass --serviceUrl", appconfig.DefaultConfigPath)
	}
	return providerfactory.NewCompletionClient(cfg)
}

// newManager wires the store and completion client into a run manager. The
// caller closes both via the returned cleanup function.
func newManager() (*run.Manager, func(), error) {
	gateway, err := openStore()
	if err != nil {
		return nil, nil, err
	}

	client, err := newClient()
	if err != nil {
		gateway.Close()
		return nil, nil, err
	}

	cfg := GetConfig()
	manager := run.NewManager(gateway, client, run.Options{
		Concurrency: cfg.Concurrency(),
		Temperature: cfg.Temperature(),
		MaxTokens:   cfg.MaxTokens(),
	})

	cleanup := func() {
		_ = client.Close()
		_ = gateway.Close()
	}
	return manager, cleanup, nil
}
