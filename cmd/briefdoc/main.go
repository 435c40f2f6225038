package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/briefdoc/internal/app"
	"github.com/ternarybob/briefdoc/internal/common"
)

var (
	// Command-line flags
	configFiles   []string
	documentTitle string
	modelName     string
	logLevel      string

	// Global state
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "briefdoc",
	Short: "Append AI market briefs to a Google Doc",
	Long: `briefdoc asks a search-grounded AI model for a market summary and appends it
as a timestamped section to a Google Doc, creating the document on first use.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd == versionCmd {
			return
		}
		loadConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil, "Configuration file path (can be specified multiple times, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&documentTitle, "title", "", "Report document title (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&modelName, "model", "m", "", "Model name, e.g. gemini-2.5-flash or claude-sonnet-4-20250514 (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(runCmd, publishCmd, queryCmd, scheduleCmd, versionCmd)
}

func main() {
	defer common.RecoverWithCrashFile()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig runs the startup sequence (REQUIRED ORDER):
// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
// 2. Apply CLI overrides (highest priority)
// 3. Validate
// 4. Initialize logger
func loadConfig() {
	if len(configFiles) == 0 {
		if _, err := os.Stat("briefdoc.toml"); err == nil {
			configFiles = append(configFiles, "briefdoc.toml")
		} else if _, err := os.Stat("deployments/local/briefdoc.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/briefdoc.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, documentTitle, logLevel)

	if err := config.Validate(); err != nil {
		arbor.NewLogger().Fatal().Err(err).Msg("Configuration is invalid")
		os.Exit(1)
	}

	logger = common.InitLogger(config)
	if config.Logging.Dir != "" {
		common.CrashLogDir = common.ExpandPath(config.Logging.Dir)
	}

	logger.Debug().
		Strs("config_files", configFiles).
		Str("document_title", config.Report.DocumentTitle).
		Str("credentials_mode", config.Google.CredentialsMode).
		Str("provider", string(config.LLM.DefaultProvider)).
		Str("log_level", config.Logging.Level).
		Msg("Resolved configuration (sanitized)")
}

// newApp builds the application for a command
func newApp(ctx context.Context) (*app.App, error) {
	application, err := app.New(ctx, config, logger, app.WithModel(modelName))
	if err != nil {
		return nil, logFailure(err, "Failed to initialize application")
	}
	return application, nil
}

// logFailure logs a failed command step and returns err for main to report
func logFailure(err error, msg string) error {
	if err == nil {
		return nil
	}
	logger.Error().Err(err).Msg(msg)
	return err
}
