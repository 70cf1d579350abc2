// Package cli provides the command-line interface for the review tool.
package cli

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"bybit-review/internal/config"
	"bybit-review/internal/exchange"
	"bybit-review/internal/llm"
	"bybit-review/internal/logging"
	"bybit-review/internal/models"
	"bybit-review/pkg/utils"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2025-08-04"
)

// Fetcher retrieves closed positions from the exchange.
type Fetcher interface {
	FetchClosedPnL(ctx context.Context, start, end time.Time) ([]models.Trade, error)
}

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	ConfigDir string
	Logger    zerolog.Logger
	Exchange  Fetcher
	Analyzer  llm.Analyzer
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, configDir string, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		Logger:    logger,
	}

	retry := utils.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Fetch.MaxAttempts
	app.Exchange = exchange.NewClient(exchange.ClientConfig{
		APIKey:      cfg.Credentials.Bybit.APIKey,
		APISecret:   cfg.Credentials.Bybit.APISecret,
		Category:    cfg.Fetch.Category,
		Testnet:     cfg.Fetch.Testnet,
		Timeout:     cfg.Fetch.Timeout,
		InsecureTLS: cfg.Fetch.InsecureTLS,
		Retry:       retry,
	}, logger)

	// The narrative section degrades to nothing without an API key.
	if cfg.Credentials.OpenRouter.APIKey != "" {
		app.Analyzer = llm.NewOpenRouterAnalyzer(
			cfg.Credentials.OpenRouter.APIKey,
			cfg.Credentials.OpenRouter.BaseURL,
			cfg.Credentials.OpenRouter.Model,
		)
		logger.Debug().Str("model", cfg.Credentials.OpenRouter.Model).Msg("OpenRouter analyzer initialized")
	} else {
		app.Analyzer = llm.NoopAnalyzer{}
	}

	rootCmd := &cobra.Command{
		Use:   "review",
		Short: "Bybit Review - closed-position analytics for your trading week",
		Long: `Bybit Review fetches your closed positions from Bybit, computes
performance statistics, and renders an HTML report with charts, a raw
trade CSV, and an optional AI coaching narrative.

Use 'review report' to generate a full report for the last week.
Use 'review plan init' to set up a trading plan for adherence scoring.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/bybit-review)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addReportCommands(rootCmd, app)
	addFetchCommands(rootCmd, app)
	addPlanCommands(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Bybit Review v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Fetch Configuration")
	output.Printf("  Window:          %d days\n", cfg.Fetch.WindowDays)
	output.Printf("  Category:        %s\n", cfg.Fetch.Category)
	output.Printf("  Testnet:         %v\n", cfg.Fetch.Testnet)
	output.Printf("  Timeout:         %s\n", cfg.Fetch.Timeout)
	output.Printf("  Max Attempts:    %d\n", cfg.Fetch.MaxAttempts)
	output.Println()

	output.Bold("Report Configuration")
	output.Printf("  Output Dir:      %s\n", cfg.Report.OutputDir)
	output.Printf("  Timezone:        %s\n", cfg.Report.Timezone)
	output.Printf("  Chart Size:      %dx%d\n", cfg.Report.ChartWidth, cfg.Report.ChartHeight)
	output.Println()

	output.Bold("Credentials")
	output.Printf("  Bybit API Key:   %s\n", maskKey(cfg.Credentials.Bybit.APIKey))
	output.Printf("  OpenRouter Key:  %s\n", maskKey(cfg.Credentials.OpenRouter.APIKey))
	output.Printf("  LLM Model:       %s\n", cfg.Credentials.OpenRouter.Model)

	return nil
}

// maskKey hides all but the last 4 characters of a credential.
func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
