// Package config provides configuration management for the review application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Report      ReportConfig `mapstructure:"report"`
	Fetch       FetchConfig  `mapstructure:"fetch"`
	Credentials Credentials  `mapstructure:"-"` // Loaded separately
	Notes       UserNotes    `mapstructure:"notes"`
}

// ReportConfig holds report generation configuration.
type ReportConfig struct {
	OutputDir   string `mapstructure:"output_dir"`
	Timezone    string `mapstructure:"timezone"` // IANA name, hour grouping uses this
	ChartWidth  int    `mapstructure:"chart_width"`
	ChartHeight int    `mapstructure:"chart_height"`
}

// FetchConfig holds exchange fetch configuration.
type FetchConfig struct {
	WindowDays  int           `mapstructure:"window_days"`
	Category    string        `mapstructure:"category"` // linear, inverse
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Testnet     bool          `mapstructure:"testnet"`
	InsecureTLS bool          `mapstructure:"-"` // env only
}

// UserNotes holds the trader's own reflections, rendered into the report
// and passed to the LLM alongside the computed summary.
type UserNotes struct {
	Strategy     []string `mapstructure:"strategy"`
	Psychology   []string `mapstructure:"psychology"`
	Improvements []string `mapstructure:"improvements"`
	Reflection   string   `mapstructure:"reflection"`
	StandardRisk float64  `mapstructure:"standard_risk"`
}

// Credentials holds API credentials.
type Credentials struct {
	Bybit      BybitCredentials      `mapstructure:"bybit"`
	OpenRouter OpenRouterCredentials `mapstructure:"openrouter"`
}

// BybitCredentials holds Bybit API credentials.
type BybitCredentials struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
}

// OpenRouterCredentials holds OpenRouter API credentials.
type OpenRouterCredentials struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/bybit-review"
	}
	return filepath.Join(home, ".config", "bybit-review")
}

// PlanPath returns the trading plan file path inside configDir.
func PlanPath(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "plan.toml")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
// A .env file in the working directory is honored before env overrides.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	_ = godotenv.Load()

	cfg := &Config{}

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateConfig(configDir)
		}
		return err
	}

	return v.Unmarshal(target)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Credentials may come entirely from the environment.
			return nil
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyDefaults(cfg *Config) {
	if cfg.Report.OutputDir == "" {
		cfg.Report.OutputDir = "output"
	}
	if cfg.Report.Timezone == "" {
		cfg.Report.Timezone = "UTC"
	}
	if cfg.Report.ChartWidth == 0 {
		cfg.Report.ChartWidth = 1024
	}
	if cfg.Report.ChartHeight == 0 {
		cfg.Report.ChartHeight = 512
	}
	if cfg.Fetch.WindowDays == 0 {
		cfg.Fetch.WindowDays = 7
	}
	if cfg.Fetch.Category == "" {
		cfg.Fetch.Category = "linear"
	}
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = 30 * time.Second
	}
	if cfg.Fetch.MaxAttempts == 0 {
		cfg.Fetch.MaxAttempts = 3
	}
	if cfg.Credentials.OpenRouter.BaseURL == "" {
		cfg.Credentials.OpenRouter.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Credentials.OpenRouter.Model == "" {
		cfg.Credentials.OpenRouter.Model = "x-ai/grok-4-fast:free"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BYBIT_API_KEY"); v != "" {
		cfg.Credentials.Bybit.APIKey = v
	}
	if v := os.Getenv("BYBIT_API_SECRET"); v != "" {
		cfg.Credentials.Bybit.APISecret = v
	}
	if v := os.Getenv("BYBIT_TESTNET"); v != "" {
		cfg.Fetch.Testnet = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("BYBIT_INSECURE_SKIP_VERIFY"); v != "" {
		cfg.Fetch.InsecureTLS = strings.EqualFold(v, "true")
	}

	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.Credentials.OpenRouter.APIKey = v
	}
	if v := os.Getenv("OPENROUTER_MODEL"); v != "" {
		cfg.Credentials.OpenRouter.Model = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Fetch.WindowDays < 1 {
		return fmt.Errorf("window_days must be at least 1")
	}
	if c.Fetch.Category != "linear" && c.Fetch.Category != "inverse" {
		return fmt.Errorf("invalid category: %s (must be 'linear' or 'inverse')", c.Fetch.Category)
	}
	if c.Fetch.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	if _, err := time.LoadLocation(c.Report.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Report.Timezone, err)
	}
	return nil
}

// Location returns the configured report timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
