package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Bybit Review Configuration

[report]
# Directory where report bundles are written
output_dir = "output"
# IANA timezone used for hour-of-day and daily groupings
timezone = "UTC"
# Chart image dimensions in pixels
chart_width = 1024
chart_height = 512

[fetch]
# Trailing window of closed trades to fetch, in days
window_days = 7
# Bybit product category: linear or inverse
category = "linear"
# Per-request timeout
timeout = "30s"
# Bounded retry attempts for transient failures
max_attempts = 3
# Use the Bybit testnet endpoint
testnet = false

[notes]
# Optional reflections rendered into the report and passed to the LLM.
strategy = []
psychology = []
improvements = []
reflection = ""
# Standard risk per trade in account currency, used for R-multiple analysis
standard_risk = 0.0
`

const planTemplate = `# Trading Plan
# Every closed trade is scored against these rules.
# Run 'bybit-review plan init' for an interactive setup.

# Symbols you allow yourself to trade
allowed_symbols = []

# Maximum position size (contracts/coins); 0 disables the rule
max_position_size = 0.0

# Allowed entry hours in the report timezone; the window may wrap midnight
[trading_hours]
start_hour = 0
end_hour = 24

# Protective order requirements
require_stop_loss = false
require_take_profit = false
`

// createTemplateConfig writes a template config file. The first run then
// proceeds on the built-in defaults; edits take effect on the next run.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}

// CreateTemplatePlan writes a template plan file if none exists.
func CreateTemplatePlan(configDir string) (string, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	path := PlanPath(configDir)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.WriteFile(path, []byte(planTemplate), 0644); err != nil {
		return "", fmt.Errorf("writing plan template: %w", err)
	}
	return path, nil
}
