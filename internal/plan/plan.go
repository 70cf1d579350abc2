// Package plan defines the trading plan and scores trades against it.
package plan

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// TradingHours is the allowed entry-hour window. The window may wrap
// midnight (StartHour > EndHour, e.g. 22-4). EndHour is exclusive;
// StartHour 0 with EndHour 24 allows all hours.
type TradingHours struct {
	StartHour int `mapstructure:"start_hour" toml:"start_hour"`
	EndHour   int `mapstructure:"end_hour" toml:"end_hour"`
}

// Contains reports whether the hour falls inside the window.
func (h TradingHours) Contains(hour int) bool {
	if h.StartHour == h.EndHour {
		// Degenerate window: treat as always open rather than never.
		return true
	}
	if h.StartHour < h.EndHour {
		return hour >= h.StartHour && hour < h.EndHour
	}
	return hour >= h.StartHour || hour < h.EndHour
}

// TradingPlan is the user-authored rule set. It is loaded at startup and
// never mutated by the analysis.
type TradingPlan struct {
	AllowedSymbols    []string     `mapstructure:"allowed_symbols"`
	MaxPositionSize   float64      `mapstructure:"max_position_size"`
	Hours             TradingHours `mapstructure:"trading_hours"`
	RequireStopLoss   bool         `mapstructure:"require_stop_loss"`
	RequireTakeProfit bool         `mapstructure:"require_take_profit"`
}

// AllowsSymbol reports whether the symbol is on the allow-list.
// An empty allow-list permits every symbol.
func (p *TradingPlan) AllowsSymbol(symbol string) bool {
	if len(p.AllowedSymbols) == 0 {
		return true
	}
	for _, s := range p.AllowedSymbols {
		if strings.EqualFold(s, symbol) {
			return true
		}
	}
	return false
}

// Validate checks plan parameters for consistency.
func (p *TradingPlan) Validate() error {
	if p.MaxPositionSize < 0 {
		return fmt.Errorf("max_position_size must be non-negative")
	}
	if p.Hours.StartHour < 0 || p.Hours.StartHour > 24 {
		return fmt.Errorf("start_hour must be between 0 and 24")
	}
	if p.Hours.EndHour < 0 || p.Hours.EndHour > 24 {
		return fmt.Errorf("end_hour must be between 0 and 24")
	}
	return nil
}

// Load reads a trading plan from a TOML file.
func Load(path string) (*TradingPlan, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}

	p := &TradingPlan{}
	if err := v.Unmarshal(p); err != nil {
		return nil, fmt.Errorf("parsing plan file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Save writes a trading plan to a TOML file.
func Save(p *TradingPlan, path string) error {
	if err := p.Validate(); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("# Trading Plan\n")
	b.WriteString("# Every closed trade is scored against these rules.\n\n")

	b.WriteString("allowed_symbols = [")
	for i, s := range p.AllowedSymbols {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q", strings.ToUpper(s))
	}
	b.WriteString("]\n")

	fmt.Fprintf(&b, "max_position_size = %g\n", p.MaxPositionSize)
	fmt.Fprintf(&b, "require_stop_loss = %t\n", p.RequireStopLoss)
	fmt.Fprintf(&b, "require_take_profit = %t\n\n", p.RequireTakeProfit)

	b.WriteString("[trading_hours]\n")
	fmt.Fprintf(&b, "start_hour = %d\n", p.Hours.StartHour)
	fmt.Fprintf(&b, "end_hour = %d\n", p.Hours.EndHour)

	return os.WriteFile(path, []byte(b.String()), 0644)
}
