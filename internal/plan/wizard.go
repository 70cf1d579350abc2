package plan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
)

// RunWizard interactively builds a TradingPlan. It is deliberately kept
// out of the evaluator: Evaluate and Score accept a fully-constructed plan
// and never perform I/O themselves.
func RunWizard() (*TradingPlan, error) {
	p := &TradingPlan{}

	var symbols string
	if err := survey.AskOne(&survey.Input{
		Message: "Allowed symbols (comma separated, empty allows all):",
		Help:    "e.g. BTCUSDT, ETHUSDT",
	}, &symbols); err != nil {
		return nil, err
	}
	for _, s := range strings.Split(symbols, ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			p.AllowedSymbols = append(p.AllowedSymbols, s)
		}
	}

	var sizeStr string
	if err := survey.AskOne(&survey.Input{
		Message: "Max position size (0 disables the rule):",
		Default: "0",
	}, &sizeStr, survey.WithValidator(nonNegativeNumber)); err != nil {
		return nil, err
	}
	p.MaxPositionSize, _ = strconv.ParseFloat(strings.TrimSpace(sizeStr), 64)

	if err := askHour("Trading window start hour (0-24):", "0", &p.Hours.StartHour); err != nil {
		return nil, err
	}
	if err := askHour("Trading window end hour (0-24, may wrap midnight):", "24", &p.Hours.EndHour); err != nil {
		return nil, err
	}

	if err := survey.AskOne(&survey.Confirm{
		Message: "Require a stop-loss on every trade?",
		Default: true,
	}, &p.RequireStopLoss); err != nil {
		return nil, err
	}
	if err := survey.AskOne(&survey.Confirm{
		Message: "Require a take-profit on every trade?",
		Default: false,
	}, &p.RequireTakeProfit); err != nil {
		return nil, err
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func askHour(message, def string, out *int) error {
	var s string
	if err := survey.AskOne(&survey.Input{
		Message: message,
		Default: def,
	}, &s, survey.WithValidator(hourValue)); err != nil {
		return err
	}
	v, _ := strconv.Atoi(strings.TrimSpace(s))
	*out = v
	return nil
}

func nonNegativeNumber(val interface{}) error {
	s, ok := val.(string)
	if !ok {
		return fmt.Errorf("expected a number")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("not a number")
	}
	if v < 0 {
		return fmt.Errorf("must be non-negative")
	}
	return nil
}

func hourValue(val interface{}) error {
	s, ok := val.(string)
	if !ok {
		return fmt.Errorf("expected an hour")
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not a whole number")
	}
	if v < 0 || v > 24 {
		return fmt.Errorf("hour must be between 0 and 24")
	}
	return nil
}
