package plan

import (
	"time"

	"bybit-review/internal/metrics"
	"bybit-review/internal/models"
)

// Reason codes for rule violations. A trade may carry several.
const (
	ReasonSymbolNotAllowed  = "symbol_not_allowed"
	ReasonPositionTooLarge  = "position_too_large"
	ReasonOutsideHours      = "outside_trading_hours"
	ReasonMissingStopLoss   = "missing_stop_loss"
	ReasonMissingTakeProfit = "missing_take_profit"
)

// Result is the per-trade adherence verdict.
type Result struct {
	Trade     models.Trade
	Compliant bool
	Reasons   []string
}

// Scorecard aggregates adherence across a trade set.
type Scorecard struct {
	Results        []Result
	CompliantCount int
	TotalCount     int

	// Score is compliant trades over total trades.
	Score metrics.Ratio
	// PnLWeightedScore is the PnL of compliant trades over total PnL,
	// invalid when total PnL is zero.
	PnLWeightedScore metrics.Ratio

	// Average PnL of each partition, surfacing whether rule-breaking
	// trades were actually the profitable ones.
	AvgPnLCompliant    metrics.Ratio
	AvgPnLNonCompliant metrics.Ratio

	// Violation counts per reason code.
	ViolationCounts map[string]int
}

// Evaluate scores one trade against the plan. All rules are evaluated
// independently so a trade can report several reasons at once.
// The entry hour is taken in loc, matching the report's hour grouping.
func Evaluate(trade models.Trade, p *TradingPlan, loc *time.Location) Result {
	r := Result{Trade: trade}

	if !p.AllowsSymbol(trade.Symbol) {
		r.Reasons = append(r.Reasons, ReasonSymbolNotAllowed)
	}
	if p.MaxPositionSize > 0 && trade.Size > p.MaxPositionSize {
		r.Reasons = append(r.Reasons, ReasonPositionTooLarge)
	}
	if !p.Hours.Contains(trade.EntryTime.In(loc).Hour()) {
		r.Reasons = append(r.Reasons, ReasonOutsideHours)
	}
	if p.RequireStopLoss && !trade.HasStopLoss() {
		r.Reasons = append(r.Reasons, ReasonMissingStopLoss)
	}
	if p.RequireTakeProfit && !trade.HasTakeProfit() {
		r.Reasons = append(r.Reasons, ReasonMissingTakeProfit)
	}

	r.Compliant = len(r.Reasons) == 0
	return r
}

// Score evaluates every trade and aggregates the verdicts.
func Score(trades []models.Trade, p *TradingPlan, loc *time.Location) Scorecard {
	sc := Scorecard{
		TotalCount:      len(trades),
		ViolationCounts: make(map[string]int),
	}

	var compliantPnL, totalPnL float64
	var compliantN, nonCompliantN int
	var nonCompliantPnL float64

	for _, t := range trades {
		res := Evaluate(t, p, loc)
		sc.Results = append(sc.Results, res)

		totalPnL += t.PnL
		if res.Compliant {
			sc.CompliantCount++
			compliantPnL += t.PnL
			compliantN++
		} else {
			nonCompliantPnL += t.PnL
			nonCompliantN++
		}
		for _, reason := range res.Reasons {
			sc.ViolationCounts[reason]++
		}
	}

	if sc.TotalCount > 0 {
		sc.Score = metrics.Ratio{Value: float64(sc.CompliantCount) / float64(sc.TotalCount), Valid: true}
	}
	if totalPnL != 0 {
		sc.PnLWeightedScore = metrics.Ratio{Value: compliantPnL / totalPnL, Valid: true}
	}
	if compliantN > 0 {
		sc.AvgPnLCompliant = metrics.Ratio{Value: compliantPnL / float64(compliantN), Valid: true}
	}
	if nonCompliantN > 0 {
		sc.AvgPnLNonCompliant = metrics.Ratio{Value: nonCompliantPnL / float64(nonCompliantN), Valid: true}
	}

	return sc
}
