package report

import (
	"bybit-review/internal/metrics"
	"bybit-review/internal/models"
)

// RiskMultiples re-expresses results in multiples of the standard risk per
// trade (R) and classifies losses as full or partial stops.
type RiskMultiples struct {
	StandardRisk float64
	AvgWinR      float64
	AvgLossR     float64 // magnitude, >= 0
	LargestWinR  float64

	// A loss within 5% of one R counts as a full stop; every other loss
	// is a partial stop (scaled out early or slipped past the level).
	FullStops    int
	PartialStops int
}

const fullStopTolerance = 0.05

// riskMultiples derives R-multiple figures from the computed summary.
// Returns nil when no standard risk is configured or there are no trades.
func riskMultiples(trades []models.Trade, s metrics.Summary, standardRisk float64) *RiskMultiples {
	if standardRisk <= 0 || !s.HasData {
		return nil
	}

	rm := &RiskMultiples{
		StandardRisk: standardRisk,
		AvgWinR:      s.AvgWin / standardRisk,
		AvgLossR:     -s.AvgLoss / standardRisk,
		LargestWinR:  s.LargestWin / standardRisk,
	}

	lo := standardRisk * (1 - fullStopTolerance)
	hi := standardRisk * (1 + fullStopTolerance)
	for _, t := range trades {
		if !t.IsLoss() {
			continue
		}
		loss := -t.PnL
		if loss >= lo && loss <= hi {
			rm.FullStops++
		} else {
			rm.PartialStops++
		}
	}
	return rm
}
