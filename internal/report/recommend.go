package report

import (
	"fmt"
	"sort"
)

// Recommendations derives rule-based suggestions from the computed data.
// These are the deterministic counterpart to the optional LLM narrative.
func Recommendations(data *Data) []string {
	var recs []string
	s := data.Summary
	if !s.HasData {
		return recs
	}

	if s.WinRate.Valid && s.WinRate.Value < 0.5 {
		recs = append(recs, "Your win rate is below 50%. Consider reviewing your entry and exit criteria.")
	}

	if best, ok := bestSymbol(data); ok {
		recs = append(recs, fmt.Sprintf("Your best performing symbol is %s. Consider focusing more on this market.", best))
	}

	if hour, ok := bestHour(data); ok {
		recs = append(recs, fmt.Sprintf("Your most profitable hour appears to be %02d:00. Consider trading more during this time.", hour))
	}

	d := s.Durations
	if d.MeanWin > 0 && d.MeanLoss > 0 {
		switch {
		case d.MeanWin.Seconds() > d.MeanLoss.Seconds()*1.5:
			recs = append(recs, "Your winning trades last significantly longer than your losing trades. Consider letting your profitable trades run longer.")
		case d.MeanLoss.Seconds() > d.MeanWin.Seconds()*1.5:
			recs = append(recs, "Your losing trades last significantly longer than your winning trades. Consider cutting losses earlier.")
		}
	}

	if sc := data.Scorecard; sc != nil && sc.TotalCount > 0 {
		if sc.Score.Valid && sc.Score.Value < 0.8 {
			recs = append(recs, fmt.Sprintf("Only %.0f%% of your trades followed your trading plan. Revisit the rules you break most often.", sc.Score.Value*100))
		}
		if sc.AvgPnLCompliant.Valid && sc.AvgPnLNonCompliant.Valid {
			if sc.AvgPnLNonCompliant.Value > sc.AvgPnLCompliant.Value {
				recs = append(recs, "Trades that broke your plan averaged a better PnL than compliant ones. Before relaxing the rules, check whether this holds over a larger sample.")
			} else {
				recs = append(recs, "Plan-compliant trades outperformed rule-breaking ones on average. The plan is earning its keep.")
			}
		}
	}

	return recs
}

func bestSymbol(data *Data) (string, bool) {
	best := ""
	bestPnL := 0.0
	symbols := make([]string, 0, len(data.BySymbol))
	for s := range data.BySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols) // deterministic tie-break
	for _, s := range symbols {
		if pnl := data.BySymbol[s].TotalPnL; best == "" || pnl > bestPnL {
			best, bestPnL = s, pnl
		}
	}
	return best, best != ""
}

func bestHour(data *Data) (int, bool) {
	bestHour, found := 0, false
	bestAvg := 0.0
	hours := make([]int, 0, len(data.ByHour))
	for h := range data.ByHour {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	for _, h := range hours {
		if avg := data.ByHour[h].Expectancy; !found || avg > bestAvg {
			bestHour, bestAvg, found = h, avg, true
		}
	}
	return bestHour, found
}
