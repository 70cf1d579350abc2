package report

import (
	"fmt"
	"time"

	"bybit-review/internal/metrics"
)

// LLMPayload condenses report data into the JSON document handed to the
// language model. Raw trades are left out: the model gets aggregates only,
// which keeps the prompt small and avoids leaking order IDs.
func LLMPayload(data *Data) map[string]interface{} {
	s := data.Summary

	payload := map[string]interface{}{
		"period": map[string]interface{}{
			"start":    data.WindowStart.Format("2006-01-02"),
			"end":      data.WindowEnd.Format("2006-01-02"),
			"timezone": data.Location.String(),
		},
		"overall_performance": map[string]interface{}{
			"total_trades":        s.TotalTrades,
			"wins":                s.Wins,
			"losses":              s.Losses,
			"flats":               s.Flats,
			"total_pnl":           s.TotalPnL,
			"win_rate":            s.WinRate,
			"profit_factor":       s.ProfitFactor,
			"expectancy":          s.Expectancy,
			"max_drawdown":        s.MaxDrawdown.Value,
			"longest_win_streak":  s.LongestWinStreak,
			"longest_loss_streak": s.LongestLossStreak,
		},
		"risk_reward": map[string]interface{}{
			"gross_profit":       s.GrossProfit,
			"gross_loss":         s.GrossLoss,
			"average_win":        s.AvgWin,
			"average_loss":       s.AvgLoss,
			"largest_win":        s.LargestWin,
			"largest_loss":       s.LargestLoss,
			"reward_risk":        s.RewardRisk,
			"mean_win_duration":  durationHours(s.Durations.MeanWin),
			"mean_loss_duration": durationHours(s.Durations.MeanLoss),
			"losers_held_longer": s.Durations.LosersHeldLonger,
		},
		"symbols":       symbolAggregates(data.BySymbol),
		"time_patterns": hourAggregates(data.ByHour),
	}

	if data.Notes.StandardRisk > 0 {
		payload["standard_risk"] = data.Notes.StandardRisk
	}
	if rm := data.Risk; rm != nil {
		payload["risk_multiples"] = map[string]interface{}{
			"average_win_r":  rm.AvgWinR,
			"average_loss_r": rm.AvgLossR,
			"largest_win_r":  rm.LargestWinR,
			"full_stops":     rm.FullStops,
			"partial_stops":  rm.PartialStops,
		}
	}

	if sc := data.Scorecard; sc != nil && sc.TotalCount > 0 {
		payload["plan_adherence"] = map[string]interface{}{
			"score":                 sc.Score,
			"pnl_weighted_score":    sc.PnLWeightedScore,
			"compliant_trades":      sc.CompliantCount,
			"total_trades":          sc.TotalCount,
			"violation_counts":      sc.ViolationCounts,
			"avg_pnl_compliant":     sc.AvgPnLCompliant,
			"avg_pnl_non_compliant": sc.AvgPnLNonCompliant,
		}
	}

	return payload
}

func symbolAggregates(bySymbol map[string]metrics.Summary) map[string]interface{} {
	out := make(map[string]interface{}, len(bySymbol))
	for sym, sum := range bySymbol {
		out[sym] = map[string]interface{}{
			"trades":    sum.TotalTrades,
			"total_pnl": sum.TotalPnL,
			"win_rate":  sum.WinRate,
			"avg_pnl":   sum.Expectancy,
		}
	}
	return out
}

func hourAggregates(byHour map[int]metrics.Summary) map[string]interface{} {
	out := make(map[string]interface{}, len(byHour))
	for h, sum := range byHour {
		out[hourKey(h)] = map[string]interface{}{
			"trades":    sum.TotalTrades,
			"total_pnl": sum.TotalPnL,
			"avg_pnl":   sum.Expectancy,
		}
	}
	return out
}

func hourKey(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

func durationHours(d time.Duration) float64 {
	return d.Hours()
}
