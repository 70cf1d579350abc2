package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genPnLSeries() gopter.Gen {
	return gen.SliceOf(gen.Float64Range(-1e6, 1e6))
}

func TestSummaryProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("gross profit is non-negative, gross loss non-positive", prop.ForAll(
		func(pnls []float64) bool {
			s := Compute(tradesFromPnL(pnls...))
			return s.GrossProfit >= 0 && s.GrossLoss <= 0
		},
		genPnLSeries(),
	))

	properties.Property("win rate is within [0,1] whenever defined", prop.ForAll(
		func(pnls []float64) bool {
			s := Compute(tradesFromPnL(pnls...))
			if !s.HasData {
				return !s.WinRate.Valid
			}
			return s.WinRate.Valid && s.WinRate.Value >= 0 && s.WinRate.Value <= 1
		},
		genPnLSeries(),
	))

	properties.Property("wins+losses+flats equals total trades", prop.ForAll(
		func(pnls []float64) bool {
			s := Compute(tradesFromPnL(pnls...))
			return s.Wins+s.Losses+s.Flats == s.TotalTrades
		},
		genPnLSeries(),
	))

	properties.Property("total PnL equals gross profit plus gross loss", prop.ForAll(
		func(pnls []float64) bool {
			s := Compute(tradesFromPnL(pnls...))
			return math.Abs(s.TotalPnL-(s.GrossProfit+s.GrossLoss)) < 1e-6
		},
		genPnLSeries(),
	))

	properties.Property("profit factor is never an infinity", prop.ForAll(
		func(pnls []float64) bool {
			s := Compute(tradesFromPnL(pnls...))
			return !s.ProfitFactor.Valid || !math.IsInf(s.ProfitFactor.Value, 0)
		},
		genPnLSeries(),
	))

	properties.Property("max drawdown is non-negative", prop.ForAll(
		func(pnls []float64) bool {
			s := Compute(tradesFromPnL(pnls...))
			return s.MaxDrawdown.Value >= 0
		},
		genPnLSeries(),
	))

	properties.Property("max drawdown is zero iff cumulative PnL never declines", prop.ForAll(
		func(pnls []float64) bool {
			trades := tradesFromPnL(pnls...)
			s := Compute(trades)

			declines := false
			for _, pnl := range pnls {
				if pnl < 0 {
					declines = true
					break
				}
			}
			if !declines {
				return s.MaxDrawdown.Value == 0
			}
			return s.MaxDrawdown.Value > 0
		},
		genPnLSeries(),
	))

	properties.Property("per-symbol PnL sums to total PnL", prop.ForAll(
		func(pnls []float64) bool {
			trades := tradesFromPnL(pnls...)
			// Spread across three symbols.
			symbols := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}
			for i := range trades {
				trades[i].Symbol = symbols[i%len(symbols)]
			}

			s := Compute(trades)
			var sum float64
			for _, part := range BySymbol(trades) {
				sum += part.TotalPnL
			}
			return math.Abs(sum-s.TotalPnL) < 1e-6
		},
		genPnLSeries(),
	))

	properties.Property("streaks never exceed the trade count", prop.ForAll(
		func(pnls []float64) bool {
			s := Compute(tradesFromPnL(pnls...))
			return s.LongestWinStreak <= s.TotalTrades && s.LongestLossStreak <= s.TotalTrades
		},
		genPnLSeries(),
	))

	properties.Property("cumulative PnL ends at total PnL", prop.ForAll(
		func(pnls []float64) bool {
			trades := tradesFromPnL(pnls...)
			if len(trades) == 0 {
				return len(CumulativePnL(trades)) == 0
			}
			s := Compute(trades)
			cum := CumulativePnL(trades)
			return math.Abs(cum[len(cum)-1]-s.TotalPnL) < 1e-6
		},
		genPnLSeries(),
	))

	properties.TestingRun(t)
}

func TestHourBucketsCoverAllTrades(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("hour buckets partition the trade set", prop.ForAll(
		func(pnls []float64, offsets []int8) bool {
			trades := tradesFromPnL(pnls...)
			for i := range trades {
				if i < len(offsets) {
					shift := time.Duration(offsets[i]) * time.Hour
					trades[i].EntryTime = trades[i].EntryTime.Add(shift)
				}
			}

			total := 0
			for h, part := range ByHour(trades, time.UTC) {
				if h < 0 || h > 23 {
					return false
				}
				total += part.TotalTrades
			}
			return total == len(trades)
		},
		genPnLSeries(),
		gen.SliceOf(gen.Int8Range(-48, 48)),
	))

	properties.TestingRun(t)
}
