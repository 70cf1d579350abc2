package metrics

import (
	"math"
	"testing"
	"time"

	"bybit-review/internal/models"
)

var baseTime = time.Date(2025, 8, 4, 9, 0, 0, 0, time.UTC)

// tradesFromPnL builds a trade sequence with one hour spacing and one
// hour holding time per trade.
func tradesFromPnL(pnls ...float64) []models.Trade {
	trades := make([]models.Trade, len(pnls))
	for i, pnl := range pnls {
		entry := baseTime.Add(time.Duration(i) * time.Hour)
		trades[i] = models.Trade{
			Symbol:    "BTCUSDT",
			Side:      models.SideLong,
			EntryTime: entry,
			ExitTime:  entry.Add(time.Hour),
			PnL:       pnl,
			Size:      1,
		}
	}
	return trades
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil)
	if s.HasData {
		t.Fatal("expected HasData=false for empty input")
	}
	if s.WinRate.Valid || s.ProfitFactor.Valid || s.RewardRisk.Valid {
		t.Error("expected all ratios invalid for empty input")
	}
	if s.TotalPnL != 0 || s.MaxDrawdown.Value != 0 {
		t.Error("expected zero values for empty input")
	}
}

func TestComputeExample(t *testing.T) {
	s := Compute(tradesFromPnL(100, -50, 30, -80, 20))

	if !s.HasData {
		t.Fatal("expected HasData")
	}
	if s.Wins != 3 || s.Losses != 2 || s.Flats != 0 {
		t.Errorf("got W/L/F %d/%d/%d, want 3/2/0", s.Wins, s.Losses, s.Flats)
	}
	if s.GrossProfit != 150 {
		t.Errorf("gross profit = %v, want 150", s.GrossProfit)
	}
	if s.GrossLoss != -130 {
		t.Errorf("gross loss = %v, want -130", s.GrossLoss)
	}
	if s.TotalPnL != 20 {
		t.Errorf("total PnL = %v, want 20", s.TotalPnL)
	}
	if !s.ProfitFactor.Valid || math.Abs(s.ProfitFactor.Value-150.0/130.0) > 1e-9 {
		t.Errorf("profit factor = %+v, want %v", s.ProfitFactor, 150.0/130.0)
	}
	if !s.WinRate.Valid || math.Abs(s.WinRate.Value-0.6) > 1e-9 {
		t.Errorf("win rate = %+v, want 0.6", s.WinRate)
	}
	if s.MaxDrawdown.Value != 100 {
		t.Errorf("max drawdown = %v, want 100", s.MaxDrawdown.Value)
	}
	if s.MaxDrawdown.PeakIndex != 0 || s.MaxDrawdown.TroughIndex != 3 {
		t.Errorf("drawdown interval = [%d,%d], want [0,3]",
			s.MaxDrawdown.PeakIndex, s.MaxDrawdown.TroughIndex)
	}
	if s.LargestWin != 100 || s.LargestLoss != -80 {
		t.Errorf("largest win/loss = %v/%v, want 100/-80", s.LargestWin, s.LargestLoss)
	}
	if math.Abs(s.Expectancy-4) > 1e-9 {
		t.Errorf("expectancy = %v, want 4", s.Expectancy)
	}
}

func TestProfitFactorSentinels(t *testing.T) {
	// Only winners: undefined, never +Inf.
	s := Compute(tradesFromPnL(10, 20))
	if s.ProfitFactor.Valid {
		t.Errorf("profit factor should be undefined with no losses, got %+v", s.ProfitFactor)
	}

	// Only flats: defined zero.
	s = Compute(tradesFromPnL(0, 0))
	if !s.ProfitFactor.Valid || s.ProfitFactor.Value != 0 {
		t.Errorf("profit factor with no wins and no losses = %+v, want 0", s.ProfitFactor)
	}
}

func TestWinRateCountsFlatsInDenominator(t *testing.T) {
	s := Compute(tradesFromPnL(10, 0, -5, 0))
	if !s.WinRate.Valid || math.Abs(s.WinRate.Value-0.25) > 1e-9 {
		t.Errorf("win rate = %+v, want 0.25", s.WinRate)
	}
	if s.Flats != 2 {
		t.Errorf("flats = %d, want 2", s.Flats)
	}
}

func TestStreaksResetOnFlat(t *testing.T) {
	s := Compute(tradesFromPnL(10, 10, 0, 10, -5, -5, -5, 0, -5))
	if s.LongestWinStreak != 2 {
		t.Errorf("longest win streak = %d, want 2", s.LongestWinStreak)
	}
	if s.LongestLossStreak != 3 {
		t.Errorf("longest loss streak = %d, want 3", s.LongestLossStreak)
	}
}

func TestMaxDrawdownFromInitialEquity(t *testing.T) {
	// An opening loss draws down from the flat starting equity.
	s := Compute(tradesFromPnL(-40, -10, 30))
	if s.MaxDrawdown.Value != 50 {
		t.Errorf("max drawdown = %v, want 50", s.MaxDrawdown.Value)
	}
	if s.MaxDrawdown.PeakIndex != -1 {
		t.Errorf("peak index = %d, want -1 (starting equity)", s.MaxDrawdown.PeakIndex)
	}
	if s.MaxDrawdown.TroughIndex != 1 {
		t.Errorf("trough index = %d, want 1", s.MaxDrawdown.TroughIndex)
	}
}

func TestComputeSortsByExitTime(t *testing.T) {
	trades := tradesFromPnL(100, -50, 30, -80, 20)
	// Reverse the slice; the summary must not change.
	for i, j := 0, len(trades)-1; i < j; i, j = i+1, j-1 {
		trades[i], trades[j] = trades[j], trades[i]
	}
	s := Compute(trades)
	if s.MaxDrawdown.Value != 100 {
		t.Errorf("max drawdown on shuffled input = %v, want 100", s.MaxDrawdown.Value)
	}
	if !s.PeriodStart.Before(s.PeriodEnd) {
		t.Errorf("period [%v,%v] not ordered", s.PeriodStart, s.PeriodEnd)
	}
}

func TestByHourUsesEntryHourInLocation(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatal(err)
	}

	// 09:00 UTC is 11:00 in Berlin during DST.
	trades := []models.Trade{{
		Symbol:    "ETHUSDT",
		EntryTime: time.Date(2025, 8, 4, 9, 0, 0, 0, time.UTC),
		ExitTime:  time.Date(2025, 8, 4, 23, 30, 0, 0, time.UTC),
		PnL:       5,
	}}

	byHour := ByHour(trades, loc)
	if _, ok := byHour[11]; !ok {
		t.Errorf("expected bucket for entry hour 11, got %v", keys(byHour))
	}
	if len(byHour) != 1 {
		t.Errorf("expected a single bucket, got %d", len(byHour))
	}
}

func keys(m map[int]Summary) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestBySymbolPartitions(t *testing.T) {
	trades := tradesFromPnL(10, -5, 20)
	trades[1].Symbol = "ETHUSDT"

	bySym := BySymbol(trades)
	if len(bySym) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(bySym))
	}
	if bySym["BTCUSDT"].TotalPnL != 30 {
		t.Errorf("BTCUSDT PnL = %v, want 30", bySym["BTCUSDT"].TotalPnL)
	}
	if bySym["ETHUSDT"].TotalPnL != -5 {
		t.Errorf("ETHUSDT PnL = %v, want -5", bySym["ETHUSDT"].TotalPnL)
	}
}

func TestCumulativePnL(t *testing.T) {
	cum := CumulativePnL(tradesFromPnL(100, -50, 30, -80, 20))
	want := []float64{100, 50, 80, 0, 20}
	for i := range want {
		if cum[i] != want[i] {
			t.Errorf("cum[%d] = %v, want %v", i, cum[i], want[i])
		}
	}
}

func TestDurationStats(t *testing.T) {
	trades := tradesFromPnL(10, -5)
	// Stretch the loser to three hours.
	trades[1].ExitTime = trades[1].EntryTime.Add(3 * time.Hour)

	s := Compute(trades)
	if s.Durations.MeanWin != time.Hour {
		t.Errorf("mean win duration = %v, want 1h", s.Durations.MeanWin)
	}
	if s.Durations.MeanLoss != 3*time.Hour {
		t.Errorf("mean loss duration = %v, want 3h", s.Durations.MeanLoss)
	}
	if !s.Durations.LosersHeldLonger {
		t.Error("expected LosersHeldLonger")
	}
}
