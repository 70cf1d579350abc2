// Package metrics computes descriptive trading statistics from closed trades.
//
// Every function here is a pure function of its inputs: no state is carried
// between runs and inputs are never mutated.
package metrics

import (
	"encoding/json"
	"sort"
	"time"

	"bybit-review/internal/models"
)

// Ratio is a ratio metric that may be undefined (for example the profit
// factor when there are no losing trades). Undefined values carry
// Valid=false instead of an infinity so formatting never sees NaN/Inf.
type Ratio struct {
	Value float64
	Valid bool
}

// MarshalJSON encodes an undefined ratio as null so serialized summaries
// never carry infinities.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// Drawdown describes the maximum peak-to-trough decline of cumulative PnL,
// measured over trades ordered by exit time.
type Drawdown struct {
	Value       float64
	PeakIndex   int
	TroughIndex int
	PeakTime    time.Time
	TroughTime  time.Time
}

// DurationStats compares holding durations of winners and losers.
type DurationStats struct {
	MeanWin    time.Duration
	MedianWin  time.Duration
	MeanLoss   time.Duration
	MedianLoss time.Duration
	// LosersHeldLonger flags the common discipline failure of sitting in
	// losing positions longer than winning ones.
	LosersHeldLonger bool
}

// Summary holds the aggregate statistics for a set of trades.
// A Summary with HasData=false is the "no data" sentinel: every metric is
// zero-valued and every Ratio is invalid.
type Summary struct {
	HasData     bool
	TotalTrades int
	Wins        int
	Losses      int
	Flats       int

	TotalPnL    float64
	GrossProfit float64 // >= 0
	GrossLoss   float64 // <= 0

	ProfitFactor Ratio
	WinRate      Ratio
	RewardRisk   Ratio

	AvgWin      float64
	AvgLoss     float64 // <= 0
	LargestWin  float64
	LargestLoss float64
	Expectancy  float64

	MaxDrawdown       Drawdown
	LongestWinStreak  int
	LongestLossStreak int

	PeriodStart time.Time
	PeriodEnd   time.Time

	Durations DurationStats
}

// Compute produces a Summary for the given trades. Trades are evaluated in
// exit-time order; the input slice is not modified.
func Compute(trades []models.Trade) Summary {
	if len(trades) == 0 {
		return Summary{}
	}

	ordered := sortedByExit(trades)

	s := Summary{
		HasData:     true,
		TotalTrades: len(ordered),
		PeriodStart: ordered[0].ExitTime,
		PeriodEnd:   ordered[len(ordered)-1].ExitTime,
	}

	for _, t := range ordered {
		s.TotalPnL += t.PnL
		switch {
		case t.IsWin():
			s.Wins++
			s.GrossProfit += t.PnL
			if t.PnL > s.LargestWin {
				s.LargestWin = t.PnL
			}
		case t.IsLoss():
			s.Losses++
			s.GrossLoss += t.PnL
			if t.PnL < s.LargestLoss {
				s.LargestLoss = t.PnL
			}
		default:
			s.Flats++
		}
	}

	s.WinRate = Ratio{Value: float64(s.Wins) / float64(s.TotalTrades), Valid: true}
	s.Expectancy = s.TotalPnL / float64(s.TotalTrades)

	if s.Wins > 0 {
		s.AvgWin = s.GrossProfit / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLoss = s.GrossLoss / float64(s.Losses)
	}

	grossLossMag := -s.GrossLoss
	switch {
	case grossLossMag > 0:
		s.ProfitFactor = Ratio{Value: s.GrossProfit / grossLossMag, Valid: true}
	case s.GrossProfit == 0:
		// No wins and no losses: a defined zero, not "undefined".
		s.ProfitFactor = Ratio{Value: 0, Valid: true}
	default:
		// Profit without any loss: undefined rather than +Inf.
		s.ProfitFactor = Ratio{}
	}

	if s.AvgLoss != 0 {
		s.RewardRisk = Ratio{Value: s.AvgWin / -s.AvgLoss, Valid: true}
	}

	s.MaxDrawdown = maxDrawdown(ordered)
	s.LongestWinStreak, s.LongestLossStreak = streaks(ordered)
	s.Durations = durationStats(ordered)

	return s
}

// maxDrawdown tracks the running peak of cumulative PnL and reports the
// largest peak-to-trough decline plus the interval it occurred over.
func maxDrawdown(ordered []models.Trade) Drawdown {
	var dd Drawdown
	var cum, peak float64
	peakIdx := -1 // the flat starting equity, before any trade

	var peakTime time.Time
	if len(ordered) > 0 {
		peakTime = ordered[0].ExitTime
	}

	for i, t := range ordered {
		cum += t.PnL
		if cum > peak {
			peak = cum
			peakIdx = i
			peakTime = t.ExitTime
		}
		if d := peak - cum; d > dd.Value {
			dd.Value = d
			dd.PeakIndex = peakIdx
			dd.TroughIndex = i
			dd.PeakTime = peakTime
			dd.TroughTime = t.ExitTime
		}
	}

	return dd
}

// streaks scans trades in time order. A streak grows while the PnL sign
// matches; a sign change or a flat trade resets it.
func streaks(ordered []models.Trade) (longestWin, longestLoss int) {
	var curWin, curLoss int
	for _, t := range ordered {
		switch {
		case t.IsWin():
			curWin++
			curLoss = 0
		case t.IsLoss():
			curLoss++
			curWin = 0
		default:
			curWin, curLoss = 0, 0
		}
		if curWin > longestWin {
			longestWin = curWin
		}
		if curLoss > longestLoss {
			longestLoss = curLoss
		}
	}
	return longestWin, longestLoss
}

func durationStats(ordered []models.Trade) DurationStats {
	var winDur, lossDur []time.Duration
	for _, t := range ordered {
		switch {
		case t.IsWin():
			winDur = append(winDur, t.Duration())
		case t.IsLoss():
			lossDur = append(lossDur, t.Duration())
		}
	}

	ds := DurationStats{
		MeanWin:    meanDuration(winDur),
		MedianWin:  medianDuration(winDur),
		MeanLoss:   meanDuration(lossDur),
		MedianLoss: medianDuration(lossDur),
	}
	ds.LosersHeldLonger = len(winDur) > 0 && len(lossDur) > 0 && ds.MeanLoss > ds.MeanWin
	return ds
}

func meanDuration(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range ds {
		sum += d
	}
	return sum / time.Duration(len(ds))
}

func medianDuration(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(ds))
	copy(sorted, ds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// BySymbol partitions trades by symbol and computes the same summary shape
// per partition. Symbols with no trades are simply absent.
func BySymbol(trades []models.Trade) map[string]Summary {
	groups := make(map[string][]models.Trade)
	for _, t := range trades {
		groups[t.Symbol] = append(groups[t.Symbol], t)
	}

	out := make(map[string]Summary, len(groups))
	for symbol, group := range groups {
		out[symbol] = Compute(group)
	}
	return out
}

// ByHour partitions trades by hour of entry in the given location.
// Hours with no trades are omitted, not zero-filled.
func ByHour(trades []models.Trade, loc *time.Location) map[int]Summary {
	groups := make(map[int][]models.Trade)
	for _, t := range trades {
		h := t.EntryTime.In(loc).Hour()
		groups[h] = append(groups[h], t)
	}

	out := make(map[int]Summary, len(groups))
	for hour, group := range groups {
		out[hour] = Compute(group)
	}
	return out
}

// ByDay partitions trades by the calendar day of entry in the given
// location, keyed as YYYY-MM-DD.
func ByDay(trades []models.Trade, loc *time.Location) map[string]Summary {
	groups := make(map[string][]models.Trade)
	for _, t := range trades {
		day := t.EntryTime.In(loc).Format("2006-01-02")
		groups[day] = append(groups[day], t)
	}

	out := make(map[string]Summary, len(groups))
	for day, group := range groups {
		out[day] = Compute(group)
	}
	return out
}

// CumulativePnL returns the running cumulative PnL in exit-time order,
// one value per trade. Inputs are not modified.
func CumulativePnL(trades []models.Trade) []float64 {
	ordered := sortedByExit(trades)
	out := make([]float64, len(ordered))
	var cum float64
	for i, t := range ordered {
		cum += t.PnL
		out[i] = cum
	}
	return out
}

func sortedByExit(trades []models.Trade) []models.Trade {
	ordered := make([]models.Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ExitTime.Before(ordered[j].ExitTime)
	})
	return ordered
}
