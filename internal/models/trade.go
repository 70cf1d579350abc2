// Package models defines the core data types shared across the application.
package models

import "time"

// Side represents the direction of a closed position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Trade represents one closed position fetched from the exchange.
// Trades are immutable once created; all analysis consumes them read-only.
type Trade struct {
	Symbol     string
	Side       Side
	EntryTime  time.Time
	ExitTime   time.Time
	PnL        float64 // realized, signed, fees included
	EntryPrice float64
	ExitPrice  float64
	Size       float64
	Fees       float64
	Leverage   float64
	OrderID    string

	// Protective order levels as reported by the exchange.
	// Zero means the order carried no such level.
	StopLoss   float64
	TakeProfit float64
}

// Duration returns the holding duration of the trade.
func (t Trade) Duration() time.Duration {
	return t.ExitTime.Sub(t.EntryTime)
}

// HasStopLoss reports whether a stop-loss was attached to the position.
func (t Trade) HasStopLoss() bool {
	return t.StopLoss != 0
}

// HasTakeProfit reports whether a take-profit was attached to the position.
func (t Trade) HasTakeProfit() bool {
	return t.TakeProfit != 0
}

// IsWin reports whether the trade closed with a positive PnL.
// Flat trades (PnL == 0) are neither wins nor losses.
func (t Trade) IsWin() bool {
	return t.PnL > 0
}

// IsLoss reports whether the trade closed with a negative PnL.
func (t Trade) IsLoss() bool {
	return t.PnL < 0
}
