package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"bybit-review/internal/models"
)

// WriteTradesCSV writes one row per trade, columns matching the trade
// record fields.
func WriteTradesCSV(path string, trades []models.Trade) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{
		"symbol", "side", "entry_time", "exit_time", "size",
		"entry_price", "exit_price", "pnl", "fees", "leverage",
		"duration_hours", "stop_loss", "take_profit", "order_id",
	}); err != nil {
		return err
	}

	for _, t := range trades {
		if err := writer.Write([]string{
			t.Symbol,
			string(t.Side),
			t.EntryTime.Format(time.RFC3339),
			t.ExitTime.Format(time.RFC3339),
			fmt.Sprintf("%g", t.Size),
			fmt.Sprintf("%.8g", t.EntryPrice),
			fmt.Sprintf("%.8g", t.ExitPrice),
			fmt.Sprintf("%.4f", t.PnL),
			fmt.Sprintf("%.4f", t.Fees),
			fmt.Sprintf("%g", t.Leverage),
			fmt.Sprintf("%.2f", t.Duration().Hours()),
			fmt.Sprintf("%g", t.StopLoss),
			fmt.Sprintf("%g", t.TakeProfit),
			t.OrderID,
		}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
