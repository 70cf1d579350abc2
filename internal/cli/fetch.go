// Package cli provides the command-line interface for the review tool.
package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"bybit-review/internal/report"
)

// addFetchCommands adds the fetch command.
func addFetchCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newFetchCmd(app))
}

func newFetchCmd(app *App) *cobra.Command {
	var (
		days    int
		csvPath string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch closed positions and export them to CSV",
		Long:  "Fetch closed positions from Bybit without generating a report.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			loc := app.Config.Location()
			end := time.Now()
			start := end.AddDate(0, 0, -days)

			trades, err := app.Exchange.FetchClosedPnL(ctx, start, end)
			if err != nil {
				output.Error("Fetch failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}

			if len(trades) == 0 {
				output.Info("No closed positions between %s and %s.",
					FormatDate(start, loc), FormatDate(end, loc))
				return nil
			}

			table := NewTable(output, "Exit Time", "Symbol", "Side", "Size", "Entry", "Exit", "PnL", "Held")
			var total float64
			for _, t := range trades {
				total += t.PnL
				table.AddRow(
					FormatDateTime(t.ExitTime, loc),
					t.Symbol,
					string(t.Side),
					FormatMoney(t.Size),
					FormatMoney(t.EntryPrice),
					FormatMoney(t.ExitPrice),
					output.FormatPnL(t.PnL),
					FormatDuration(t.Duration()),
				)
			}
			table.Render()

			output.Println()
			output.Printf("  %d trades, total PnL %s\n", len(trades), output.FormatPnL(total))

			if err := os.MkdirAll(filepath.Dir(csvPath), 0755); err != nil {
				return err
			}
			if err := report.WriteTradesCSV(csvPath, trades); err != nil {
				output.Error("CSV export failed: %v", err)
				return err
			}
			output.Success("Exported to %s", csvPath)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "lookback window in days (default from config)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV output path (default <output_dir>/trades.csv)")

	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		if days <= 0 {
			days = app.Config.Fetch.WindowDays
		}
		if csvPath == "" {
			csvPath = filepath.Join(app.Config.Report.OutputDir, "trades.csv")
		}
	}

	return cmd
}
