// Package cli provides the command-line interface for the review tool.
package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"bybit-review/internal/config"
	"bybit-review/internal/errors"
	"bybit-review/internal/plan"
	"bybit-review/internal/report"
)

// addReportCommands adds the report command.
func addReportCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newReportCmd(app))
}

func newReportCmd(app *App) *cobra.Command {
	var (
		days   int
		outDir string
		noLLM  bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a full trading review report",
		Long: `Fetch closed positions, compute statistics, and render the report
bundle: report.html, trades.csv, PNG charts, and llm_analysis.json when
an OpenRouter API key is configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			loc := app.Config.Location()
			end := time.Now()
			start := end.AddDate(0, 0, -days)

			output.Info("Fetching closed positions from %s to %s...",
				FormatDate(start, loc), FormatDate(end, loc))

			trades, err := app.Exchange.FetchClosedPnL(ctx, start, end)
			if err != nil {
				output.Error("Fetch failed: %v", err)
				return err
			}

			data := report.NewData(trades, loc, start, end, app.Config.Notes)

			// Plan adherence is optional: no plan file, no scorecard.
			planPath := config.PlanPath(app.ConfigDir)
			if _, statErr := os.Stat(planPath); statErr == nil {
				tp, err := plan.Load(planPath)
				if err != nil {
					output.Warning("Trading plan not loaded: %v", err)
				} else {
					sc := plan.Score(trades, tp, loc)
					data.Scorecard = &sc
				}
			}

			if !noLLM && len(trades) > 0 {
				output.Info("Requesting AI analysis...")
				analysis, err := app.Analyzer.Analyze(ctx, report.LLMPayload(data), app.Config.Notes)
				if err != nil {
					app.Logger.Warn().Err(err).Msg("analysis skipped")
					output.Dim("AI analysis skipped: %v", err)
				} else {
					data.Analysis = analysis
				}
			}

			builder := &report.Builder{
				Charts: report.ChartRenderer{
					Width:  app.Config.Report.ChartWidth,
					Height: app.Config.Report.ChartHeight,
				},
				Logger: app.Logger,
			}

			// Each run gets its own directory so reruns never clobber
			// earlier reports.
			runDir := filepath.Join(outDir, end.In(loc).Format("2006-01-02_150405"))

			htmlPath, errs := builder.Write(runDir, data)
			for _, e := range errs {
				output.Warning("Artifact failed: %v", e)
			}
			if htmlPath == "" {
				return errors.NewRenderError("report.html", errors.ErrNoData)
			}

			printSummary(output, data)
			output.Println()
			output.Success("Report written to %s", htmlPath)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "lookback window in days (default from config)")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default from config)")
	cmd.Flags().BoolVar(&noLLM, "no-llm", false, "skip the AI analysis section")

	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		if days <= 0 {
			days = app.Config.Fetch.WindowDays
		}
		if outDir == "" {
			outDir = app.Config.Report.OutputDir
		}
	}

	return cmd
}

// printSummary prints the headline numbers to the terminal so the report
// is useful without opening the HTML.
func printSummary(output *Output, data *report.Data) {
	s := data.Summary
	if !s.HasData {
		output.Info("No closed positions in this period.")
		return
	}

	output.Println()
	output.Bold("Summary")
	output.Printf("  Trades:        %d (%d W / %d L / %d flat)\n", s.TotalTrades, s.Wins, s.Losses, s.Flats)
	output.Printf("  Total PnL:     %s\n", output.FormatPnL(s.TotalPnL))
	output.Printf("  Win Rate:      %s\n", FormatRate(s.WinRate))
	output.Printf("  Profit Factor: %s\n", FormatRatio(s.ProfitFactor))
	output.Printf("  Expectancy:    %s\n", output.FormatPnL(s.Expectancy))
	output.Printf("  Max Drawdown:  %s\n", output.Red(FormatMoney(s.MaxDrawdown.Value)))

	if sc := data.Scorecard; sc != nil && sc.TotalCount > 0 {
		output.Println()
		output.Bold("Plan Adherence")
		output.Printf("  Score:         %s (%d/%d compliant)\n",
			FormatRate(sc.Score), sc.CompliantCount, sc.TotalCount)
		output.Printf("  PnL-Weighted:  %s\n", FormatRate(sc.PnLWeightedScore))
	}
}
