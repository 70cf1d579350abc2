// Package cli provides the command-line interface for the review tool.
package cli

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bybit-review/internal/config"
	"bybit-review/internal/metrics"
	"bybit-review/internal/plan"
)

// addPlanCommands adds trading plan commands.
func addPlanCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Trading plan management",
		Long:  "Define the rules you trade by and score your trades against them.",
	}

	cmd.AddCommand(newPlanShowCmd(app))
	cmd.AddCommand(newPlanInitCmd(app))
	cmd.AddCommand(newPlanCheckCmd(app))

	rootCmd.AddCommand(cmd)
}

func newPlanShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current trading plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			tp, err := plan.Load(config.PlanPath(app.ConfigDir))
			if err != nil {
				output.Warning("No trading plan found. Run 'review plan init' to create one.")
				return err
			}

			if output.IsJSON() {
				return output.JSON(tp)
			}

			output.Bold("Trading Plan")
			if len(tp.AllowedSymbols) == 0 {
				output.Printf("  Symbols:          any\n")
			} else {
				output.Printf("  Symbols:          %s\n", strings.Join(tp.AllowedSymbols, ", "))
			}
			if tp.MaxPositionSize > 0 {
				output.Printf("  Max Position:     %s\n", FormatMoney(tp.MaxPositionSize))
			} else {
				output.Printf("  Max Position:     unlimited\n")
			}
			if tp.Hours.StartHour == tp.Hours.EndHour {
				output.Printf("  Trading Hours:    any\n")
			} else {
				output.Printf("  Trading Hours:    %02d:00 - %02d:00\n", tp.Hours.StartHour, tp.Hours.EndHour)
			}
			output.Printf("  Require Stop:     %v\n", tp.RequireStopLoss)
			output.Printf("  Require Target:   %v\n", tp.RequireTakeProfit)
			return nil
		},
	}
}

func newPlanInitCmd(app *App) *cobra.Command {
	var useTemplate bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a trading plan",
		Long:  "Walk through an interactive wizard, or write a template to edit by hand.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			planPath := config.PlanPath(app.ConfigDir)

			if _, err := os.Stat(planPath); err == nil {
				output.Warning("A trading plan already exists at %s", planPath)
				output.Dim("Delete it first if you want to start over.")
				return nil
			}

			if useTemplate {
				path, err := config.CreateTemplatePlan(app.ConfigDir)
				if err != nil {
					return err
				}
				output.Success("Template plan written to %s", path)
				output.Dim("Edit it to match your rules.")
				return nil
			}

			tp, err := plan.RunWizard()
			if err != nil {
				return err
			}
			if err := plan.Save(tp, planPath); err != nil {
				return err
			}
			output.Success("Trading plan saved to %s", planPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&useTemplate, "template", false, "write a template file instead of running the wizard")
	return cmd
}

func newPlanCheckCmd(app *App) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Score recent trades against the plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			tp, err := plan.Load(config.PlanPath(app.ConfigDir))
			if err != nil {
				output.Warning("No trading plan found. Run 'review plan init' to create one.")
				return err
			}

			loc := app.Config.Location()
			end := time.Now()
			start := end.AddDate(0, 0, -days)

			trades, err := app.Exchange.FetchClosedPnL(ctx, start, end)
			if err != nil {
				output.Error("Fetch failed: %v", err)
				return err
			}
			if len(trades) == 0 {
				output.Info("No closed positions between %s and %s.",
					FormatDate(start, loc), FormatDate(end, loc))
				return nil
			}

			sc := plan.Score(trades, tp, loc)
			if output.IsJSON() {
				return output.JSON(sc)
			}

			output.Bold("Plan Adherence: %s (%d/%d compliant)",
				FormatRate(sc.Score), sc.CompliantCount, sc.TotalCount)
			output.Printf("  PnL-Weighted:            %s\n", FormatRate(sc.PnLWeightedScore))
			output.Printf("  Avg PnL (compliant):     %s\n", formatRatioPnL(output, sc.AvgPnLCompliant))
			output.Printf("  Avg PnL (non-compliant): %s\n", formatRatioPnL(output, sc.AvgPnLNonCompliant))
			output.Println()

			var violations []plan.Result
			for _, r := range sc.Results {
				if !r.Compliant {
					violations = append(violations, r)
				}
			}
			if len(violations) == 0 {
				output.Success("✓ Every trade followed the plan.")
				return nil
			}

			output.Bold("Violations")
			table := NewTable(output, "Exit Time", "Symbol", "PnL", "Broken Rules")
			for _, r := range violations {
				table.AddRow(
					FormatDateTime(r.Trade.ExitTime, loc),
					r.Trade.Symbol,
					output.FormatPnL(r.Trade.PnL),
					output.Yellow(TruncateString(strings.Join(r.Reasons, ", "), 60)),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "lookback window in days (default from config)")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		if days <= 0 {
			days = app.Config.Fetch.WindowDays
		}
	}
	return cmd
}

func formatRatioPnL(output *Output, r metrics.Ratio) string {
	if !r.Valid {
		return "n/a"
	}
	return output.FormatPnL(r.Value)
}
