// Package report assembles metrics, charts, and narrative text into
// rendered artifacts: an HTML report, a CSV of raw trades, and PNG charts.
// It performs rendering only; every number it emits was computed upstream.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"bybit-review/internal/config"
	"bybit-review/internal/errors"
	"bybit-review/internal/llm"
	"bybit-review/internal/logging"
	"bybit-review/internal/metrics"
	"bybit-review/internal/models"
	"bybit-review/internal/plan"
)

// Data is everything a report renders. It is assembled once per run and
// treated as read-only by all renderers.
type Data struct {
	GeneratedAt time.Time
	Location    *time.Location
	WindowStart time.Time
	WindowEnd   time.Time

	// Trades is ordered by exit time ascending; every renderer that draws
	// a time series relies on that ordering.
	Trades   []models.Trade
	Summary  metrics.Summary
	BySymbol map[string]metrics.Summary
	ByHour   map[int]metrics.Summary
	ByDay    map[string]metrics.Summary

	Risk      *RiskMultiples
	Scorecard *plan.Scorecard
	Analysis  llm.Analysis
	Notes     config.UserNotes
}

// NewData computes all groupings for the given trades. The input slice is
// not modified; Data holds its own exit-time-ordered copy.
func NewData(trades []models.Trade, loc *time.Location, start, end time.Time, notes config.UserNotes) *Data {
	ordered := make([]models.Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ExitTime.Before(ordered[j].ExitTime)
	})

	summary := metrics.Compute(ordered)
	return &Data{
		GeneratedAt: time.Now(),
		Location:    loc,
		WindowStart: start,
		WindowEnd:   end,
		Trades:      ordered,
		Summary:     summary,
		BySymbol:    metrics.BySymbol(ordered),
		ByHour:      metrics.ByHour(ordered, loc),
		ByDay:       metrics.ByDay(ordered, loc),
		Risk:        riskMultiples(ordered, summary, notes.StandardRisk),
		Notes:       notes,
	}
}

// Builder writes a report bundle to disk.
type Builder struct {
	Charts ChartRenderer
	Logger zerolog.Logger
}

// Write renders all artifacts into dir. A failure on one artifact is
// recorded and the remaining artifacts are still attempted; the returned
// errors are all RenderErrors. The HTML path is returned when it rendered.
func (b *Builder) Write(dir string, data *Data) (string, []error) {
	var errs []error

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", []error{errors.NewRenderError("report_dir", err)}
	}

	chartPaths, chartErrs := b.Charts.RenderAll(dir, data)
	errs = append(errs, chartErrs...)
	for name, rel := range chartPaths {
		logging.LogArtifact(b.Logger, "chart:"+name, filepath.Join(dir, rel))
	}

	csvPath := filepath.Join(dir, "trades.csv")
	if err := WriteTradesCSV(csvPath, data.Trades); err != nil {
		errs = append(errs, errors.NewRenderError("trades.csv", err))
	} else {
		logging.LogArtifact(b.Logger, "csv", csvPath)
	}

	if data.Analysis != nil {
		jsonPath := filepath.Join(dir, "llm_analysis.json")
		if err := writeJSON(jsonPath, data.Analysis); err != nil {
			errs = append(errs, errors.NewRenderError("llm_analysis.json", err))
		} else {
			logging.LogArtifact(b.Logger, "llm_analysis", jsonPath)
		}
	}

	htmlPath := filepath.Join(dir, "report.html")
	if err := WriteHTML(htmlPath, data, chartPaths); err != nil {
		errs = append(errs, errors.NewRenderError("report.html", err))
		return "", errs
	}
	logging.LogArtifact(b.Logger, "html", htmlPath)

	return htmlPath, errs
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
