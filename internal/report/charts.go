package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"bybit-review/internal/errors"
	"bybit-review/internal/metrics"
	"bybit-review/internal/models"
)

var (
	colorProfit = drawing.Color{R: 46, G: 139, B: 87, A: 255}
	colorLoss   = drawing.Color{R: 205, G: 52, B: 52, A: 255}
	colorLine   = drawing.Color{R: 54, G: 92, B: 196, A: 255}
	colorPeak   = drawing.Color{R: 160, G: 160, B: 160, A: 255}
)

// ChartRenderer renders the report's PNG charts. It performs no analysis:
// every value it draws was computed by the metrics package.
type ChartRenderer struct {
	Width  int
	Height int
}

// RenderAll renders every chart into dir and returns the relative paths of
// the charts that succeeded, keyed by chart name. A failed chart yields a
// RenderError for that artifact only; the rest are still attempted.
func (r ChartRenderer) RenderAll(dir string, data *Data) (map[string]string, []error) {
	plotsDir := filepath.Join(dir, "plots")
	if err := os.MkdirAll(plotsDir, 0755); err != nil {
		return nil, []error{errors.NewRenderError("plots", err)}
	}

	type job struct {
		name   string
		render func(path string) error
	}

	jobs := []job{
		{"cumulative_pnl", func(p string) error { return r.cumulativePnL(p, data.Trades) }},
		{"daily_pnl", func(p string) error { return r.dailyPnL(p, data.ByDay) }},
		{"pnl_distribution", func(p string) error { return r.pnlDistribution(p, data.Trades) }},
		{"duration_distribution", func(p string) error { return r.durationDistribution(p, data.Trades) }},
		{"hourly_pnl", func(p string) error { return r.hourlyPnL(p, data.ByHour) }},
		{"symbol_pnl", func(p string) error { return r.symbolPnL(p, data.BySymbol) }},
	}

	paths := make(map[string]string, len(jobs))
	var errs []error
	for _, j := range jobs {
		rel := filepath.Join("plots", j.name+".png")
		if err := j.render(filepath.Join(plotsDir, j.name+".png")); err != nil {
			errs = append(errs, errors.NewRenderError(j.name, err))
			continue
		}
		paths[j.name] = rel
	}
	return paths, errs
}

// cumulativePnL draws the running cumulative PnL together with its running
// peak; the gap between the two lines is the drawdown.
func (r ChartRenderer) cumulativePnL(path string, trades []models.Trade) error {
	if len(trades) < 2 {
		return fmt.Errorf("need at least 2 trades, have %d", len(trades))
	}

	cum := metrics.CumulativePnL(trades)
	xs := make([]time.Time, len(trades))
	peaks := make([]float64, len(cum))
	peak := math.Inf(-1)
	for i, t := range trades {
		xs[i] = t.ExitTime
		if cum[i] > peak {
			peak = cum[i]
		}
		peaks[i] = peak
	}

	graph := chart.Chart{
		Title:  "Cumulative PnL Over Time",
		Width:  r.Width,
		Height: r.Height,
		XAxis:  chart.XAxis{ValueFormatter: chart.TimeValueFormatterWithFormat("01-02 15:04")},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "running peak",
				XValues: xs,
				YValues: peaks,
				Style:   chart.Style{StrokeColor: colorPeak, StrokeDashArray: []float64{4, 4}},
			},
			chart.TimeSeries{
				Name:    "cumulative PnL",
				XValues: xs,
				YValues: cum,
				Style:   chart.Style{StrokeColor: colorLine, StrokeWidth: 2},
			},
		},
	}
	return renderPNG(graph.Render, path)
}

func (r ChartRenderer) dailyPnL(path string, byDay map[string]metrics.Summary) error {
	if len(byDay) == 0 {
		return fmt.Errorf("no daily partitions")
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)

	bars := make([]chart.Value, 0, len(days))
	values := make([]float64, 0, len(days))
	for _, d := range days {
		pnl := byDay[d].TotalPnL
		values = append(values, pnl)
		bars = append(bars, chart.Value{
			Label: d[5:], // MM-DD
			Value: pnl,
			Style: chart.Style{FillColor: pnlColor(pnl), StrokeColor: pnlColor(pnl)},
		})
	}

	graph := chart.BarChart{
		Title:    "Daily PnL",
		Width:    r.Width,
		Height:   r.Height,
		BarWidth: barWidth(r.Width, len(bars)),
		YAxis:    chart.YAxis{Range: yRange(values)},
		Bars:     bars,
	}
	return renderPNG(graph.Render, path)
}

func (r ChartRenderer) pnlDistribution(path string, trades []models.Trade) error {
	values := make([]float64, len(trades))
	for i, t := range trades {
		values[i] = t.PnL
	}
	return r.histogram(path, "PnL Distribution", values, 20)
}

func (r ChartRenderer) durationDistribution(path string, trades []models.Trade) error {
	values := make([]float64, len(trades))
	for i, t := range trades {
		values[i] = t.Duration().Hours()
	}
	return r.histogram(path, "Trade Duration Distribution (hours)", values, 20)
}

func (r ChartRenderer) hourlyPnL(path string, byHour map[int]metrics.Summary) error {
	if len(byHour) == 0 {
		return fmt.Errorf("no hourly partitions")
	}

	hours := make([]int, 0, len(byHour))
	for h := range byHour {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	bars := make([]chart.Value, 0, len(hours))
	values := make([]float64, 0, len(hours))
	for _, h := range hours {
		avg := byHour[h].Expectancy
		values = append(values, avg)
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%02d:00", h),
			Value: avg,
			Style: chart.Style{FillColor: pnlColor(avg), StrokeColor: pnlColor(avg)},
		})
	}

	graph := chart.BarChart{
		Title:    "Average PnL by Hour of Entry",
		Width:    r.Width,
		Height:   r.Height,
		BarWidth: barWidth(r.Width, len(bars)),
		YAxis:    chart.YAxis{Range: yRange(values)},
		Bars:     bars,
	}
	return renderPNG(graph.Render, path)
}

func (r ChartRenderer) symbolPnL(path string, bySymbol map[string]metrics.Summary) error {
	if len(bySymbol) == 0 {
		return fmt.Errorf("no symbol partitions")
	}

	symbols := make([]string, 0, len(bySymbol))
	for s := range bySymbol {
		symbols = append(symbols, s)
	}
	sort.Slice(symbols, func(i, j int) bool {
		return bySymbol[symbols[i]].TotalPnL > bySymbol[symbols[j]].TotalPnL
	})

	bars := make([]chart.Value, 0, len(symbols))
	values := make([]float64, 0, len(symbols))
	for _, s := range symbols {
		pnl := bySymbol[s].TotalPnL
		values = append(values, pnl)
		bars = append(bars, chart.Value{
			Label: s,
			Value: pnl,
			Style: chart.Style{FillColor: pnlColor(pnl), StrokeColor: pnlColor(pnl)},
		})
	}

	graph := chart.BarChart{
		Title:    "Total PnL by Symbol",
		Width:    r.Width,
		Height:   r.Height,
		BarWidth: barWidth(r.Width, len(bars)),
		YAxis:    chart.YAxis{Range: yRange(values)},
		Bars:     bars,
	}
	return renderPNG(graph.Render, path)
}

// histogram bins values into equal-width buckets and renders counts.
func (r ChartRenderer) histogram(path, title string, values []float64, bins int) error {
	if len(values) == 0 {
		return fmt.Errorf("no values")
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	width := (hi - lo) / float64(bins)

	counts := make([]int, bins)
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}

	bars := make([]chart.Value, bins)
	barValues := make([]float64, bins)
	for i, c := range counts {
		center := lo + width*(float64(i)+0.5)
		barValues[i] = float64(c)
		bars[i] = chart.Value{
			Label: fmt.Sprintf("%.0f", center),
			Value: float64(c),
			Style: chart.Style{FillColor: colorLine, StrokeColor: colorLine},
		}
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    r.Width,
		Height:   r.Height,
		BarWidth: barWidth(r.Width, bins),
		YAxis:    chart.YAxis{Range: yRange(barValues)},
		Bars:     bars,
	}
	return renderPNG(graph.Render, path)
}

// yRange pins an explicit axis range so single-valued bar sets do not
// produce a zero-delta range, which go-chart refuses to render.
func yRange(values []float64) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func pnlColor(pnl float64) drawing.Color {
	if pnl < 0 {
		return colorLoss
	}
	return colorProfit
}

func barWidth(chartWidth, bars int) int {
	if bars == 0 {
		return 10
	}
	w := chartWidth / (bars * 2)
	if w < 4 {
		w = 4
	}
	if w > 60 {
		w = 60
	}
	return w
}

func renderPNG(render func(chart.RendererProvider, io.Writer) error, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return render(chart.PNG, f)
}
