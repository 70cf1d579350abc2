package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"sort"
	"strings"
	"time"

	"bybit-review/internal/metrics"
)

// symbolRow and hourRow are pre-sorted table rows; html/template cannot
// iterate maps in a useful order.
type symbolRow struct {
	Symbol  string
	Summary metrics.Summary
}

type hourRow struct {
	Hour    int
	Summary metrics.Summary
}

type analysisSection struct {
	Title string
	Body  string
}

// htmlView is the root template context.
type htmlView struct {
	*Data
	ChartPaths      map[string]string
	ChartOrder      []string
	SymbolRows      []symbolRow
	HourRows        []hourRow
	Recommendations []string
	AnalysisParts   []analysisSection
}

var chartTitles = map[string]string{
	"cumulative_pnl":        "Cumulative PnL",
	"daily_pnl":             "Daily PnL",
	"pnl_distribution":      "PnL Distribution",
	"duration_distribution": "Trade Duration Distribution",
	"hourly_pnl":            "PnL by Hour of Day",
	"symbol_pnl":            "PnL by Symbol",
}

var violationLabels = map[string]string{
	"symbol_not_allowed":    "Symbol not in plan",
	"position_too_large":    "Position size over limit",
	"outside_trading_hours": "Outside trading hours",
	"missing_stop_loss":     "No stop loss set",
	"missing_take_profit":   "No take profit set",
}

// WriteHTML renders the full report page to path. chartPaths holds the
// relative paths of the charts that rendered; missing charts are simply
// omitted from the page.
func WriteHTML(path string, data *Data, chartPaths map[string]string) error {
	view := &htmlView{
		Data:            data,
		ChartPaths:      chartPaths,
		SymbolRows:      sortedSymbolRows(data.BySymbol),
		HourRows:        sortedHourRows(data.ByHour),
		Recommendations: Recommendations(data),
		AnalysisParts:   analysisSections(data.Analysis),
	}
	for _, name := range []string{"cumulative_pnl", "daily_pnl", "hourly_pnl", "symbol_pnl", "pnl_distribution", "duration_distribution"} {
		if _, ok := chartPaths[name]; ok {
			view.ChartOrder = append(view.ChartOrder, name)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return reportTmpl.Execute(f, view)
}

func sortedSymbolRows(bySymbol map[string]metrics.Summary) []symbolRow {
	rows := make([]symbolRow, 0, len(bySymbol))
	for s, sum := range bySymbol {
		rows = append(rows, symbolRow{Symbol: s, Summary: sum})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Summary.TotalPnL != rows[j].Summary.TotalPnL {
			return rows[i].Summary.TotalPnL > rows[j].Summary.TotalPnL
		}
		return rows[i].Symbol < rows[j].Symbol
	})
	return rows
}

func sortedHourRows(byHour map[int]metrics.Summary) []hourRow {
	rows := make([]hourRow, 0, len(byHour))
	for h, sum := range byHour {
		rows = append(rows, hourRow{Hour: h, Summary: sum})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Hour < rows[j].Hour })
	return rows
}

// analysisSections flattens the LLM analysis map into titled sections in a
// stable order. Non-string values are pretty-printed JSON.
func analysisSections(analysis map[string]interface{}) []analysisSection {
	if len(analysis) == 0 {
		return nil
	}
	keys := make([]string, 0, len(analysis))
	for k := range analysis {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]analysisSection, 0, len(keys))
	for _, k := range keys {
		body := ""
		switch v := analysis[k].(type) {
		case string:
			body = v
		default:
			raw, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				continue
			}
			body = string(raw)
		}
		parts = append(parts, analysisSection{Title: titleFromKey(k), Body: body})
	}
	return parts
}

func titleFromKey(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var tmplFuncs = template.FuncMap{
	"money": func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	},
	"signed": func(v float64) string {
		return fmt.Sprintf("%+.2f", v)
	},
	"percent": func(r metrics.Ratio) string {
		if !r.Valid {
			return "n/a"
		}
		return fmt.Sprintf("%.1f%%", r.Value*100)
	},
	"ratio": func(r metrics.Ratio) string {
		if !r.Valid {
			return "undefined"
		}
		return fmt.Sprintf("%.2f", r.Value)
	},
	"moneyRatio": func(r metrics.Ratio) string {
		if !r.Valid {
			return "n/a"
		}
		return fmt.Sprintf("%+.2f", r.Value)
	},
	"rmult": func(v float64) string {
		return fmt.Sprintf("%.2fR", v)
	},
	"dur": func(d time.Duration) string {
		if d <= 0 {
			return "n/a"
		}
		if d >= time.Hour {
			return fmt.Sprintf("%.1fh", d.Hours())
		}
		return fmt.Sprintf("%.0fm", d.Minutes())
	},
	"pnlClass": func(v float64) string {
		switch {
		case v > 0:
			return "profit"
		case v < 0:
			return "loss"
		default:
			return "flat"
		}
	},
	"hour": func(h int) string {
		return fmt.Sprintf("%02d:00", h)
	},
	"date": func(t time.Time) string {
		return t.Format("2006-01-02")
	},
	"datetime": func(t time.Time) string {
		return t.Format("2006-01-02 15:04")
	},
	"chartTitle": func(name string) string {
		if t, ok := chartTitles[name]; ok {
			return t
		}
		return titleFromKey(name)
	},
	"violation": func(code string) string {
		if l, ok := violationLabels[code]; ok {
			return l
		}
		return titleFromKey(code)
	},
	"sortedViolations": func(counts map[string]int) []string {
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if counts[keys[i]] != counts[keys[j]] {
				return counts[keys[i]] > counts[keys[j]]
			}
			return keys[i] < keys[j]
		})
		return keys
	},
}

var reportTmpl = template.Must(template.New("report").Funcs(tmplFuncs).Parse(reportHTML))

const reportHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Trading Review {{date .WindowStart}} to {{date .WindowEnd}}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 2rem auto; max-width: 960px; color: #222; }
  h1 { border-bottom: 2px solid #365cc4; padding-bottom: .3rem; }
  h2 { margin-top: 2rem; color: #365cc4; }
  table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
  th, td { border: 1px solid #ddd; padding: .4rem .6rem; text-align: right; }
  th { background: #f4f6fb; }
  td:first-child, th:first-child { text-align: left; }
  .cards { display: flex; flex-wrap: wrap; gap: 1rem; margin: 1rem 0; }
  .card { flex: 1 1 180px; border: 1px solid #ddd; border-radius: 6px; padding: .8rem 1rem; }
  .card .label { font-size: .8rem; color: #666; text-transform: uppercase; }
  .card .value { font-size: 1.4rem; font-weight: 600; }
  .profit { color: #2e8b57; }
  .loss { color: #cd3434; }
  .flat { color: #666; }
  img.chart { max-width: 100%; border: 1px solid #eee; margin: .5rem 0; }
  ul.recs li { margin: .4rem 0; }
  .notes { background: #f9f9f4; border-left: 4px solid #ccb; padding: .6rem 1rem; white-space: pre-wrap; }
  .analysis pre { background: #f4f6fb; padding: .6rem; overflow-x: auto; }
  .muted { color: #888; }
</style>
</head>
<body>
<h1>Trading Review</h1>
<p class="muted">{{date .WindowStart}} &mdash; {{date .WindowEnd}} ({{.Location}}) &middot; generated {{datetime .GeneratedAt}}</p>

{{if not .Summary.HasData}}
<p>No closed positions in this period.</p>
{{else}}

<div class="cards">
  <div class="card"><div class="label">Total PnL</div><div class="value {{pnlClass .Summary.TotalPnL}}">{{signed .Summary.TotalPnL}}</div></div>
  <div class="card"><div class="label">Trades</div><div class="value">{{.Summary.TotalTrades}}</div></div>
  <div class="card"><div class="label">Win Rate</div><div class="value">{{percent .Summary.WinRate}}</div></div>
  <div class="card"><div class="label">Profit Factor</div><div class="value">{{ratio .Summary.ProfitFactor}}</div></div>
  <div class="card"><div class="label">Max Drawdown</div><div class="value loss">{{money .Summary.MaxDrawdown.Value}}</div></div>
</div>

<h2>Overall Performance</h2>
<table>
  <tr><td>Wins / Losses / Flats</td><td>{{.Summary.Wins}} / {{.Summary.Losses}} / {{.Summary.Flats}}</td></tr>
  <tr><td>Gross Profit</td><td class="profit">{{money .Summary.GrossProfit}}</td></tr>
  <tr><td>Gross Loss</td><td class="loss">{{money .Summary.GrossLoss}}</td></tr>
  <tr><td>Average Win</td><td class="profit">{{money .Summary.AvgWin}}</td></tr>
  <tr><td>Average Loss</td><td class="loss">{{money .Summary.AvgLoss}}</td></tr>
  <tr><td>Largest Win</td><td class="profit">{{money .Summary.LargestWin}}</td></tr>
  <tr><td>Largest Loss</td><td class="loss">{{money .Summary.LargestLoss}}</td></tr>
  <tr><td>Expectancy per Trade</td><td class="{{pnlClass .Summary.Expectancy}}">{{signed .Summary.Expectancy}}</td></tr>
  <tr><td>Reward / Risk</td><td>{{ratio .Summary.RewardRisk}}</td></tr>
  <tr><td>Longest Win Streak</td><td>{{.Summary.LongestWinStreak}}</td></tr>
  <tr><td>Longest Loss Streak</td><td>{{.Summary.LongestLossStreak}}</td></tr>
  {{if ge .Summary.MaxDrawdown.PeakIndex 0}}
  <tr><td>Max Drawdown Interval</td><td>{{datetime .Summary.MaxDrawdown.PeakTime}} &rarr; {{datetime .Summary.MaxDrawdown.TroughTime}}</td></tr>
  {{end}}
</table>

<h2>Holding Durations</h2>
<table>
  <tr><th></th><th>Mean</th><th>Median</th></tr>
  <tr><td>Winners</td><td>{{dur .Summary.Durations.MeanWin}}</td><td>{{dur .Summary.Durations.MedianWin}}</td></tr>
  <tr><td>Losers</td><td>{{dur .Summary.Durations.MeanLoss}}</td><td>{{dur .Summary.Durations.MedianLoss}}</td></tr>
</table>
{{if .Summary.Durations.LosersHeldLonger}}
<p class="loss">Losing positions were held longer than winning ones on average.</p>
{{end}}

{{with .Risk}}
<h2>Risk Multiples</h2>
<p class="muted">Standard risk per trade: {{money .StandardRisk}}</p>
<table>
  <tr><td>Average Win</td><td class="profit">{{rmult .AvgWinR}}</td></tr>
  <tr><td>Average Loss</td><td class="loss">{{rmult .AvgLossR}}</td></tr>
  <tr><td>Largest Win</td><td class="profit">{{rmult .LargestWinR}}</td></tr>
  <tr><td>Full Stops</td><td>{{.FullStops}}</td></tr>
  <tr><td>Partial Stops</td><td>{{.PartialStops}}</td></tr>
</table>
{{end}}

{{range .ChartOrder}}
<h2>{{chartTitle .}}</h2>
<img class="chart" src="{{index $.ChartPaths .}}" alt="{{chartTitle .}}">
{{end}}

<h2>By Symbol</h2>
<table>
  <tr><th>Symbol</th><th>Trades</th><th>Win Rate</th><th>Total PnL</th><th>Avg PnL</th></tr>
  {{range .SymbolRows}}
  <tr>
    <td>{{.Symbol}}</td>
    <td>{{.Summary.TotalTrades}}</td>
    <td>{{percent .Summary.WinRate}}</td>
    <td class="{{pnlClass .Summary.TotalPnL}}">{{signed .Summary.TotalPnL}}</td>
    <td class="{{pnlClass .Summary.Expectancy}}">{{signed .Summary.Expectancy}}</td>
  </tr>
  {{end}}
</table>

<h2>By Entry Hour</h2>
<table>
  <tr><th>Hour</th><th>Trades</th><th>Win Rate</th><th>Total PnL</th><th>Avg PnL</th></tr>
  {{range .HourRows}}
  <tr>
    <td>{{hour .Hour}}</td>
    <td>{{.Summary.TotalTrades}}</td>
    <td>{{percent .Summary.WinRate}}</td>
    <td class="{{pnlClass .Summary.TotalPnL}}">{{signed .Summary.TotalPnL}}</td>
    <td class="{{pnlClass .Summary.Expectancy}}">{{signed .Summary.Expectancy}}</td>
  </tr>
  {{end}}
</table>

{{with .Scorecard}}
<h2>Plan Adherence</h2>
<div class="cards">
  <div class="card"><div class="label">Adherence Score</div><div class="value">{{percent .Score}}</div></div>
  <div class="card"><div class="label">PnL-Weighted</div><div class="value">{{percent .PnLWeightedScore}}</div></div>
  <div class="card"><div class="label">Compliant Trades</div><div class="value">{{.CompliantCount}} / {{.TotalCount}}</div></div>
</div>
<table>
  <tr><td>Avg PnL, compliant trades</td><td>{{moneyRatio .AvgPnLCompliant}}</td></tr>
  <tr><td>Avg PnL, non-compliant trades</td><td>{{moneyRatio .AvgPnLNonCompliant}}</td></tr>
</table>
{{if .ViolationCounts}}
<table>
  <tr><th>Violation</th><th>Count</th></tr>
  {{$vc := .ViolationCounts}}
  {{range sortedViolations .ViolationCounts}}
  <tr><td>{{violation .}}</td><td>{{index $vc .}}</td></tr>
  {{end}}
</table>
{{end}}
{{end}}

{{if .Recommendations}}
<h2>Recommendations</h2>
<ul class="recs">
  {{range .Recommendations}}<li>{{.}}</li>{{end}}
</ul>
{{end}}

{{if .AnalysisParts}}
<h2>Coach's Analysis</h2>
<div class="analysis">
  {{range .AnalysisParts}}
  <h3>{{.Title}}</h3>
  <p style="white-space: pre-wrap">{{.Body}}</p>
  {{end}}
</div>
{{end}}

{{if or .Notes.Strategy .Notes.Psychology .Notes.Improvements .Notes.Reflection}}
<h2>Your Reflections</h2>
{{if .Notes.Strategy}}<h3>Strategy</h3><ul>{{range .Notes.Strategy}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{if .Notes.Psychology}}<h3>Psychology</h3><ul>{{range .Notes.Psychology}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{if .Notes.Improvements}}<h3>Improvements</h3><ul>{{range .Notes.Improvements}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{if .Notes.Reflection}}<h3>Weekly Reflection</h3><div class="notes">{{.Notes.Reflection}}</div>{{end}}
{{end}}

{{end}}
</body>
</html>
`
