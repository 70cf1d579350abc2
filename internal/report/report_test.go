package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"bybit-review/internal/config"
	"bybit-review/internal/llm"
	"bybit-review/internal/metrics"
	"bybit-review/internal/models"
	"bybit-review/internal/plan"
)

func sampleTrades() []models.Trade {
	base := time.Date(2025, 8, 4, 9, 0, 0, 0, time.UTC)
	pnls := []float64{100, -50, 30, -80, 20}
	symbols := []string{"BTCUSDT", "ETHUSDT", "BTCUSDT", "SOLUSDT", "ETHUSDT"}

	trades := make([]models.Trade, len(pnls))
	for i := range pnls {
		entry := base.Add(time.Duration(i*3) * time.Hour)
		trades[i] = models.Trade{
			Symbol:     symbols[i],
			Side:       models.SideLong,
			EntryTime:  entry,
			ExitTime:   entry.Add(90 * time.Minute),
			PnL:        pnls[i],
			EntryPrice: 60000,
			ExitPrice:  61000,
			Size:       0.5,
			Fees:       0.2,
			Leverage:   10,
			OrderID:    "ord",
			StopLoss:   59000,
		}
	}
	return trades
}

func sampleData() *Data {
	trades := sampleTrades()
	start := time.Date(2025, 8, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)
	return NewData(trades, time.UTC, start, end, config.UserNotes{
		Strategy:   []string{"breakout entries only"},
		Reflection: "patience improved this week",
	})
}

func TestWriteTradesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	trades := sampleTrades()

	if err := WriteTradesCSV(path, trades); err != nil {
		t.Fatalf("WriteTradesCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}

	if len(rows) != len(trades)+1 {
		t.Fatalf("expected %d rows, got %d", len(trades)+1, len(rows))
	}

	header := rows[0]
	wantCols := []string{
		"symbol", "side", "entry_time", "exit_time", "size",
		"entry_price", "exit_price", "pnl", "fees", "leverage",
		"duration_hours", "stop_loss", "take_profit", "order_id",
	}
	for i, col := range wantCols {
		if header[i] != col {
			t.Errorf("header[%d] = %s, want %s", i, header[i], col)
		}
	}

	if rows[1][0] != "BTCUSDT" || rows[1][1] != "LONG" {
		t.Errorf("first row = %v", rows[1])
	}
	if rows[1][10] != "1.50" {
		t.Errorf("duration_hours = %s, want 1.50", rows[1][10])
	}
}

func TestWriteHTMLSmoke(t *testing.T) {
	data := sampleData()
	sc := plan.Score(data.Trades, &plan.TradingPlan{
		AllowedSymbols: []string{"BTCUSDT", "ETHUSDT"},
	}, time.UTC)
	data.Scorecard = &sc
	data.Analysis = llm.Analysis{
		"Overall Performance Assessment": "A profitable week overall.",
	}

	path := filepath.Join(t.TempDir(), "report.html")
	if err := WriteHTML(path, data, map[string]string{
		"cumulative_pnl": "plots/cumulative_pnl.png",
	}); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	html := string(raw)

	for _, want := range []string{
		"Trading Review",
		"plots/cumulative_pnl.png",
		"BTCUSDT",
		"Plan Adherence",
		"A profitable week overall.",
		"patience improved this week",
		"breakout entries only",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q", want)
		}
	}

	// SOLUSDT is off-plan, so the violations table must count it.
	if !strings.Contains(html, "Symbol not in plan") {
		t.Error("expected a violation row for the off-plan symbol")
	}
}

func TestWriteHTMLNoData(t *testing.T) {
	start := time.Date(2025, 8, 3, 0, 0, 0, 0, time.UTC)
	data := NewData(nil, time.UTC, start, start.AddDate(0, 0, 7), config.UserNotes{})

	path := filepath.Join(t.TempDir(), "report.html")
	if err := WriteHTML(path, data, nil); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}

	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), "No closed positions") {
		t.Error("expected the empty-period message")
	}
}

func TestRecommendationsLowWinRate(t *testing.T) {
	base := time.Date(2025, 8, 4, 9, 0, 0, 0, time.UTC)
	var trades []models.Trade
	for i, pnl := range []float64{-10, -20, 5} {
		entry := base.Add(time.Duration(i) * time.Hour)
		trades = append(trades, models.Trade{
			Symbol: "BTCUSDT", EntryTime: entry, ExitTime: entry.Add(time.Hour), PnL: pnl,
		})
	}
	data := NewData(trades, time.UTC, base, base.AddDate(0, 0, 7), config.UserNotes{})

	recs := Recommendations(data)
	found := false
	for _, r := range recs {
		if strings.Contains(r, "win rate is below 50%") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a low win-rate recommendation, got %v", recs)
	}
}

func TestRecommendationsEmptyData(t *testing.T) {
	start := time.Date(2025, 8, 3, 0, 0, 0, 0, time.UTC)
	data := NewData(nil, time.UTC, start, start.AddDate(0, 0, 7), config.UserNotes{})
	if recs := Recommendations(data); len(recs) != 0 {
		t.Errorf("expected no recommendations without data, got %v", recs)
	}
}

func TestLLMPayloadShape(t *testing.T) {
	data := sampleData()
	payload := LLMPayload(data)

	for _, key := range []string{"period", "overall_performance", "risk_reward", "symbols", "time_patterns"} {
		if _, ok := payload[key]; !ok {
			t.Errorf("payload missing %q", key)
		}
	}

	overall, ok := payload["overall_performance"].(map[string]interface{})
	if !ok {
		t.Fatal("overall_performance has wrong shape")
	}
	if overall["total_trades"] != 5 {
		t.Errorf("total_trades = %v, want 5", overall["total_trades"])
	}

	// No plan means no adherence section.
	if _, ok := payload["plan_adherence"]; ok {
		t.Error("plan_adherence should be absent without a scorecard")
	}

	sc := plan.Score(data.Trades, &plan.TradingPlan{}, time.UTC)
	data.Scorecard = &sc
	if _, ok := LLMPayload(data)["plan_adherence"]; !ok {
		t.Error("plan_adherence should be present with a scorecard")
	}
}

func TestLLMPayloadRatiosSerializeAsNull(t *testing.T) {
	// A week of only winners leaves the profit factor undefined; the
	// payload must carry null, never +Inf.
	base := time.Date(2025, 8, 4, 9, 0, 0, 0, time.UTC)
	trades := []models.Trade{{
		Symbol: "BTCUSDT", EntryTime: base, ExitTime: base.Add(time.Hour), PnL: 10,
	}}
	data := NewData(trades, time.UTC, base, base.AddDate(0, 0, 7), config.UserNotes{})

	if data.Summary.ProfitFactor.Valid {
		t.Fatal("profit factor should be undefined")
	}

	var ratio metrics.Ratio
	raw, err := ratio.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "null" {
		t.Errorf("undefined ratio marshals to %s, want null", raw)
	}
}

func TestChartRendererSkipsSparseCharts(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2025, 8, 4, 9, 0, 0, 0, time.UTC)

	// One trade is not enough for the cumulative chart, but the bar
	// charts should still render.
	trades := []models.Trade{{
		Symbol: "BTCUSDT", EntryTime: base, ExitTime: base.Add(time.Hour), PnL: 10,
	}}
	data := NewData(trades, time.UTC, base, base.AddDate(0, 0, 7), config.UserNotes{})

	r := ChartRenderer{Width: 640, Height: 320}
	paths, errs := r.RenderAll(dir, data)

	if _, ok := paths["cumulative_pnl"]; ok {
		t.Error("cumulative chart should fail with a single trade")
	}
	if len(errs) == 0 {
		t.Error("expected per-chart errors for sparse data")
	}
	if rel, ok := paths["symbol_pnl"]; ok {
		if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
			t.Errorf("symbol chart path not on disk: %v", err)
		}
	} else {
		t.Error("symbol chart should render with one trade")
	}
}

func TestBuilderWriteBundle(t *testing.T) {
	dir := t.TempDir()
	data := sampleData()
	data.Analysis = llm.Analysis{"raw_analysis": "keep going"}

	b := &Builder{Charts: ChartRenderer{Width: 640, Height: 320}, Logger: zerolog.Nop()}
	htmlPath, errs := b.Write(dir, data)

	if htmlPath == "" {
		t.Fatalf("expected html path, errs=%v", errs)
	}
	for _, name := range []string{"report.html", "trades.csv", "llm_analysis.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "plots", "cumulative_pnl.png")); err != nil {
		t.Errorf("missing cumulative chart: %v", err)
	}
}

func TestNewDataOrdersTradesByExit(t *testing.T) {
	base := time.Date(2025, 8, 4, 9, 0, 0, 0, time.UTC)
	// Deliberately shuffled exit times.
	trades := []models.Trade{
		{Symbol: "A", EntryTime: base, ExitTime: base.Add(3 * time.Hour), PnL: 1},
		{Symbol: "B", EntryTime: base, ExitTime: base.Add(1 * time.Hour), PnL: 2},
		{Symbol: "C", EntryTime: base, ExitTime: base.Add(2 * time.Hour), PnL: 3},
	}

	data := NewData(trades, time.UTC, base, base.AddDate(0, 0, 7), config.UserNotes{})

	for i := 1; i < len(data.Trades); i++ {
		if data.Trades[i].ExitTime.Before(data.Trades[i-1].ExitTime) {
			t.Fatalf("trades not ordered by exit time: %v", data.Trades)
		}
	}
	if trades[0].Symbol != "A" {
		t.Error("input slice must not be reordered")
	}
}

func TestRiskMultiples(t *testing.T) {
	base := time.Date(2025, 8, 4, 9, 0, 0, 0, time.UTC)
	pnls := []float64{100, -50, -30}
	var trades []models.Trade
	for i, pnl := range pnls {
		entry := base.Add(time.Duration(i) * time.Hour)
		trades = append(trades, models.Trade{
			Symbol: "BTCUSDT", EntryTime: entry, ExitTime: entry.Add(time.Hour), PnL: pnl,
		})
	}
	data := NewData(trades, time.UTC, base, base.AddDate(0, 0, 7), config.UserNotes{StandardRisk: 50})

	rm := data.Risk
	if rm == nil {
		t.Fatal("expected risk multiples with a standard risk configured")
	}
	if rm.AvgWinR != 2 {
		t.Errorf("AvgWinR = %v, want 2", rm.AvgWinR)
	}
	if rm.AvgLossR != 0.8 {
		t.Errorf("AvgLossR = %v, want 0.8", rm.AvgLossR)
	}
	if rm.LargestWinR != 2 {
		t.Errorf("LargestWinR = %v, want 2", rm.LargestWinR)
	}
	// The -50 loss sits within 5% of one R; the -30 loss does not.
	if rm.FullStops != 1 || rm.PartialStops != 1 {
		t.Errorf("stops = %d full / %d partial, want 1 / 1", rm.FullStops, rm.PartialStops)
	}

	if _, ok := LLMPayload(data)["risk_multiples"]; !ok {
		t.Error("payload should carry risk_multiples when a standard risk is set")
	}
}

func TestRiskMultiplesAbsentWithoutStandardRisk(t *testing.T) {
	data := sampleData()
	if data.Risk != nil {
		t.Error("no standard risk configured, Risk should be nil")
	}
	if _, ok := LLMPayload(data)["risk_multiples"]; ok {
		t.Error("payload should omit risk_multiples without a standard risk")
	}
}

func TestWriteHTMLRiskSection(t *testing.T) {
	trades := sampleTrades()
	start := time.Date(2025, 8, 3, 0, 0, 0, 0, time.UTC)
	data := NewData(trades, time.UTC, start, start.AddDate(0, 0, 7), config.UserNotes{StandardRisk: 80})

	path := filepath.Join(t.TempDir(), "report.html")
	if err := WriteHTML(path, data, nil); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}

	raw, _ := os.ReadFile(path)
	html := string(raw)
	if !strings.Contains(html, "Risk Multiples") {
		t.Error("expected the risk multiples section")
	}
	if !strings.Contains(html, "Full Stops") {
		t.Error("expected the stop classification rows")
	}
}
