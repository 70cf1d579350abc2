package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadCreatesTemplateOnFirstRun(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// A template config.toml must now exist for the user to edit.
	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Errorf("expected template config.toml: %v", err)
	}

	// And the loaded config carries the defaults.
	if cfg.Fetch.WindowDays != 7 {
		t.Errorf("window_days = %d, want 7", cfg.Fetch.WindowDays)
	}
	if cfg.Fetch.Category != "linear" {
		t.Errorf("category = %s, want linear", cfg.Fetch.Category)
	}
	if cfg.Report.Timezone != "UTC" {
		t.Errorf("timezone = %s, want UTC", cfg.Report.Timezone)
	}
	if cfg.Credentials.OpenRouter.BaseURL != "https://openrouter.ai/api/v1" {
		t.Errorf("openrouter base url = %s", cfg.Credentials.OpenRouter.BaseURL)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[report]
output_dir = "weekly"
timezone = "Europe/Berlin"
chart_width = 800
chart_height = 400

[fetch]
window_days = 14
category = "inverse"
timeout = "45s"

[notes]
strategy = ["only trade the open"]
reflection = "good week"
standard_risk = 50.0
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Report.OutputDir != "weekly" {
		t.Errorf("output_dir = %s", cfg.Report.OutputDir)
	}
	if cfg.Fetch.WindowDays != 14 {
		t.Errorf("window_days = %d", cfg.Fetch.WindowDays)
	}
	if cfg.Fetch.Category != "inverse" {
		t.Errorf("category = %s", cfg.Fetch.Category)
	}
	if cfg.Fetch.Timeout != 45*time.Second {
		t.Errorf("timeout = %v, want 45s", cfg.Fetch.Timeout)
	}
	if cfg.Notes.Reflection != "good week" {
		t.Errorf("reflection = %q", cfg.Notes.Reflection)
	}
	if cfg.Notes.StandardRisk != 50 {
		t.Errorf("standard_risk = %v", cfg.Notes.StandardRisk)
	}
	if cfg.Location().String() != "Europe/Berlin" {
		t.Errorf("location = %s", cfg.Location())
	}
}

func TestEnvOverridesCredentials(t *testing.T) {
	t.Setenv("BYBIT_API_KEY", "env-key")
	t.Setenv("BYBIT_API_SECRET", "env-secret")
	t.Setenv("BYBIT_TESTNET", "true")
	t.Setenv("OPENROUTER_MODEL", "env-model")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Credentials.Bybit.APIKey != "env-key" || cfg.Credentials.Bybit.APISecret != "env-secret" {
		t.Error("Bybit credentials not taken from environment")
	}
	if !cfg.Fetch.Testnet {
		t.Error("BYBIT_TESTNET not honored")
	}
	if cfg.Credentials.OpenRouter.Model != "env-model" {
		t.Errorf("model = %s, want env-model", cfg.Credentials.OpenRouter.Model)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := Config{
		Report: ReportConfig{Timezone: "UTC"},
		Fetch:  FetchConfig{WindowDays: 7, Category: "linear", MaxAttempts: 3},
	}

	cfg := base
	cfg.Fetch.Category = "spot"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "category") {
		t.Errorf("expected category error, got %v", err)
	}

	cfg = base
	cfg.Fetch.WindowDays = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected window_days error")
	}

	cfg = base
	cfg.Report.Timezone = "Mars/Olympus_Mons"
	if err := cfg.Validate(); err == nil {
		t.Error("expected timezone error")
	}
}

func TestCreateTemplatePlan(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateTemplatePlan(dir)
	if err != nil {
		t.Fatalf("CreateTemplatePlan: %v", err)
	}
	if path != PlanPath(dir) {
		t.Errorf("path = %s, want %s", path, PlanPath(dir))
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "allowed_symbols") {
		t.Error("template plan missing allowed_symbols")
	}
}
