package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPipelineDefaults(t *testing.T) {
	p, err := LoadPipeline("")
	if err != nil {
		t.Fatal(err)
	}
	if p.Training.ModelType != "random_forest" || p.Labels.Lookforward != 5 || p.Features.WarmUp() != 50 {
		t.Errorf("unexpected defaults: %+v", p)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestLoadPipelineFileOverlaysDefaults(t *testing.T) {
	path := writeFile(t, `
features:
  rsi_period: 9
labels:
  lookforward: 3
training:
  model_type: xgboost
  models:
    xgboost:
      n_estimators: 50
risk:
  account_size: 250000
`)
	p, err := LoadPipeline(path)
	if err != nil {
		t.Fatal(err)
	}

	if p.Features.RSIPeriod != 9 || p.Features.MACDSlow != 26 {
		t.Errorf("features = %+v", p.Features)
	}
	if p.Labels.Lookforward != 3 || p.Labels.ProfitThreshold != 0.02 {
		t.Errorf("labels = %+v", p.Labels)
	}
	if p.Training.ModelType != "xgboost" || p.Training.Hyperparameters.XGBoost.NEstimators != 50 {
		t.Errorf("training = %+v", p.Training)
	}
	if p.Training.Hyperparameters.XGBoost.MaxDepth != 3 {
		t.Errorf("xgboost max_depth lost its default: %d", p.Training.Hyperparameters.XGBoost.MaxDepth)
	}
	if p.Risk.AccountSize != 250000 || p.Risk.StopLossATR != 2 {
		t.Errorf("risk = %+v", p.Risk)
	}
}

func TestLoadPipelineErrors(t *testing.T) {
	if _, err := LoadPipeline(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadPipeline(writeFile(t, "labels: [1, 2")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PIPELINE_CONFIG", "")
	t.Setenv("MODEL_TYPE", "lightgbm")
	t.Setenv("TEST_FRACTION", "0.25")
	t.Setenv("LOOKFORWARD", "10")
	t.Setenv("PROFIT_THRESHOLD", "0.03")
	t.Setenv("LOSS_THRESHOLD", "-0.015")
	t.Setenv("DB_HOST", "")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	p := cfg.Pipeline
	if p.Training.ModelType != "lightgbm" || p.Training.TestFraction != 0.25 {
		t.Errorf("training = %+v", p.Training)
	}
	if p.Labels.Lookforward != 10 || p.Labels.ProfitThreshold != 0.03 || p.Labels.LossThreshold != -0.015 {
		t.Errorf("labels = %+v", p.Labels)
	}
	if cfg.Database.Enabled() {
		t.Error("database enabled without a host")
	}
	if cfg.TelegramChatID != -100123 {
		t.Errorf("TelegramChatID = %d", cfg.TelegramChatID)
	}
}

func TestLoadRejectsInvalidOverrides(t *testing.T) {
	t.Setenv("PIPELINE_CONFIG", "")
	t.Setenv("LOSS_THRESHOLD", "0.01")

	if _, err := Load(); err == nil {
		t.Error("expected error for positive loss threshold")
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "n", SSLMode: "require"}
	want := "host=db port=5433 user=u password=p dbname=n sslmode=require"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
