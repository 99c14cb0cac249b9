package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validYAML = `
app:
  name: footballai
  environment: development
  log_level: debug
database:
  host: localhost
  port: 5432
  name: footballai
  user: footballai
  password: secret
  ssl_mode: disable
  max_connections: 10
  max_idle_connections: 5
data_provider:
  base_url: https://api.football-data.org
  api_key: ${FOOTBALL_DATA_API_KEY}
  competitions: [PL, PD]
training:
  folds: 4
  seed: 7
`

func TestLoadWithDefaults(t *testing.T) {
	path := writeConfig(t, validYAML)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}

	// File values win over defaults.
	if cfg.Training.Folds != 4 {
		t.Fatalf("folds %d, want 4 from file", cfg.Training.Folds)
	}
	if cfg.Training.Seed != 7 {
		t.Fatalf("seed %d, want 7 from file", cfg.Training.Seed)
	}

	// Defaults fill the gaps.
	if cfg.Training.TestFraction != 0.2 {
		t.Fatalf("test fraction %f, want default 0.2", cfg.Training.TestFraction)
	}
	if cfg.Training.MinSamples != 100 {
		t.Fatalf("min samples %d, want default 100", cfg.Training.MinSamples)
	}
	if cfg.Scheduler.MatchSyncCron != "0 3 * * *" {
		t.Fatalf("sync cron %q, want default", cfg.Scheduler.MatchSyncCron)
	}
	if cfg.TrainingBudget() != 30*time.Minute {
		t.Fatalf("budget %s, want default 30m", cfg.TrainingBudget())
	}
	if cfg.FeatureCacheTTL() != time.Hour {
		t.Fatalf("cache TTL %s, want default 1h", cfg.FeatureCacheTTL())
	}
}

func TestLoadExpandsEnvironmentPlaceholders(t *testing.T) {
	t.Setenv("FOOTBALL_DATA_API_KEY", "token-123")
	path := writeConfig(t, validYAML)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.DataProvider.APIKey != "token-123" {
		t.Fatalf("api key %q, want expanded env value", cfg.DataProvider.APIKey)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadWithDefaults on missing file: %v", err)
	}
	if cfg.App.Name != "footballai" {
		t.Fatalf("app name %q, want default", cfg.App.Name)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	path := writeConfig(t, validYAML)
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg.App.Environment = "qa"
	if err := Validate(cfg); err == nil {
		t.Fatal("unknown environment accepted")
	}
	cfg.App.Environment = "development"

	cfg.Database.MaxIdleConnections = 50
	if err := Validate(cfg); err == nil {
		t.Fatal("idle connections above max accepted")
	}
	cfg.Database.MaxIdleConnections = 5

	cfg.App.Environment = "production"
	cfg.Database.SSLMode = "disable"
	if err := Validate(cfg); err == nil {
		t.Fatal("production without SSL accepted")
	}
}

func TestValidateStructTrainOptions(t *testing.T) {
	cv := NewValidator()

	type probe struct {
		Folds int `validate:"required,gte=2,lte=20"`
	}
	if err := cv.ValidateStruct(probe{Folds: 1}); err == nil {
		t.Fatal("folds below minimum accepted")
	}
	if err := cv.ValidateStruct(probe{Folds: 5}); err != nil {
		t.Fatalf("valid struct rejected: %v", err)
	}
}
