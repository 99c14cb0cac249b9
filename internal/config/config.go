// Package config provides configuration management for the footballai
// services.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App          AppConfig          `mapstructure:"app" validate:"required"`
	Database     DatabaseConfig     `mapstructure:"database" validate:"required"`
	DataProvider DataProviderConfig `mapstructure:"data_provider" validate:"required"`
	Training     TrainingConfig     `mapstructure:"training" validate:"required"`
	Features     FeaturesConfig     `mapstructure:"features" validate:"required"`
	Storage      StorageConfig      `mapstructure:"storage" validate:"required"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler" validate:"required"`
	Metrics      MetricsConfig      `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// DataProviderConfig represents the external football data provider
type DataProviderConfig struct {
	BaseURL           string   `mapstructure:"base_url" validate:"required,url"`
	APIKey            string   `mapstructure:"api_key"`
	Competitions      []string `mapstructure:"competitions" validate:"required,min=1"`
	RequestsPerMinute float64  `mapstructure:"requests_per_minute" validate:"required,gt=0"`
	TimeoutSeconds    int      `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries        int      `mapstructure:"max_retries" validate:"gte=0"`
	BatchSize         int      `mapstructure:"batch_size" validate:"omitempty,gt=0"`
}

// TrainingConfig represents model training defaults
type TrainingConfig struct {
	Folds                int     `mapstructure:"folds" validate:"required,gte=2,lte=20"`
	TestFraction         float64 `mapstructure:"test_fraction" validate:"required,gt=0,lt=1"`
	MinSamples           int     `mapstructure:"min_samples" validate:"required,gt=0"`
	BudgetMinutes        int     `mapstructure:"budget_minutes" validate:"required,gt=0"`
	HyperparameterSearch bool    `mapstructure:"hyperparameter_search"`
	Seed                 int64   `mapstructure:"seed"`
}

// FeaturesConfig represents feature extraction configuration
type FeaturesConfig struct {
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	MinTeamMatches  int `mapstructure:"min_team_matches" validate:"required,gt=0"`
}

// StorageConfig represents durable artifact locations
type StorageConfig struct {
	ModelDir    string `mapstructure:"model_dir" validate:"required"`
	HistoryPath string `mapstructure:"history_path" validate:"required"`
}

// SchedulerConfig represents cron scheduling of sync and retraining jobs
type SchedulerConfig struct {
	MatchSyncCron           string `mapstructure:"match_sync_cron" validate:"required"`
	RetrainingIntervalHours int    `mapstructure:"retraining_interval_hours" validate:"required,gt=0"`
	SyncLookbackDays        int    `mapstructure:"sync_lookback_days" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and health endpoint configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// TrainingBudget returns the wall-clock budget for one training invocation.
func (c *Config) TrainingBudget() time.Duration {
	return time.Duration(c.Training.BudgetMinutes) * time.Minute
}

// FeatureCacheTTL returns the feature cache validity window.
func (c *Config) FeatureCacheTTL() time.Duration {
	return time.Duration(c.Features.CacheTTLSeconds) * time.Second
}
