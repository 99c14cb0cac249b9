// Package main provides the entry point for the match data sync service.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ElMALIHI/footballai/internal/config"
	"github.com/ElMALIHI/footballai/internal/database"
	"github.com/ElMALIHI/footballai/internal/datasource"
	"github.com/ElMALIHI/footballai/internal/features"
	"github.com/ElMALIHI/footballai/internal/health"
	"github.com/ElMALIHI/footballai/internal/logger"
	"github.com/ElMALIHI/footballai/internal/metrics"
	"github.com/ElMALIHI/footballai/internal/models"
	"github.com/ElMALIHI/footballai/internal/repository"
	"github.com/ElMALIHI/footballai/internal/scheduler"
	"github.com/ElMALIHI/footballai/internal/service"
	"github.com/ElMALIHI/footballai/internal/store"
)

// Build information - set via ldflags
var (
	Version = "dev"
)

var (
	configFile string
	appLogger  *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	ingestion  *service.IngestionService
	training   *service.TrainingService

	flagFrom         string
	flagTo           string
	flagCompetitions []string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVar(&flagFrom, "from", "", "Start date (YYYY-MM-DD, default: lookback window)")
	rootCmd.Flags().StringVar(&flagTo, "to", "", "End date (YYYY-MM-DD, default: today)")
	rootCmd.Flags().StringSliceVar(&flagCompetitions, "competitions", nil, "Competition codes (default from config)")

	rootCmd.AddCommand(scheduleCmd)
}

var rootCmd = &cobra.Command{
	Use:   "data-sync",
	Short: "Sync match data from the external provider",
	Long:  `Fetches matches from the configured football data provider and upserts them into the match database.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return setupDependencies(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd.Context())
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the recurring sync and retraining scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScheduler(cmd.Context())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	return config.Validate(cfg)
}

func setupDependencies(ctx context.Context) error {
	appLogger = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	metrics.InitRegistry()

	var err error
	db, err = database.New(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	matches := repository.NewPostgresMatchRepository(db)

	httpCfg := datasource.DefaultHTTPClientConfig()
	httpCfg.Timeout = time.Duration(cfg.DataProvider.TimeoutSeconds) * time.Second
	httpCfg.MaxRetries = cfg.DataProvider.MaxRetries
	httpCfg.RateLimit = cfg.DataProvider.RequestsPerMinute / 60.0
	httpClient := datasource.NewRateLimitedHTTPClient(httpCfg, appLogger)
	source := datasource.NewFootballDataSource(httpClient, cfg.DataProvider.BaseURL, cfg.DataProvider.APIKey, appLogger)

	ingestion = service.NewIngestionService(source, matches, appLogger)

	cache := features.NewCache(cfg.FeatureCacheTTL())
	extractor := features.NewExtractor(matches, cache, appLogger)
	modelStore, err := store.NewModelStore(cfg.Storage.ModelDir, appLogger)
	if err != nil {
		return err
	}
	history, err := store.NewTrainingHistory(cfg.Storage.HistoryPath, appLogger)
	if err != nil {
		return err
	}
	training = service.NewTrainingService(matches, extractor, modelStore, history, appLogger, cfg.Training.MinSamples)

	return nil
}

func runSync(ctx context.Context) error {
	dateTo := time.Now().UTC()
	dateFrom := dateTo.AddDate(0, 0, -cfg.Scheduler.SyncLookbackDays)
	var err error
	if flagTo != "" {
		if dateTo, err = time.Parse("2006-01-02", flagTo); err != nil {
			return fmt.Errorf("invalid --to date %q", flagTo)
		}
	}
	if flagFrom != "" {
		if dateFrom, err = time.Parse("2006-01-02", flagFrom); err != nil {
			return fmt.Errorf("invalid --from date %q", flagFrom)
		}
	}

	competitions := flagCompetitions
	if len(competitions) == 0 {
		competitions = cfg.DataProvider.Competitions
	}

	syncResult, err := ingestion.Sync(ctx, competitions, dateFrom, dateTo)
	if err != nil {
		return err
	}

	fmt.Printf("Sync complete: %s\n", syncResult.String())
	return nil
}

func runScheduler(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.NewScheduler(ingestion, training, appLogger)
	if err := sched.ScheduleMatchSync(cfg.Scheduler.MatchSyncCron, cfg.DataProvider.Competitions, cfg.Scheduler.SyncLookbackDays); err != nil {
		return err
	}

	retrainOpts := models.TrainOptions{
		ModelTypes:           []string{models.ModelTypeRandomForest},
		Folds:                cfg.Training.Folds,
		HyperparameterSearch: cfg.Training.HyperparameterSearch,
		TestFraction:         cfg.Training.TestFraction,
		Seed:                 cfg.Training.Seed,
		Budget:               cfg.TrainingBudget(),
		Filter:               models.DataFilter{MinTeamMatches: cfg.Features.MinTeamMatches},
	}
	if err := sched.ScheduleRetraining(cfg.Scheduler.RetrainingIntervalHours, retrainOpts); err != nil {
		return err
	}

	var healthServer *health.Server
	if cfg.Metrics.Enabled {
		healthServer = health.NewServer(health.Config{
			ServiceName: cfg.App.Name,
			Version:     Version,
			Port:        strconv.Itoa(cfg.Metrics.Port),
			MetricsPath: cfg.Metrics.Path,
			Metrics:     metrics.Handler(),
			Logger:      appLogger,
			DB:          db,
		})
		if err := healthServer.Start(ctx); err != nil {
			return err
		}
	}

	if err := sched.Start(); err != nil {
		return err
	}
	if healthServer != nil {
		healthServer.SetReady(true)
	}
	appLogger.WithField("next_run", sched.GetNextRun()).Info("Scheduler running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	appLogger.Info("Shutting down")
	if healthServer != nil {
		healthServer.SetReady(false)
	}
	return sched.Stop()
}
