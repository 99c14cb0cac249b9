// Package main provides the entry point for the model training command.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ElMALIHI/footballai/internal/config"
	"github.com/ElMALIHI/footballai/internal/database"
	"github.com/ElMALIHI/footballai/internal/features"
	"github.com/ElMALIHI/footballai/internal/logger"
	"github.com/ElMALIHI/footballai/internal/metrics"
	"github.com/ElMALIHI/footballai/internal/models"
	"github.com/ElMALIHI/footballai/internal/repository"
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
	training   *service.TrainingService
	history    *store.TrainingHistory

	flagModelTypes  []string
	flagModelName   string
	flagFolds       int
	flagSearch      bool
	flagSeed        int64
	flagCompetition string
	flagSeason      string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringSliceVar(&flagModelTypes, "model-types", []string{models.ModelTypeRandomForest}, "Model types to train")
	rootCmd.Flags().StringVar(&flagModelName, "model-name", "", "Name to persist the trained model under")
	rootCmd.Flags().IntVar(&flagFolds, "folds", 0, "Cross-validation folds (default from config)")
	rootCmd.Flags().BoolVar(&flagSearch, "search", false, "Run the full hyperparameter grid search")
	rootCmd.Flags().Int64Var(&flagSeed, "seed", 0, "Random seed (default from config)")
	rootCmd.Flags().StringVar(&flagCompetition, "competition", "", "Restrict training data to one competition")
	rootCmd.Flags().StringVar(&flagSeason, "season", "", "Restrict training data to one season")

	rootCmd.AddCommand(statsCmd)
}

var rootCmd = &cobra.Command{
	Use:   "train",
	Short: "Train match outcome prediction models",
	Long:  `Loads finished matches, extracts features, cross-validates hyperparameters, and persists the winning ensembles.`,
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
		return runTraining(cmd.Context())
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate training history statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := history.Stats()
		if err != nil {
			return err
		}

		fmt.Printf("Total runs:       %d\n", stats.TotalRuns)
		fmt.Printf("Average duration: %s\n", stats.AverageDuration)
		if !stats.LastRunAt.IsZero() {
			fmt.Printf("Last run:         %s\n", stats.LastRunAt.Format(time.RFC3339))
		}
		for modelType, accuracy := range stats.BestAccuracy {
			fmt.Printf("Best %-15s %.4f\n", modelType+":", accuracy)
		}
		return nil
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
	cache := features.NewCache(cfg.FeatureCacheTTL())
	extractor := features.NewExtractor(matches, cache, appLogger)

	modelStore, err := store.NewModelStore(cfg.Storage.ModelDir, appLogger)
	if err != nil {
		return err
	}
	history, err = store.NewTrainingHistory(cfg.Storage.HistoryPath, appLogger)
	if err != nil {
		return err
	}

	training = service.NewTrainingService(matches, extractor, modelStore, history, appLogger, cfg.Training.MinSamples)
	return nil
}

func runTraining(ctx context.Context) error {
	opts := trainOptions()

	run, err := training.TrainModels(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Printf("Training run %s finished in %s\n", run.ID, run.Duration.Round(time.Millisecond))
	fmt.Printf("Samples: %d (excluded: %d)\n", run.SampleCount, run.SkippedCount)
	for _, m := range run.Models {
		fmt.Printf("  %-30s cv=%.4f test=%.4f (trees=%d depth=%d)\n",
			m.ModelName, m.CVAccuracy, m.TestAccuracy,
			m.BestParams.NEstimators, m.BestParams.MaxDepth)
	}
	return nil
}

// trainOptions merges config defaults with command-line overrides.
func trainOptions() models.TrainOptions {
	folds := cfg.Training.Folds
	if flagFolds != 0 {
		folds = flagFolds
	}
	seed := cfg.Training.Seed
	if flagSeed != 0 {
		seed = flagSeed
	}

	return models.TrainOptions{
		ModelTypes:           flagModelTypes,
		ModelName:            flagModelName,
		Folds:                folds,
		HyperparameterSearch: flagSearch || cfg.Training.HyperparameterSearch,
		TestFraction:         cfg.Training.TestFraction,
		Seed:                 seed,
		Budget:               cfg.TrainingBudget(),
		Filter: models.DataFilter{
			Competition:    flagCompetition,
			Season:         flagSeason,
			MinTeamMatches: cfg.Features.MinTeamMatches,
		},
	}
}
