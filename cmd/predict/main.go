// Package main provides the entry point for the prediction command.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
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

var (
	configFile string
	appLogger  *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	prediction *service.PredictionService

	flagModel       string
	flagCompetition string
	flagSeason      string
	flagJSON        bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Emit JSON instead of text")
	rootCmd.Flags().StringVar(&flagModel, "model", "", "Model name (default: competition model)")

	evaluateCmd.Flags().StringVar(&flagCompetition, "competition", "", "Restrict evaluation data to one competition")
	evaluateCmd.Flags().StringVar(&flagSeason, "season", "", "Restrict evaluation data to one season")

	rootCmd.AddCommand(featuresCmd, evaluateCmd, modelsCmd, deleteCmd)
}

var rootCmd = &cobra.Command{
	Use:   "predict <match-id>",
	Short: "Predict the outcome of a match",
	Args:  cobra.ExactArgs(1),
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
		matchID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid match id %q", args[0])
		}

		result, err := prediction.Predict(cmd.Context(), matchID, flagModel)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(result)
		}

		fmt.Printf("Match %d: %s (model %s)\n", result.MatchID, result.Predicted, result.ModelName)
		for _, outcome := range models.ClassOrder {
			fmt.Printf("  %-10s %.4f\n", outcome, result.Probabilities[outcome])
		}
		fmt.Printf("Confidence: %.4f\n", result.Confidence)
		return nil
	},
}

var featuresCmd = &cobra.Command{
	Use:   "features <match-id>",
	Short: "Print the feature vector for a match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		matchID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid match id %q", args[0])
		}

		fv, err := prediction.GenerateFeatures(cmd.Context(), matchID, time.Time{})
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(fv)
		}

		for _, name := range models.FeatureSchema {
			fmt.Printf("%-28s %+.4f\n", name, fv[name])
		}
		return nil
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <model-name>",
	Short: "Evaluate a persisted model against finished matches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := models.DataFilter{
			Competition:    flagCompetition,
			Season:         flagSeason,
			MinTeamMatches: cfg.Features.MinTeamMatches,
		}

		report, err := prediction.EvaluateModel(cmd.Context(), args[0], filter)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(report)
		}

		fmt.Printf("Model %s: accuracy %.4f over %d samples\n", report.ModelName, report.Accuracy, report.SampleCount)
		for _, outcome := range models.ClassOrder {
			m := report.PerClass[outcome]
			fmt.Printf("  %-10s precision=%.4f recall=%.4f f1=%.4f support=%d\n",
				outcome, m.Precision, m.Recall, m.F1, m.Support)
		}
		return nil
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List persisted models",
	RunE: func(cmd *cobra.Command, args []string) error {
		infos, err := prediction.ListModels()
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(infos)
		}

		for _, info := range infos {
			fmt.Printf("%-30s %8d bytes  %s\n", info.Name, info.SizeBytes, info.LastModified.Format(time.RFC3339))
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <model-name>",
	Short: "Delete a persisted model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return prediction.DeleteModel(args[0])
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
	history, err := store.NewTrainingHistory(cfg.Storage.HistoryPath, appLogger)
	if err != nil {
		return err
	}

	prediction = service.NewPredictionService(matches, extractor, modelStore, history, appLogger)
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
