package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"PerfumeBot/config"
	"PerfumeBot/model"
	"PerfumeBot/repo"
)

var rootCmd = &cobra.Command{
	Use:           "perfumebot",
	Short:         "Telegram survey bot that recommends perfumes",
	Long:          `PerfumeBot asks a fixed sequence of multiple-choice questions and recommends the best matching perfumes from a catalog.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("survey", "", "Path to the survey YAML file (overrides SURVEY_FILE)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (overrides LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies command line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("survey"); v != "" {
		cfg.SurveyFile = v
		cfg.SurveySource = config.SourceFile
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

// loadSurvey reads the survey from the configured source. fc may be nil
// when Firebase is not configured.
func loadSurvey(ctx context.Context, cfg *config.Config, fc *repo.FirebaseConnector) (*model.Survey, error) {
	if cfg.SurveySource != config.SourceFirebase {
		return config.LoadSurvey(cfg.SurveyFile)
	}
	if fc == nil {
		return nil, fmt.Errorf("survey source %q needs FIREBASE_SERVICE_ACCOUNT_KEY_PATH and FIREBASE_DATABASE_URL", config.SourceFirebase)
	}

	survey, err := fc.LoadSurvey(ctx)
	if err != nil {
		return nil, err
	}
	if err := config.ValidateSurvey(survey); err != nil {
		return nil, err
	}
	log.Info().Int("questions", len(survey.Questions)).Int("items", len(survey.Catalog)).Msg("survey loaded from firebase")
	return survey, nil
}
