package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the survey file for consistency",
	Long:  `Loads the survey and reports missing options, duplicate items and tags that point to unknown questions or options.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		survey, err := loadSurvey(cmd.Context(), cfg, nil)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Survey is valid: %d questions, %d catalog items\n", len(survey.Questions), len(survey.Catalog))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
