package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"PerfumeBot/quiz"
)

var scoreCmd = &cobra.Command{
	Use:     "score",
	Short:   "Print the recommendations for a list of answers",
	Example: `  perfumebot score --answers 1,0,2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		answers, err := cmd.Flags().GetIntSlice("answers")
		if err != nil {
			return err
		}
		survey, err := loadSurvey(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		items := quiz.Score(survey.Catalog, answers)
		if len(items) == 0 {
			fmt.Fprintln(out, "No matching items.")
			return nil
		}
		for i, item := range items {
			fmt.Fprintf(out, "%d. %s (%d matches) %s\n", i+1, item.Name, quiz.MatchCount(item, answers), item.Price)
		}
		return nil
	},
}

func init() {
	scoreCmd.Flags().IntSlice("answers", nil, "Comma separated option indices, one per question")
	rootCmd.AddCommand(scoreCmd)
}
