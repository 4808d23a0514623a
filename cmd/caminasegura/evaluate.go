package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/1F47E/camina-segura/pkg/evaluation"
	"github.com/1F47E/camina-segura/pkg/models"
)

var (
	answers    map[string]string
	evaluateAt string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run the personal safety self-assessment",
	Long: `Assess the current situation from six answers and store the result.
Run "caminasegura questions" to list the accepted answers.`,
	Example: `  caminasegura evaluate -a time=night -a people=alone -a lighting=dim \
    -a area=residential -a feeling=alert -a transport=far --at 41.3874,2.1686`,
	RunE: runEvaluate,
}

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "List the self-assessment questions and answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOutput {
			return printJSON(evaluation.Questions)
		}
		for _, q := range evaluation.Questions {
			fmt.Println(subtitleStyle.Render(fmt.Sprintf("%s  %s", q.ID, q.Text)))
			for _, o := range q.Options {
				fmt.Printf("  %-14s %s %s\n", o.Value, o.Label, dimStyle.Render(fmt.Sprintf("(risk %d)", o.Risk)))
			}
		}
		return nil
	},
}

func init() {
	evaluateCmd.Flags().StringToStringVarP(&answers, "answer", "a", nil, "Answer as question=value, repeatable")
	evaluateCmd.Flags().StringVar(&evaluateAt, "at", "", "Current location as lat,lng")
	evaluateCmd.MarkFlagRequired("answer")

	rootCmd.AddCommand(evaluateCmd, questionsCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	var location *models.GeoPoint
	if evaluateAt != "" {
		p, err := parsePoint(evaluateAt)
		if err != nil {
			return err
		}
		location = &p
	}

	res, err := a.engine.SubmitEvaluation(cmd.Context(), answers, location)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(res)
	}

	// Risk reads the other way round from a safety score
	safety := 100 - res.Evaluation.Percentage

	printTitle("🛡  Self-assessment")
	printStat("Level", res.Evaluation.Level)
	fmt.Printf("  %s %s %s\n", dimStyle.Render("Risk:"), scoreBar(safety),
		scoreStyle(safety).Render(fmt.Sprintf("%.0f%%", res.Evaluation.Percentage)))

	ids := make([]string, 0, len(res.Evaluation.Responses))
	for id := range res.Evaluation.Responses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		r := res.Evaluation.Responses[id]
		fmt.Println(dimStyle.Render(fmt.Sprintf("  %-10s %-14s risk %d/%d", id, r.Value, r.Risk, evaluation.MaxRisk)))
	}

	if len(res.Tips) > 0 {
		fmt.Println()
		for _, tip := range res.Tips {
			line := tip.Icon + " " + tip.Message
			if tip.Action != "" {
				line += dimStyle.Render("  [" + tip.Action + "]")
			}
			fmt.Println(line)
		}
	}
	return nil
}
