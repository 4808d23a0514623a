package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1F47E/camina-segura/pkg/postgis"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved routes, newest first",
	RunE:  runHistory,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show route history statistics",
	RunE:  runStats,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 50, "Maximum number of results to display")
	rootCmd.AddCommand(historyCmd, statsCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	records, err := a.engine.History(cmd.Context())
	if err != nil {
		return err
	}
	if len(records) > historyLimit {
		records = records[:historyLimit]
	}
	if jsonOutput {
		return printJSON(records)
	}

	printTitle(fmt.Sprintf("🗂  %d saved routes", len(records)))
	for _, r := range records {
		score := float64(r.SafetyScore)
		fmt.Printf("  %s  %-9s %s  %5.2f km  %3d min  %s → %s\n",
			dimStyle.Render(r.Timestamp.Format("2006-01-02 15:04")),
			r.SelectedRouteID,
			scoreStyle(score).Render(fmt.Sprintf("%3d", r.SafetyScore)),
			r.DistanceKm, r.DurationMinutes,
			r.Start.Address, r.End.Address)
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	stats, err := a.engine.GetRouteStatistics(ctx)
	if err != nil {
		return err
	}

	var dbStats map[string]interface{}
	if pg, ok := a.store.(*postgis.Store); ok {
		if dbStats, err = pg.DatabaseStats(ctx); err != nil {
			a.log.WithError(err).Warn("failed to read database stats")
		}
	}

	if jsonOutput {
		return printJSON(map[string]interface{}{"stats": stats, "database": dbStats})
	}

	printTitle("📊 Route statistics")
	if stats == nil {
		fmt.Println(dimStyle.Render("  no routes yet"))
	} else {
		printStat("Total routes", stats.TotalRoutes)
		fmt.Printf("  %s %s %s\n", dimStyle.Render("Average safety:"),
			scoreBar(float64(stats.AvgSafetyScore)),
			scoreStyle(float64(stats.AvgSafetyScore)).Render(fmt.Sprintf("%d/100", stats.AvgSafetyScore)))
		printStat("Total distance", fmt.Sprintf("%.1f km", stats.TotalDistanceKm))
		printStat("Safe routes", fmt.Sprintf("%d%%", stats.SafeRoutesPercentage))
		printStat("Risky routes", fmt.Sprintf("%d%%", stats.RiskyRoutesPercentage))
		printStat("Usual start area", stats.MostCommonStartArea)
		printStat("Usual destination area", stats.MostCommonEndArea)
	}

	if dbStats != nil {
		printTitle("🐘 Database")
		for _, key := range []string{"database_size", "community_reports", "safety_evaluations", "route_history"} {
			if v, ok := dbStats[key]; ok {
				printStat(key, v)
			}
		}
	}
	return nil
}
