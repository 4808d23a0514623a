package main

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/1F47E/camina-segura/pkg/geo"
	"github.com/1F47E/camina-segura/pkg/models"
	"github.com/1F47E/camina-segura/pkg/seed"
)

var (
	reportType        string
	reportTitle       string
	reportDescription string
	reportAt          string
	reportAnonymous   bool
	reportUsername    string
	nearRadius        float64
	listLimit         int
	seedRandom        int
	seedRadius        float64
	seedMaxAge        time.Duration
	seedWorkers       int
	seedValue         int64
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Manage community reports",
}

var reportAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a community report",
	Example: `  caminasegura report add --type harassment --at 41.3917,2.1649 --title "Comments near the metro"
  caminasegura report add --type lighting --at 41.3887,2.1589 --anonymous`,
	RunE: runReportAdd,
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List community reports, newest first",
	RunE:  runReportList,
}

var reportNearCmd = &cobra.Command{
	Use:   "near LAT,LNG",
	Short: "List reports within a radius, nearest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportNear,
}

var reportHelpfulCmd = &cobra.Command{
	Use:   "helpful ID",
	Short: "Mark a report as helpful",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := a.engine.MarkHelpful(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("✓ marked helpful"))
		return nil
	},
}

var reportVerifyCmd = &cobra.Command{
	Use:   "verify ID",
	Short: "Confirm a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := a.engine.VerifyReport(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("✓ report verified"))
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load sample reports around Barcelona",
	Long: `Load the five sample community reports around central Barcelona, plus
optionally a number of randomly generated ones for load testing.`,
	RunE: runSeed,
}

func init() {
	reportAddCmd.Flags().StringVarP(&reportType, "type", "t", "", "Report type: harassment, suspicious, isolated, poor_lighting, safe_zone")
	reportAddCmd.Flags().StringVar(&reportAt, "at", "", "Location as lat,lng")
	reportAddCmd.Flags().StringVar(&reportTitle, "title", "", "Short title")
	reportAddCmd.Flags().StringVar(&reportDescription, "description", "", "Description")
	reportAddCmd.Flags().BoolVar(&reportAnonymous, "anonymous", false, "Do not attach a username")
	reportAddCmd.Flags().StringVar(&reportUsername, "username", "", "Username shown with the report")
	reportAddCmd.MarkFlagRequired("type")
	reportAddCmd.MarkFlagRequired("at")

	reportListCmd.Flags().IntVarP(&listLimit, "limit", "l", 100, "Maximum number of results to display")
	reportNearCmd.Flags().Float64VarP(&nearRadius, "radius", "r", 0.5, "Radius in km")
	reportNearCmd.Flags().IntVarP(&listLimit, "limit", "l", 100, "Maximum number of results to display")

	seedCmd.Flags().IntVarP(&seedRandom, "random", "n", 0, "Number of random reports to generate")
	seedCmd.Flags().Float64VarP(&seedRadius, "radius", "r", 3, "Radius in km for random reports")
	seedCmd.Flags().DurationVar(&seedMaxAge, "max-age", 30*24*time.Hour, "Oldest random report age")
	seedCmd.Flags().IntVarP(&seedWorkers, "workers", "w", runtime.NumCPU(), "Number of worker goroutines")
	seedCmd.Flags().Int64Var(&seedValue, "seed", time.Now().UnixNano(), "Random seed")

	reportCmd.AddCommand(reportAddCmd, reportListCmd, reportNearCmd, reportHelpfulCmd, reportVerifyCmd)
	rootCmd.AddCommand(reportCmd, seedCmd)
}

func runReportAdd(cmd *cobra.Command, args []string) error {
	p, err := parsePoint(reportAt)
	if err != nil {
		return err
	}

	r, err := a.engine.AddReport(cmd.Context(), models.CommunityReport{
		Type:        models.NormalizeReportType(reportType),
		Title:       reportTitle,
		Description: reportDescription,
		Location:    p,
		IsAnonymous: reportAnonymous,
		Username:    reportUsername,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(r)
	}
	fmt.Println(successStyle.Render("✓ report " + r.ID + " added"))
	return nil
}

func runReportList(cmd *cobra.Command, args []string) error {
	reports, err := a.engine.ListReports(cmd.Context())
	if err != nil {
		return err
	}
	if len(reports) > listLimit {
		reports = reports[:listLimit]
	}
	if jsonOutput {
		return printJSON(reports)
	}

	printTitle(fmt.Sprintf("📣 %d reports", len(reports)))
	for _, r := range reports {
		printReport(r, nil)
	}
	return nil
}

func runReportNear(cmd *cobra.Command, args []string) error {
	center, err := parsePoint(args[0])
	if err != nil {
		return err
	}

	start := time.Now()
	hits, err := a.engine.ReportsNear(cmd.Context(), center, nearRadius)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	a.log.WithField("results", len(hits)).WithField("elapsed", elapsed).Debug("radius query finished")

	if len(hits) > listLimit {
		hits = hits[:listLimit]
	}
	if jsonOutput {
		return printJSON(hits)
	}

	printTitle(fmt.Sprintf("📍 %d reports within %.2f km", len(hits), nearRadius))
	for _, h := range hits {
		printReport(h.Report, &center)
	}
	return nil
}

// printReport prints r, with its distance when from is set
func printReport(r models.CommunityReport, from *models.GeoPoint) {
	who := "anonymous"
	if !r.IsAnonymous && r.Username != "" {
		who = r.Username
	}

	line := fmt.Sprintf("%-14s %s", r.Type, r.Title)
	if from != nil {
		line += dimStyle.Render(fmt.Sprintf("  %.0f m", geo.DistanceMeters(*from, r.Location)))
	}
	fmt.Println(subtitleStyle.Render(line))
	fmt.Println(dimStyle.Render(fmt.Sprintf("  %s  %.5f,%.5f  %s  by %s  ✓%d  👍%d",
		r.ID, r.Location.Lat, r.Location.Lng, r.Timestamp.Format(time.RFC3339), who, r.VerifiedCount, r.Helpful)))
}

// bulkAdder is implemented by stores with a batched insert
type bulkAdder interface {
	AddReports(ctx context.Context, reports []models.CommunityReport) error
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	now := time.Now()

	reports := seed.SampleReports(now)
	if seedRandom > 0 {
		genStart := time.Now()
		generated := seed.Random(seed.RandomOptions{
			Count:    seedRandom,
			Center:   seed.Barcelona,
			RadiusKm: seedRadius,
			MaxAge:   seedMaxAge,
			Workers:  seedWorkers,
			Seed:     seedValue,
		}, now)
		a.log.WithField("count", len(generated)).WithField("elapsed", time.Since(genStart)).Debug("random reports generated")
		reports = append(reports, generated...)
	}

	start := time.Now()
	if bulk, ok := a.store.(bulkAdder); ok {
		if err := bulk.AddReports(ctx, reports); err != nil {
			return err
		}
	} else {
		for _, r := range reports {
			if _, err := a.engine.AddReport(ctx, r); err != nil {
				return err
			}
		}
	}
	elapsed := time.Since(start)

	printTitle("🌱 Seed")
	printStat("Reports loaded", len(reports))
	printStat("Backend", a.cfg.Storage.Backend)
	printStat("Time", elapsed.Round(time.Millisecond))
	if elapsed > 0 {
		printStat("Reports per second", fmt.Sprintf("%.0f", float64(len(reports))/elapsed.Seconds()))
	}
	return nil
}
