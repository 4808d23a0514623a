package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1F47E/camina-segura/pkg/models"
	"github.com/1F47E/camina-segura/pkg/routing"
)

var (
	fromFlag    string
	toFlag      string
	fromAddress string
	toAddress   string
	pickRoute   bool
	saveRoute   string
	travelMode  string
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Calculate safest, fastest and balanced routes",
	Long:  `Calculate the three route variants between two points, scored against the stored reports and evaluations.`,
	Example: `  caminasegura routes --from 41.3874,2.1686 --to 41.3900,2.1754
  caminasegura routes --from 41.3874,2.1686 --to 41.3900,2.1754 --pick`,
	RunE: runRoutes,
}

var scoreCmd = &cobra.Command{
	Use:   "score LAT,LNG",
	Short: "Score a single location",
	Args:  cobra.ExactArgs(1),
	RunE:  runScore,
}

func init() {
	routesCmd.Flags().StringVar(&fromFlag, "from", "", "Start point as lat,lng")
	routesCmd.Flags().StringVar(&toFlag, "to", "", "Destination as lat,lng")
	routesCmd.Flags().StringVar(&fromAddress, "from-address", "", "Start address label")
	routesCmd.Flags().StringVar(&toAddress, "to-address", "", "Destination address label")
	routesCmd.Flags().BoolVarP(&pickRoute, "pick", "p", false, "Pick a route interactively and save it to history")
	routesCmd.Flags().StringVarP(&saveRoute, "save", "s", "", "Save the route with this id (safest, fastest, balanced) to history")
	routesCmd.Flags().StringVarP(&travelMode, "mode", "m", string(routing.ModeWalking), "Travel mode for time estimates: walking, cycling, transit, driving")
	routesCmd.MarkFlagRequired("from")
	routesCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(routesCmd, scoreCmd)
}

func runRoutes(cmd *cobra.Command, args []string) error {
	from, err := parsePoint(fromFlag)
	if err != nil {
		return err
	}
	to, err := parsePoint(toFlag)
	if err != nil {
		return err
	}
	start := models.Endpoint{GeoPoint: from, Address: fromAddress}
	end := models.Endpoint{GeoPoint: to, Address: toAddress}

	ctx := cmd.Context()
	routes, err := a.engine.CalculateSafeRoutes(ctx, start, end)
	if err != nil {
		return err
	}

	mode := routing.Mode(travelMode)
	if mode != routing.ModeWalking {
		for i := range routes {
			routes[i].EstimatedTime = routing.EstimateTime(routes[i].DistanceKm, mode)
		}
	}

	recs := make([][]models.Recommendation, len(routes))
	for i, r := range routes {
		if recs[i], err = a.engine.GetRouteRecommendations(ctx, r); err != nil {
			return err
		}
	}

	var chosen *models.Route
	switch {
	case pickRoute:
		if !interactive {
			return errors.New("--pick needs an interactive terminal, use --save instead")
		}
		idx, err := pick(routes, recs)
		if err != nil {
			return err
		}
		if idx < 0 {
			fmt.Println(dimStyle.Render("No route selected"))
			return nil
		}
		chosen = &routes[idx]

	case saveRoute != "":
		for i := range routes {
			if string(routes[i].ID) == saveRoute {
				chosen = &routes[i]
			}
		}
		if chosen == nil {
			return fmt.Errorf("unknown route id %q", saveRoute)
		}
	}

	if chosen == nil {
		if jsonOutput {
			return printJSON(routes)
		}
		printRoutes(routes, recs)
		return nil
	}

	if err := a.engine.SaveRouteToHistory(ctx, *chosen, start, end); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(chosen)
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("✓ %s saved to history", chosen.Name)))
	return nil
}

func printRoutes(routes []models.Route, recs [][]models.Recommendation) {
	printTitle("🧭 Routes")
	for i, r := range routes {
		header := fmt.Sprintf("%s %s", r.Icon, r.Name)
		if r.Recommended {
			header += successStyle.Render("  ★ recommended")
		}

		body := fmt.Sprintf("%s\n%s %s\n%s %.2f km, %dh %02dm\n%s %d",
			subtitleStyle.Render(header),
			scoreBar(float64(r.SafetyScore)), scoreStyle(float64(r.SafetyScore)).Render(fmt.Sprintf("%d/100", r.SafetyScore)),
			dimStyle.Render("distance:"), r.DistanceKm, r.EstimatedTime.Minutes/60, r.EstimatedTime.Minutes%60,
			dimStyle.Render("danger points:"), len(r.DangerousPoints))

		for _, rec := range recs[i] {
			body += "\n" + rec.Icon + " " + rec.Message
		}
		fmt.Println(boxStyle.Render(body))
	}
}

func runScore(cmd *cobra.Command, args []string) error {
	p, err := parsePoint(args[0])
	if err != nil {
		return err
	}

	score, err := a.engine.ScorePoint(cmd.Context(), p)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(map[string]interface{}{"lat": p.Lat, "lng": p.Lng, "safetyScore": score})
	}
	fmt.Printf("%.5f,%.5f  %s %s\n", p.Lat, p.Lng, scoreBar(score), scoreStyle(score).Render(fmt.Sprintf("%.0f/100", score)))
	return nil
}
