package main

import (
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/1F47E/camina-segura/pkg/geo"
	"github.com/1F47E/camina-segura/pkg/models"
	"github.com/1F47E/camina-segura/pkg/seed"
)

var (
	benchQueries int
	benchWorkers int
	benchRadius  float64
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark route calculation against the stored reports",
	Long: `Run random route calculations concurrently around central Barcelona
and report throughput and latency.`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVarP(&benchQueries, "queries", "n", 1000, "Number of route calculations")
	benchCmd.Flags().IntVarP(&benchWorkers, "workers", "w", runtime.NumCPU(), "Number of concurrent workers")
	benchCmd.Flags().Float64VarP(&benchRadius, "radius", "r", 3, "Radius in km for random endpoints")
	rootCmd.AddCommand(benchCmd)
}

type benchResult struct {
	Queries       int           `json:"queries"`
	Workers       int           `json:"workers"`
	Errors        int64         `json:"errors"`
	TotalDuration time.Duration `json:"totalDuration"`
	AvgDuration   time.Duration `json:"avgDuration"`
	MinDuration   time.Duration `json:"minDuration"`
	MaxDuration   time.Duration `json:"maxDuration"`
	QueriesPerSec float64       `json:"queriesPerSec"`
	AvgScore      float64       `json:"avgSafetyScore"`
}

func randomPoint(r *rand.Rand, center models.GeoPoint, radiusKm float64) models.GeoPoint {
	latSpan, lngSpan := geo.DegreeSpan(center.Lat, radiusKm)
	return models.GeoPoint{
		Lat: center.Lat + (r.Float64()*2-1)*latSpan,
		Lng: center.Lng + (r.Float64()*2-1)*lngSpan,
	}
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchQueries <= 0 || benchWorkers <= 0 {
		return fmt.Errorf("queries and workers must be positive")
	}
	ctx := cmd.Context()

	var (
		errCount    int64
		scoreSum    int64
		minDuration = time.Hour
		maxDuration time.Duration
		totalDur    time.Duration
		mu          sync.Mutex
	)

	a.log.WithField("queries", benchQueries).WithField("workers", benchWorkers).Info("running route benchmark")
	startTime := time.Now()

	queryCh := make(chan int, benchQueries)
	var wg sync.WaitGroup

	wg.Add(benchWorkers)
	for w := 0; w < benchWorkers; w++ {
		go func(w int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(int64(w) + 1))

			for range queryCh {
				start := models.Endpoint{GeoPoint: randomPoint(r, seed.Barcelona, benchRadius)}
				end := models.Endpoint{GeoPoint: randomPoint(r, seed.Barcelona, benchRadius)}

				queryStart := time.Now()
				routes, err := a.engine.CalculateSafeRoutes(ctx, start, end)
				d := time.Since(queryStart)

				if err != nil {
					atomic.AddInt64(&errCount, 1)
					continue
				}
				atomic.AddInt64(&scoreSum, int64(routes[0].SafetyScore))

				mu.Lock()
				totalDur += d
				if d < minDuration {
					minDuration = d
				}
				if d > maxDuration {
					maxDuration = d
				}
				mu.Unlock()
			}
		}(w)
	}

	for i := 0; i < benchQueries; i++ {
		queryCh <- i
	}
	close(queryCh)

	wg.Wait()
	totalDuration := time.Since(startTime)

	res := benchResult{
		Queries:       benchQueries,
		Workers:       benchWorkers,
		Errors:        errCount,
		TotalDuration: totalDuration,
		MinDuration:   minDuration,
		MaxDuration:   maxDuration,
		QueriesPerSec: float64(benchQueries) / totalDuration.Seconds(),
	}
	if ok := int64(benchQueries) - errCount; ok > 0 {
		res.AvgDuration = totalDur / time.Duration(ok)
		res.AvgScore = float64(scoreSum) / float64(ok)
	}

	if jsonOutput {
		return printJSON(res)
	}

	printTitle("⏱  Route benchmark")
	printStat("Queries", res.Queries)
	printStat("Workers", res.Workers)
	printStat("Errors", res.Errors)
	printStat("Total duration", res.TotalDuration.Round(time.Millisecond))
	printStat("Average", res.AvgDuration)
	printStat("Min", res.MinDuration)
	printStat("Max", res.MaxDuration)
	printStat("Routes/second", fmt.Sprintf("%.2f", res.QueriesPerSec))
	printStat("Avg best route score", fmt.Sprintf("%.1f", res.AvgScore))
	printStat("CPU cores", runtime.NumCPU())
	return nil
}
