// Package seed generates sample community reports.
package seed

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/1F47E/camina-segura/pkg/geo"
	"github.com/1F47E/camina-segura/pkg/models"
)

// Barcelona is the default centre for generated reports
var Barcelona = models.GeoPoint{Lat: 41.3874, Lng: 2.1686}

// SampleReports returns the five sample reports around central Barcelona,
// timestamped relative to now
func SampleReports(now time.Time) []models.CommunityReport {
	return []models.CommunityReport{
		{
			ID:            "sample-1",
			Type:          models.ReportHarassment,
			Title:         "Inappropriate comments",
			Description:   "Near the metro station, two men making comments.",
			Location:      models.GeoPoint{Lat: 41.3917, Lng: 2.1649},
			Timestamp:     now.Add(-2 * time.Hour),
			IsAnonymous:   true,
			VerifiedCount: 3,
			Helpful:       12,
		},
		{
			ID:            "sample-2",
			Type:          models.ReportPoorLighting,
			Title:         "Very dark street",
			Description:   "Street lights off along the whole stretch.",
			Location:      models.GeoPoint{Lat: 41.3887, Lng: 2.1589},
			Timestamp:     now.Add(-5 * time.Hour),
			Username:      "María G.",
			VerifiedCount: 7,
			Helpful:       18,
		},
		{
			ID:            "sample-3",
			Type:          models.ReportSafeZone,
			Title:         "24h café",
			Description:   "Friendly staff, well lit and safe.",
			Location:      models.GeoPoint{Lat: 41.3851, Lng: 2.1734},
			Timestamp:     now.Add(-24 * time.Hour),
			Username:      "Laura M.",
			VerifiedCount: 15,
			Helpful:       45,
		},
		{
			ID:            "sample-4",
			Type:          models.ReportIsolated,
			Title:         "Quiet passage",
			Description:   "Completely empty at night, better avoided.",
			Location:      models.GeoPoint{Lat: 41.3978, Lng: 2.1706},
			Timestamp:     now.Add(-12 * time.Hour),
			IsAnonymous:   true,
			VerifiedCount: 5,
			Helpful:       9,
		},
		{
			ID:            "sample-5",
			Type:          models.ReportSuspicious,
			Title:         "People loitering",
			Description:   "Group acting suspiciously in the park.",
			Location:      models.GeoPoint{Lat: 41.3795, Lng: 2.1825},
			Timestamp:     now.Add(-3 * time.Hour),
			IsAnonymous:   true,
			VerifiedCount: 2,
			Helpful:       6,
		},
	}
}

// RandomOptions controls Random
type RandomOptions struct {
	Count    int
	Center   models.GeoPoint
	RadiusKm float64
	// MaxAge spreads timestamps over [now-MaxAge, now]
	MaxAge  time.Duration
	Workers int
	Seed    int64
}

// Random generates reports uniformly spread over a disc around Center.
// Work is split across Workers goroutines, each with its own source derived
// from Seed, so the output is reproducible for a given seed and worker count.
func Random(opts RandomOptions, now time.Time) []models.CommunityReport {
	if opts.Count <= 0 {
		return nil
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > opts.Count {
		workers = opts.Count
	}

	reports := make([]models.CommunityReport, opts.Count)
	batchSize := opts.Count / workers
	latSpan, lngSpan := geo.DegreeSpan(opts.Center.Lat, opts.RadiusKm)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		startIdx := w * batchSize
		endIdx := startIdx + batchSize
		if w == workers-1 {
			endIdx = opts.Count
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(opts.Seed + int64(start)))

			for i := start; i < end; i++ {
				// sqrt keeps the density uniform over the disc
				dist := math.Sqrt(r.Float64())
				angle := r.Float64() * 2 * math.Pi

				var age time.Duration
				if opts.MaxAge > 0 {
					age = time.Duration(r.Int63n(int64(opts.MaxAge)))
				}

				reports[i] = models.CommunityReport{
					ID:   fmt.Sprintf("generated-%d", i),
					Type: models.ReportTypes[r.Intn(len(models.ReportTypes))],
					Location: models.GeoPoint{
						Lat: opts.Center.Lat + dist*latSpan*math.Sin(angle),
						Lng: opts.Center.Lng + dist*lngSpan*math.Cos(angle),
					},
					Timestamp:   now.Add(-age),
					IsAnonymous: true,
				}
			}
		}(startIdx, endIdx)
	}

	wg.Wait()
	return reports
}
