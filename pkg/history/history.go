// Package history records confirmed routes and derives usage statistics.
package history

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/1F47E/camina-segura/pkg/clock"
	"github.com/1F47E/camina-segura/pkg/geo"
	"github.com/1F47E/camina-segura/pkg/models"
	"github.com/1F47E/camina-segura/pkg/store"
)

const (
	// SafeScore is the score above which a route counts as safe
	SafeScore = 70
	// RiskyScore is the score below which a route counts as risky
	RiskyScore = 40

	DefaultStartAddress = "Start location"
	DefaultEndAddress   = "Destination"
	UnknownArea         = "Unknown"
)

// Service saves routes to a HistoryStore and summarizes them
type Service struct {
	store store.HistoryStore
	clock clock.Clock
}

// NewService creates a history service
func NewService(s store.HistoryStore, c clock.Clock) *Service {
	if c == nil {
		c = clock.System{}
	}
	return &Service{store: s, clock: c}
}

// Record builds the history entry for a confirmed route
func (s *Service) Record(route models.Route, start, end models.Endpoint) models.RouteHistoryRecord {
	if start.Address == "" {
		start.Address = DefaultStartAddress
	}
	if end.Address == "" {
		end.Address = DefaultEndAddress
	}

	return models.RouteHistoryRecord{
		ID:              uuid.NewString(),
		Timestamp:       s.clock.Now(),
		Start:           start,
		End:             end,
		SelectedRouteID: route.ID,
		SafetyScore:     route.SafetyScore,
		DistanceKm:      route.DistanceKm,
		DurationMinutes: route.EstimatedTime.Minutes,
	}
}

// Save appends the route at the head of the history
func (s *Service) Save(ctx context.Context, route models.Route, start, end models.Endpoint) (models.RouteHistoryRecord, error) {
	rec := s.Record(route, start, end)
	if err := s.store.AppendHistory(ctx, rec); err != nil {
		return rec, fmt.Errorf("failed to save route: %w", err)
	}
	return rec, nil
}

// List returns the history, newest first
func (s *Service) List(ctx context.Context) ([]models.RouteHistoryRecord, error) {
	return s.store.ListHistory(ctx)
}

// Statistics summarizes the stored history. It returns nil when the
// history is empty.
func (s *Service) Statistics(ctx context.Context) (*models.Stats, error) {
	records, err := s.store.ListHistory(ctx)
	if err != nil {
		return nil, err
	}
	return Summarize(records), nil
}

// Summarize computes statistics over records, nil when there are none
func Summarize(records []models.RouteHistoryRecord) *models.Stats {
	if len(records) == 0 {
		return nil
	}

	var scoreSum, distance float64
	var safe, risky int
	starts := make([]models.GeoPoint, 0, len(records))
	ends := make([]models.GeoPoint, 0, len(records))

	for _, r := range records {
		scoreSum += float64(r.SafetyScore)
		distance += r.DistanceKm
		if r.SafetyScore > SafeScore {
			safe++
		}
		if r.SafetyScore < RiskyScore {
			risky++
		}
		starts = append(starts, r.Start.GeoPoint)
		ends = append(ends, r.End.GeoPoint)
	}

	total := float64(len(records))
	return &models.Stats{
		TotalRoutes:           len(records),
		AvgSafetyScore:        int(math.Round(scoreSum / total)),
		TotalDistanceKm:       geo.RoundTo(distance, 1),
		SafeRoutesPercentage:  int(math.Round(float64(safe) / total * 100)),
		RiskyRoutesPercentage: int(math.Round(float64(risky) / total * 100)),
		MostCommonStartArea:   MostCommonArea(starts),
		MostCommonEndArea:     MostCommonArea(ends),
	}
}

// AreaKey buckets a coordinate into a ~1.1 km grid cell
func AreaKey(p models.GeoPoint) string {
	return toFixed2(p.Lat) + "," + toFixed2(p.Lng)
}

// toFixed2 formats v with two decimals, rounding exact halves away from
// zero (41.125 -> "41.13") where %.2f would round them to even.
func toFixed2(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	// exact decimal expansion, so the third digit decides the rounding
	exact := strconv.FormatFloat(v, 'f', 64, 64)
	dot := strings.IndexByte(exact, '.')
	cents, err := strconv.ParseInt(exact[:dot]+exact[dot+1:dot+3], 10, 64)
	if err != nil {
		return fmt.Sprintf("%s%.2f", sign, v)
	}
	if exact[dot+3] >= '5' {
		cents++
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// MostCommonArea returns the modal grid cell of points. The cell seen
// first wins ties.
func MostCommonArea(points []models.GeoPoint) string {
	counts := make(map[string]int, len(points))
	order := make([]string, 0, len(points))

	for _, p := range points {
		key := AreaKey(p)
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}

	best, bestCount := UnknownArea, 0
	for _, key := range order {
		if counts[key] > bestCount {
			best, bestCount = key, counts[key]
		}
	}
	return best
}
