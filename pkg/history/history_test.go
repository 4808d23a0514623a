package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1F47E/camina-segura/pkg/clock"
	"github.com/1F47E/camina-segura/pkg/models"
	"github.com/1F47E/camina-segura/pkg/store"
)

var (
	start = models.Endpoint{GeoPoint: models.GeoPoint{Lat: 41.3874, Lng: 2.1686}}
	end   = models.Endpoint{GeoPoint: models.GeoPoint{Lat: 41.3900, Lng: 2.1754}, Address: "Passeig de Gràcia"}
)

func newService() *Service {
	return NewService(store.NewMemory(), clock.At(2025, time.June, 1, 14))
}

func route(score int, km float64) models.Route {
	return models.Route{
		ID:            models.RouteSafest,
		SafetyScore:   score,
		DistanceKm:    km,
		EstimatedTime: models.EstimatedTime{Hours: 0, Minutes: 8},
	}
}

func TestStatisticsEmpty(t *testing.T) {
	stats, err := newService().Statistics(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestSaveSingleRoute(t *testing.T) {
	ctx := context.Background()
	s := newService()

	rec, err := s.Save(ctx, route(80, 0.64), start, end)
	require.NoError(t, err)

	_, err = uuid.Parse(rec.ID)
	assert.NoError(t, err)
	assert.Equal(t, DefaultStartAddress, rec.Start.Address)
	assert.Equal(t, "Passeig de Gràcia", rec.End.Address)
	assert.Equal(t, models.RouteSafest, rec.SelectedRouteID)
	assert.Equal(t, 8, rec.DurationMinutes)
	assert.True(t, rec.Timestamp.Equal(time.Date(2025, time.June, 1, 14, 0, 0, 0, time.Local)))

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.TotalRoutes)
	assert.Equal(t, 80, stats.AvgSafetyScore)
	assert.Equal(t, 100, stats.SafeRoutesPercentage)
	assert.Equal(t, 0, stats.RiskyRoutesPercentage)
	assert.Equal(t, 0.6, stats.TotalDistanceKm)
	assert.Equal(t, "41.39,2.17", stats.MostCommonStartArea)
	assert.Equal(t, "41.39,2.18", stats.MostCommonEndArea)
}

func TestSaveEvictsOldest(t *testing.T) {
	ctx := context.Background()
	s := newService()

	var ids []string
	for i := 0; i < 51; i++ {
		rec, err := s.Save(ctx, route(i, 1), start, end)
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 50)
	assert.Equal(t, ids[50], records[0].ID)
	assert.Equal(t, ids[1], records[49].ID)
}

func TestSummarize(t *testing.T) {
	records := []models.RouteHistoryRecord{
		{SafetyScore: 90, DistanceKm: 1.25},
		{SafetyScore: 71, DistanceKm: 2.01},
		{SafetyScore: 70, DistanceKm: 0.5},
		{SafetyScore: 39, DistanceKm: 3},
		{SafetyScore: 40, DistanceKm: 0},
		{SafetyScore: 10, DistanceKm: 1.1},
	}

	stats := Summarize(records)
	require.NotNil(t, stats)
	assert.Equal(t, 6, stats.TotalRoutes)
	assert.Equal(t, 53, stats.AvgSafetyScore) // 320/6
	assert.Equal(t, 7.9, stats.TotalDistanceKm)
	assert.Equal(t, 33, stats.SafeRoutesPercentage)
	assert.Equal(t, 33, stats.RiskyRoutesPercentage)
}

func TestMostCommonArea(t *testing.T) {
	a := models.GeoPoint{Lat: 41.3874, Lng: 2.1686}
	b := models.GeoPoint{Lat: 41.4036, Lng: 2.1744}
	c := models.GeoPoint{Lat: 41.3851, Lng: 2.1734}

	testCases := []struct {
		name     string
		points   []models.GeoPoint
		expected string
	}{
		{"empty", nil, UnknownArea},
		{"single", []models.GeoPoint{a}, "41.39,2.17"},
		{"majority", []models.GeoPoint{b, a, c}, "41.39,2.17"},
		{"tie keeps first seen", []models.GeoPoint{b, a}, "41.40,2.17"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, MostCommonArea(tc.points))
		})
	}
}

func TestAreaKey(t *testing.T) {
	testCases := []struct {
		point    models.GeoPoint
		expected string
	}{
		{models.GeoPoint{Lat: 41.3874, Lng: 2.1686}, "41.39,2.17"},
		{models.GeoPoint{Lat: 41.125, Lng: 0.625}, "41.13,0.63"},
		{models.GeoPoint{Lat: -33.875, Lng: -2.125}, "-33.88,-2.13"},
		{models.GeoPoint{Lat: 0, Lng: 179.999}, "0.00,180.00"},
		{models.GeoPoint{Lat: 41.12, Lng: 2.1}, "41.12,2.10"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, AreaKey(tc.point))
		})
	}
}

type failingStore struct{ store.HistoryStore }

func (failingStore) AppendHistory(context.Context, models.RouteHistoryRecord) error {
	return errors.New("disk full")
}

func (failingStore) ListHistory(context.Context) ([]models.RouteHistoryRecord, error) {
	return nil, errors.New("disk full")
}

func TestStoreErrorsPropagate(t *testing.T) {
	s := NewService(failingStore{}, nil)

	_, err := s.Save(context.Background(), route(80, 1), start, end)
	assert.ErrorContains(t, err, "failed to save route")

	_, err = s.Statistics(context.Background())
	assert.Error(t, err)
}

func BenchmarkSummarize(b *testing.B) {
	records := make([]models.RouteHistoryRecord, store.HistoryLimit)
	for i := range records {
		records[i] = models.RouteHistoryRecord{
			SafetyScore: i * 2,
			DistanceKm:  float64(i) / 10,
			Start:       models.Endpoint{GeoPoint: models.GeoPoint{Lat: 41.38 + float64(i%5)/100, Lng: 2.17}},
			End:         models.Endpoint{GeoPoint: models.GeoPoint{Lat: 41.40, Lng: 2.15 + float64(i%3)/100}},
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Summarize(records)
	}
}
