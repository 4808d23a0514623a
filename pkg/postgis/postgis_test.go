package postgis

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1F47E/camina-segura/pkg/models"
	"github.com/1F47E/camina-segura/pkg/store"
)

func TestConnString(t *testing.T) {
	opts := Options{Host: "localhost", Port: 5432, User: "postgres", Password: "secret", Database: "caminasegura"}
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=secret dbname=caminasegura sslmode=disable",
		opts.ConnString())
}

func TestReportArgsLongitudeFirst(t *testing.T) {
	ts := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	args := reportArgs(models.CommunityReport{
		ID:        "r1",
		Type:      models.ReportSafeZone,
		Location:  models.GeoPoint{Lat: 41.3851, Lng: 2.1734},
		Timestamp: ts,
		Helpful:   3,
	})

	require.Len(t, args, 11)
	assert.Equal(t, "r1", args[0])
	assert.Equal(t, "safe_zone", args[1])
	assert.Equal(t, 2.1734, args[4])
	assert.Equal(t, 41.3851, args[5])
	assert.Equal(t, ts, args[6])
	assert.Equal(t, 3, args[10])

	// one placeholder per argument
	assert.Contains(t, insertReport, "$11")
	assert.NotContains(t, insertReport, "$12")
}

func TestInsertReportReplacesSameID(t *testing.T) {
	assert.Contains(t, insertReport, "ON CONFLICT (id) DO UPDATE SET")
	assert.Contains(t, insertReport, "helpful = EXCLUDED.helpful")
}

func TestTrimQuery(t *testing.T) {
	q := trimQuery("route_history")
	assert.Equal(t,
		"DELETE FROM route_history WHERE seq NOT IN (SELECT seq FROM route_history ORDER BY seq DESC LIMIT $1)",
		q)
}

func TestSchemaHasSpatialIndexes(t *testing.T) {
	joined := strings.Join(schema, "\n")
	for _, table := range []string{"community_reports", "safety_evaluations"} {
		assert.Contains(t, joined, "ON "+table+" USING GIST(location)")
	}
	assert.Contains(t, joined, "GEOMETRY(POINT, 4326)")
}

func TestStoreImplementsInterfaces(t *testing.T) {
	var _ store.Store = (*Store)(nil)
}
