package redisstore

import (
	"io"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1F47E/camina-segura/pkg/models"
	"github.com/1F47E/camina-segura/pkg/store"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestKeys(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer rdb.Close()

	s := NewWithClient(rdb, "", quietLogger())
	assert.Equal(t, "caminasegura:routeHistory", s.Key(store.KeyHistory))

	s = NewWithClient(rdb, "test", quietLogger())
	assert.Equal(t, "test:communityReports", s.Key(store.KeyReports))
}

func TestDecodeAllSkipsBadEntries(t *testing.T) {
	items := []string{
		`{"id":"a","selectedRoute":"safest","safetyScore":80}`,
		`not json`,
		`{"id":"b","selectedRoute":"fastest","safetyScore":45}`,
	}

	recs := decodeAll[models.RouteHistoryRecord](quietLogger(), "k", items)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].ID)
	assert.Equal(t, models.RouteFastest, recs[1].SelectedRouteID)
	assert.Equal(t, 45, recs[1].SafetyScore)
}

func TestDecodeAllNormalizesReportTypes(t *testing.T) {
	items := []string{`{"id":"a","type":"lighting","location":{"lat":41.38,"lng":2.17}}`}

	reports := decodeAll[models.CommunityReport](quietLogger(), "k", items)
	require.Len(t, reports, 1)
	assert.Equal(t, models.ReportPoorLighting, reports[0].Type)
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	reports := []models.CommunityReport{
		{ID: "old", Timestamp: base.Add(-time.Hour)},
		{ID: "b", Timestamp: base},
		{ID: "new", Timestamp: base.Add(time.Hour)},
		{ID: "a", Timestamp: base},
	}

	SortNewestFirst(reports)

	ids := make([]string, len(reports))
	for i, r := range reports {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"new", "a", "b", "old"}, ids)
}
