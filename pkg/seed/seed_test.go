package seed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1F47E/camina-segura/pkg/geo"
	"github.com/1F47E/camina-segura/pkg/models"
)

var now = time.Date(2025, time.June, 1, 14, 0, 0, 0, time.UTC)

func TestSampleReports(t *testing.T) {
	reports := SampleReports(now)
	require.Len(t, reports, 5)

	seen := map[models.ReportType]bool{}
	for _, r := range reports {
		assert.True(t, r.Type.Valid())
		assert.True(t, geo.Valid(r.Location))
		assert.True(t, r.Timestamp.Before(now))
		assert.Less(t, geo.Distance(Barcelona, r.Location), 2.0)
		seen[r.Type] = true
	}
	assert.Len(t, seen, len(models.ReportTypes))
}

func TestRandom(t *testing.T) {
	opts := RandomOptions{
		Count:    1001,
		Center:   Barcelona,
		RadiusKm: 2,
		MaxAge:   48 * time.Hour,
		Workers:  4,
		Seed:     99,
	}

	reports := Random(opts, now)
	require.Len(t, reports, 1001)

	ids := map[string]bool{}
	for _, r := range reports {
		require.NotEmpty(t, r.ID)
		ids[r.ID] = true
		assert.True(t, r.Type.Valid())
		assert.LessOrEqual(t, geo.Distance(Barcelona, r.Location), opts.RadiusKm*1.01)
		assert.False(t, r.Timestamp.After(now))
		assert.False(t, r.Timestamp.Before(now.Add(-opts.MaxAge)))
	}
	assert.Len(t, ids, 1001)

	assert.Equal(t, reports, Random(opts, now))
}

func TestRandomEdgeCases(t *testing.T) {
	assert.Nil(t, Random(RandomOptions{Count: 0, Workers: 4}, now))

	reports := Random(RandomOptions{Count: 3, Workers: 10, Center: Barcelona, RadiusKm: 1}, now)
	require.Len(t, reports, 3)
	for _, r := range reports {
		assert.True(t, r.Timestamp.Equal(now))
	}
}
