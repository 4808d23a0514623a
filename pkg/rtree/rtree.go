// Package rtree implements an R-Tree index over community reports so the
// scorer and the route synthesizer can find nearby reports without scanning
// the whole collection for every waypoint.
package rtree

import (
	"math"
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"

	"github.com/1F47E/camina-segura/pkg/geo"
	"github.com/1F47E/camina-segura/pkg/models"
)

const (
	tolerance   = 0.0001
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

// spatialReport wraps a report to implement rtreego.Spatial
type spatialReport struct {
	report *models.CommunityReport
	rect   *rtreego.Rect
}

func (sr *spatialReport) Bounds() *rtreego.Rect {
	return sr.rect
}

// Hit is a report found by a proximity query together with its distance
type Hit struct {
	Report     models.CommunityReport
	DistanceKm float64
}

// ReportIndex is a thread-safe R-Tree over community reports
type ReportIndex struct {
	tree  *rtreego.Rtree
	count int
	mu    sync.RWMutex
}

// NewReportIndex loads the given reports into a new index. Reports with
// coordinates outside the valid range are skipped.
func NewReportIndex(reports []models.CommunityReport) *ReportIndex {
	idx := &ReportIndex{tree: rtreego.NewTree(dimensions, minChildren, maxChildren)}
	for _, r := range reports {
		idx.Insert(r)
	}
	return idx
}

func newSpatialReport(r *models.CommunityReport) *spatialReport {
	p := rtreego.Point{r.Location.Lat, r.Location.Lng}
	return &spatialReport{report: r, rect: p.ToRect(tolerance)}
}

// Insert adds a single report to the index
func (idx *ReportIndex) Insert(r models.CommunityReport) {
	if !geo.Valid(r.Location) {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.tree.Insert(newSpatialReport(&r))
	idx.count++
}

// lngRange is a longitude interval inside [-180, 180]
type lngRange struct{ min, max float64 }

// lngRanges splits [lng-span, lng+span] into intervals that do not cross
// the antimeridian
func lngRanges(lng, span float64) []lngRange {
	if span >= 180 {
		return []lngRange{{-180, 180}}
	}

	lo, hi := lng-span, lng+span
	ranges := []lngRange{{math.Max(lo, -180), math.Min(hi, 180)}}
	if lo < -180 {
		ranges = append(ranges, lngRange{lo + 360, 180})
	}
	if hi > 180 {
		ranges = append(ranges, lngRange{-180, hi - 360})
	}
	return ranges
}

// Within returns every report whose Haversine distance from center is at
// most radiusKm, closest first. Boxes crossing the antimeridian are split.
func (idx *ReportIndex) Within(center models.GeoPoint, radiusKm float64) []Hit {
	if radiusKm <= 0 {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	latDeg, lngDeg := geo.DegreeSpan(center.Lat, radiusKm)

	seen := make(map[*spatialReport]bool)
	var hits []Hit
	for _, lr := range lngRanges(center.Lng, lngDeg) {
		bounds, err := rtreego.NewRect(
			rtreego.Point{center.Lat - latDeg, lr.min},
			[]float64{2 * latDeg, lr.max - lr.min},
		)
		if err != nil {
			continue
		}

		// Filter by actual distance
		for _, result := range idx.tree.SearchIntersect(bounds) {
			item, ok := result.(*spatialReport)
			if !ok || item.report == nil || seen[item] {
				continue
			}
			seen[item] = true

			dist := geo.Distance(center, item.report.Location)
			if dist <= radiusKm {
				hits = append(hits, Hit{Report: *item.report, DistanceKm: dist})
			}
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].DistanceKm < hits[j].DistanceKm
	})
	return hits
}

// NearestOfType returns the closest report of type t within radiusKm
func (idx *ReportIndex) NearestOfType(center models.GeoPoint, t models.ReportType, radiusKm float64) (Hit, bool) {
	for _, hit := range idx.Within(center, radiusKm) {
		if hit.Report.Type == t {
			return hit, true
		}
	}
	return Hit{}, false
}

// Count returns the number of indexed reports
func (idx *ReportIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.count
}
