// Package snap provides the default point-on-line snapping service: a pure
// planar nearest-point projection over the measured reaches of a level path.
package snap

import (
	"math"

	"github.com/kmorland/hydrolink/core/linker"
	"github.com/kmorland/hydrolink/model"
	geom "github.com/twpayne/go-geom"
)

// PointSnapper implements linker.Snapper with planar euclidean geometry.
// Reach lines are assumed digitized from the downstream end, matching the
// direction in which measures increase.
type PointSnapper struct{}

// New creates a PointSnapper
func New() *PointSnapper {
	return &PointSnapper{}
}

// Snap returns the closest position to point across all reach lines. The
// measure is interpolated into the owning reach's from/to measure window and
// clamped to [0,100]; the offset is the euclidean distance from the point to
// the snapped position. Positions beyond searchRadius fail with
// linker.ErrNoMatchWithinRadius.
func (s *PointSnapper) Snap(reaches []*model.Segment, point *geom.Point, searchRadius float64) (*linker.SnapResult, error) {
	p := point.Coords()

	best := &linker.SnapResult{Offset: math.Inf(1)}
	found := false

	for _, reach := range reaches {
		if reach.Geom == nil {
			continue
		}
		fraction, distance, ok := nearestOnLine(reach.Geom, p)
		if !ok || distance >= best.Offset {
			continue
		}

		measure := reach.FromMeasure + fraction*(reach.ToMeasure-reach.FromMeasure)
		best = &linker.SnapResult{
			ReachCode: reach.ReachCode,
			Measure:   clamp(measure, 0, 100),
			Offset:    distance,
		}
		found = true
	}

	if !found || best.Offset > searchRadius {
		return nil, linker.ErrNoMatchWithinRadius
	}
	return best, nil
}

// nearestOnLine projects p onto every segment of the line and returns the
// fraction of total line length at the nearest position together with the
// distance to it
func nearestOnLine(line *geom.LineString, p geom.Coord) (fraction, distance float64, ok bool) {
	coords := line.Coords()
	if len(coords) < 2 {
		return 0, 0, false
	}

	total := 0.0
	lengths := make([]float64, len(coords)-1)
	for i := 0; i < len(coords)-1; i++ {
		lengths[i] = planarDistance(coords[i], coords[i+1])
		total += lengths[i]
	}
	if total == 0 {
		return 0, planarDistance(coords[0], p), true
	}

	bestDistance := math.Inf(1)
	bestAlong := 0.0
	along := 0.0
	for i := 0; i < len(coords)-1; i++ {
		t, d := projectOnSegment(coords[i], coords[i+1], p)
		if d < bestDistance {
			bestDistance = d
			bestAlong = along + t*lengths[i]
		}
		along += lengths[i]
	}

	return bestAlong / total, bestDistance, true
}

// projectOnSegment returns the clamped projection parameter t in [0,1] of p
// onto the segment (a,b) and the distance from p to the projected position
func projectOnSegment(a, b, p geom.Coord) (t, distance float64) {
	dx, dy := b.X()-a.X(), b.Y()-a.Y()
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return 0, planarDistance(a, p)
	}

	t = ((p.X()-a.X())*dx + (p.Y()-a.Y())*dy) / lenSq
	t = clamp(t, 0, 1)

	proj := geom.Coord{a.X() + t*dx, a.Y() + t*dy}
	return t, planarDistance(proj, p)
}

func planarDistance(a, b geom.Coord) float64 {
	return math.Hypot(b.X()-a.X(), b.Y()-a.Y())
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
