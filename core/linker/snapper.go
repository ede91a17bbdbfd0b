package linker

import (
	"errors"

	"github.com/kmorland/hydrolink/model"
	geom "github.com/twpayne/go-geom"
)

// ErrNoMatchWithinRadius is returned by a Snapper when no position on the
// line lies inside the search radius
var ErrNoMatchWithinRadius = errors.New("no match within search radius")

// SnapResult is the closest position on a line, expressed as a reach
// identifier, a 0-100 measure along the reach and a lateral offset distance
type SnapResult struct {
	ReachCode string
	Measure   float64
	Offset    float64
}

// Snapper finds the closest position to a point on a level path's line. The
// reaches slice carries the path's segments with their geometries and measure
// ranges. Implementations must be safe for concurrent use.
type Snapper interface {
	Snap(reaches []*model.Segment, point *geom.Point, searchRadius float64) (*SnapResult, error)
}
