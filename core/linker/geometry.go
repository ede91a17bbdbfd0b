package linker

import (
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy/lineintersector"
)

// boundaryCrossing returns the first point where the unit boundary crosses
// the segment line. Every ring of the polygon is tested so that holes along
// the path also produce a crossing.
func boundaryCrossing(boundary *geom.Polygon, line *geom.LineString) (*geom.Point, bool) {
	strategy := lineintersector.RobustLineIntersector{}
	lineCoords := line.Coords()

	for ring := 0; ring < boundary.NumLinearRings(); ring++ {
		ringCoords := boundary.LinearRing(ring).Coords()
		for i := 0; i < len(ringCoords)-1; i++ {
			for j := 0; j < len(lineCoords)-1; j++ {
				result := lineintersector.LineIntersectsLine(
					strategy,
					ringCoords[i], ringCoords[i+1],
					lineCoords[j], lineCoords[j+1],
				)
				if !result.HasIntersection() {
					continue
				}
				intersections := result.Intersection()
				if len(intersections) == 0 {
					continue
				}
				p := geom.NewPointFlat(geom.XY, []float64{intersections[0].X(), intersections[0].Y()})
				return p, true
			}
		}
	}

	return nil, false
}
