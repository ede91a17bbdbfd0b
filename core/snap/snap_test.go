package snap

import (
	"errors"
	"testing"

	"github.com/kmorland/hydrolink/core/linker"
	"github.com/kmorland/hydrolink/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"
)

func reach(reachCode string, from, to float64, coords ...float64) *model.Segment {
	return &model.Segment{
		ReachCode:   reachCode,
		FromMeasure: from,
		ToMeasure:   to,
		Geom:        geom.NewLineStringFlat(geom.XY, coords),
	}
}

func point(x, y float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{x, y})
}

func TestSnap(t *testing.T) {
	s := New()

	t.Run("Midpoint projection", func(t *testing.T) {
		result, err := s.Snap([]*model.Segment{reach("0501", 0, 100, 0, 0, 10, 0)}, point(5, 3), 10)

		assert.NoError(t, err, "Expected Snap to not return an error")
		require.NotNil(t, result, "Expected a snap result")
		assert.Equal(t, "0501", result.ReachCode, "Expected the reach code")
		assert.InDelta(t, 50, result.Measure, 1e-9, "Expected the midpoint measure")
		assert.InDelta(t, 3, result.Offset, 1e-9, "Expected the lateral offset")
	})

	t.Run("Measure interpolated into the reach window", func(t *testing.T) {
		result, err := s.Snap([]*model.Segment{reach("0502", 20, 80, 0, 0, 10, 0)}, point(5, 1), 10)

		assert.NoError(t, err, "Expected Snap to not return an error")
		assert.InDelta(t, 50, result.Measure, 1e-9, "Expected measure interpolated between from and to")
	})

	t.Run("Projection beyond the line end clamps", func(t *testing.T) {
		result, err := s.Snap([]*model.Segment{reach("0501", 0, 100, 0, 0, 10, 0)}, point(12, 0), 10)

		assert.NoError(t, err, "Expected Snap to not return an error")
		assert.InDelta(t, 100, result.Measure, 1e-9, "Expected measure clamped to the line end")
		assert.InDelta(t, 2, result.Offset, 1e-9, "Expected the distance to the clamped position")
	})

	t.Run("Measure always within bounds", func(t *testing.T) {
		reaches := []*model.Segment{reach("0501", 0, 100, 0, 0, 3, 4, 10, 4)}
		for _, p := range []*geom.Point{point(-5, -5), point(2, 8), point(20, 0)} {
			result, err := s.Snap(reaches, p, 100)
			require.NoError(t, err, "Expected Snap to not return an error")
			assert.GreaterOrEqual(t, result.Measure, 0.0, "Expected measure >= 0")
			assert.LessOrEqual(t, result.Measure, 100.0, "Expected measure <= 100")
		}
	})

	t.Run("Nearest reach wins", func(t *testing.T) {
		reaches := []*model.Segment{
			reach("far", 0, 100, 0, 50, 10, 50),
			reach("near", 0, 100, 0, 0, 10, 0),
		}

		result, err := s.Snap(reaches, point(5, 2), 10)

		assert.NoError(t, err, "Expected Snap to not return an error")
		assert.Equal(t, "near", result.ReachCode, "Expected the closer reach selected")
	})

	t.Run("Nothing within the search radius", func(t *testing.T) {
		_, err := s.Snap([]*model.Segment{reach("0501", 0, 100, 0, 0, 10, 0)}, point(5, 40), 10)

		assert.Error(t, err, "Expected an error beyond the search radius")
		assert.True(t, errors.Is(err, linker.ErrNoMatchWithinRadius), "Expected ErrNoMatchWithinRadius")
	})

	t.Run("No reach geometry", func(t *testing.T) {
		_, err := s.Snap([]*model.Segment{{ReachCode: "0501"}}, point(5, 0), 10)

		assert.Error(t, err, "Expected an error when no reach carries geometry")
		assert.True(t, errors.Is(err, linker.ErrNoMatchWithinRadius), "Expected ErrNoMatchWithinRadius")
	})
}
