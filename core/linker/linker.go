package linker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/kmorland/hydrolink/model"
)

// Partition is one independent slice of linking work: a matched level path,
// its member segments and the hydrologic units assigned to it
type Partition struct {
	LevelPathID int64
	Segments    []*model.Segment // sorted ascending by sequence
	Units       []*model.HydrologicUnit
}

// Result is the outcome of linking one partition. Unresolved lists the unit
// ids that produced no geometric intersection and await the global fallback
// pass.
type Result struct {
	LevelPathID int64
	Points      []*model.LinkedPoint
	Unresolved  []string
}

// Linker assigns each hydrologic unit a single representative point on its
// matched level path
type Linker struct {
	Snapper      Snapper
	SearchRadius float64
	log          *slog.Logger
}

// New creates a linker using the given snapping service and search radius
func New(snapper Snapper, searchRadius float64, logger *slog.Logger) *Linker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Linker{
		Snapper:      snapper,
		SearchRadius: searchRadius,
		log:          logger,
	}
}

// Exclusions computes the set of unit ids to skip entirely: non-contributing
// unit types, plus units draining to an external-boundary sentinel. A
// sentinel-draining unit that receives inflow from another non-excluded unit
// is never excluded. Extra ids are merged in unchanged.
func Exclusions(units []*model.HydrologicUnit, extra []string) map[string]bool {
	excluded := make(map[string]bool)
	for _, u := range units {
		if !u.Type.Contributing() {
			excluded[u.ID] = true
		}
	}

	// Receivers of inflow from a contributing, non-excluded unit.
	receivers := make(map[string]bool)
	for _, u := range units {
		if excluded[u.ID] {
			continue
		}
		if u.DownstreamID != "" && !model.ExternalBoundary(u.DownstreamID) {
			receivers[u.DownstreamID] = true
		}
	}

	for _, u := range units {
		if model.ExternalBoundary(u.DownstreamID) && !receivers[u.ID] {
			excluded[u.ID] = true
		}
	}

	for _, id := range extra {
		excluded[id] = true
	}

	return excluded
}

// LinkPartition links every non-excluded unit of one partition by
// intersecting its boundary with the level path's line and snapping the
// intersection onto the nearest reach. Units without an intersection are
// returned as unresolved for the global fallback pass. A single unit's snap
// failure is logged and skipped, never aborting its siblings; a context
// error aborts the partition.
func (l *Linker) LinkPartition(ctx context.Context, p Partition, excluded map[string]bool) (*Result, error) {
	result := &Result{LevelPathID: p.LevelPathID}

	for _, unit := range p.Units {
		if excluded[unit.ID] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("partition %d: %w", p.LevelPathID, err)
		}

		point, found, err := l.linkUnit(unit, p)
		if err != nil {
			l.log.Warn("Failed to link unit, omitting from output",
				slog.String("unit", unit.ID),
				slog.Int64("level_path", p.LevelPathID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !found {
			result.Unresolved = append(result.Unresolved, unit.ID)
			continue
		}
		result.Points = append(result.Points, point)
	}

	return result, nil
}

// linkUnit produces the unit's linked point, or found=false when the unit
// boundary never crosses the path line
func (l *Linker) linkUnit(unit *model.HydrologicUnit, p Partition) (*model.LinkedPoint, bool, error) {
	if unit.Boundary == nil {
		return nil, false, nil
	}

	type candidate struct {
		segment *model.Segment
		snap    *SnapResult
	}
	var candidates []candidate

	for _, seg := range p.Segments {
		if seg.Geom == nil {
			continue
		}
		crossing, ok := boundaryCrossing(unit.Boundary, seg.Geom)
		if !ok {
			continue
		}

		snapped, err := l.Snapper.Snap([]*model.Segment{seg}, crossing, l.SearchRadius)
		if err != nil {
			return nil, false, fmt.Errorf("snap unit %s to segment %d: %w", unit.ID, seg.ID, err)
		}
		candidates = append(candidates, candidate{segment: seg, snap: snapped})
	}

	if len(candidates) == 0 {
		return nil, false, nil
	}

	// Duplicate resolution: keep the most downstream candidate, then the one
	// with the smallest measure along the reach.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].segment.Sequence != candidates[j].segment.Sequence {
			return candidates[i].segment.Sequence < candidates[j].segment.Sequence
		}
		return candidates[i].snap.Measure < candidates[j].snap.Measure
	})
	best := candidates[0]

	return &model.LinkedPoint{
		RID:         uuid.New(),
		UnitID:      unit.ID,
		SegmentID:   best.segment.ID,
		ReachCode:   best.snap.ReachCode,
		Measure:     best.snap.Measure,
		Offset:      best.snap.Offset,
		LevelPathID: p.LevelPathID,
		Method:      model.LinkMethodSnapped,
	}, true, nil
}

// FallbackOutlets assigns unresolved units the most downstream point of
// their level path at measure 0. It runs once, globally, after all
// partitions combine. Units that appear both in the primary output and the
// unresolved set straddle a network gap: their primary points are dropped
// and a single broken-border record is emitted instead. A path outlet whose
// reach starts at a non-zero measure cannot take an automatic zero-measure
// assignment and is reported as a problem unit.
func (l *Linker) FallbackOutlets(paths map[int64]*model.LevelPath, unresolved map[string]int64, primary []*model.LinkedPoint) ([]*model.LinkedPoint, []model.ProblemUnit) {
	border := make(map[string]bool)
	for _, pt := range primary {
		if _, ok := unresolved[pt.UnitID]; ok {
			border[pt.UnitID] = true
		}
	}

	kept := make([]*model.LinkedPoint, 0, len(primary))
	for _, pt := range primary {
		if !border[pt.UnitID] {
			kept = append(kept, pt)
		}
	}

	unitIDs := make([]string, 0, len(unresolved))
	for id := range unresolved {
		unitIDs = append(unitIDs, id)
	}
	sort.Strings(unitIDs)

	var problems []model.ProblemUnit
	for _, id := range unitIDs {
		lp := unresolved[id]
		path, ok := paths[lp]
		if !ok {
			problems = append(problems, model.ProblemUnit{
				UnitID:      id,
				LevelPathID: lp,
				Reason:      "level path not found for fallback outlet",
			})
			continue
		}

		outlet := path.MostDownstream()
		if outlet.FromMeasure != 0 {
			problems = append(problems, model.ProblemUnit{
				UnitID:      id,
				LevelPathID: lp,
				Reason:      fmt.Sprintf("outlet reach %s starts at measure %g, zero-measure assignment would fall mid-reach", outlet.ReachCode, outlet.FromMeasure),
			})
			continue
		}

		method := model.LinkMethodOutletFallback
		if border[id] {
			method = model.LinkMethodBrokenBorder
		}
		kept = append(kept, &model.LinkedPoint{
			RID:         uuid.New(),
			UnitID:      id,
			SegmentID:   outlet.ID,
			ReachCode:   outlet.ReachCode,
			Measure:     0,
			Offset:      0,
			LevelPathID: lp,
			Method:      method,
		})
	}

	return kept, problems
}
