// Package hydrolink conflates two hydrographic network representations and
// anchors drainage-boundary polygons to single points on the conflated
// network. It resolves level-path correspondences between a coarse source
// network and a finer target network, then links each hydrologic unit to one
// representative point, executed as a parallel batch job with per-partition
// failure isolation and checkpoint resume.
package hydrolink

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kmorland/hydrolink/core/executor"
	"github.com/kmorland/hydrolink/core/linker"
	"github.com/kmorland/hydrolink/core/network"
	"github.com/kmorland/hydrolink/core/resolver"
	"github.com/kmorland/hydrolink/core/snap"
	"github.com/kmorland/hydrolink/database"
	"github.com/kmorland/hydrolink/helper"
	"github.com/kmorland/hydrolink/model"
	loadSql "github.com/kmorland/hydrolink/sql"
)

// Hydrolink provides a unified interface to the feature store handlers and
// the conflation pipeline
type Hydrolink struct {
	DB       *helper.Database
	Segments *database.SegmentsDBHandler
	Units    *database.UnitsDBHandler
	Points   *database.PointsDBHandler
	Snapper  linker.Snapper
	// Logging
	log *slog.Logger
}

// NewHydrolink creates a new Hydrolink instance with all handlers initialized
func NewHydrolink(config *helper.DatabaseConfiguration) (*Hydrolink, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("hydrolink", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database schema", err)
	}

	// Create all handlers
	// force=false to not reload if functions already exist
	segments, err := database.NewSegmentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create segments handler", err)
	}

	units, err := database.NewUnitsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create units handler", err)
	}

	points, err := database.NewPointsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create points handler", err)
	}

	return &Hydrolink{
		DB:       db,
		Segments: segments,
		Units:    units,
		Points:   points,
		Snapper:  snap.New(),
		log:      logger,
	}, nil
}

// Close closes the database connection
func (h *Hydrolink) Close() error {
	if h.DB != nil && h.DB.Instance != nil {
		return h.DB.Instance.Close()
	}
	return nil
}

// SetSnapper replaces the default point-on-line snapping service
func (h *Hydrolink) SetSnapper(snapper linker.Snapper) {
	h.Snapper = snapper
}

// BuildNetwork loads one network representation from the feature store
func (h *Hydrolink) BuildNetwork(net model.Network) (*network.FlowNetwork, error) {
	segments, err := h.Segments.SelectSegmentsByNetwork(net)
	if err != nil {
		return nil, helper.NewError(fmt.Sprintf("load %s segments", net), err)
	}
	return network.New(segments)
}

// ConflateAndLink runs the full pipeline: resolve level-path correspondences
// between the source and target networks, partition the linking work by
// matched level path, execute all partitions on the worker pool, apply the
// global fallback pass and persist the combined output under the run key.
// The run always completes with best-effort output; the report carries the
// excluded units, problem units and failed partitions. Only resolver and
// graph-invariant failures abort the run.
func (h *Hydrolink) ConflateAndLink(ctx context.Context, config *model.RunConfig) (*model.RunReport, error) {
	report := &model.RunReport{
		RID:       uuid.New(),
		RunKey:    config.RunKey,
		StartedAt: time.Now(),
	}

	source, err := h.BuildNetwork(model.NetworkSource)
	if err != nil {
		return nil, err
	}
	target, err := h.BuildNetwork(model.NetworkTarget)
	if err != nil {
		return nil, err
	}

	units, err := h.Units.SelectAllUnits()
	if err != nil {
		return nil, helper.NewError("load hydrologic units", err)
	}

	policy, err := resolver.PolicyByName(config.TieBreakPolicy)
	if err != nil {
		return nil, helper.NewError("select tie-break policy", err)
	}

	res := resolver.New(source, target, policy, h.log)
	mapping, err := res.Resolve(config.Headwaters)
	if err != nil {
		return nil, helper.NewError("resolve correspondences", err)
	}

	excluded := linker.Exclusions(units, config.Exclusions)
	partitions := h.buildPartitions(source, target, units, mapping, excluded)

	lnk := linker.New(h.Snapper, config.SearchRadius, h.log)
	exec := executor.New(config.WorkerCount, config.PartitionTimeout, h.Points, h.log)

	out, err := exec.Run(ctx, config.RunKey, partitions, func(ctx context.Context, p linker.Partition) (*linker.Result, error) {
		return lnk.LinkPartition(ctx, p, excluded)
	})
	if err != nil {
		return nil, helper.NewError("run task pool", err)
	}

	if out.FromCheckpoint {
		report.Linked = len(out.Points)
		report.FromCheckpoint = true
		report.FinishedAt = time.Now()
		return report, nil
	}

	// Fallback and broken-border records are computed once, globally, since
	// they require the full cross-partition output.
	paths := make(map[int64]*model.LevelPath)
	for lp := range levelPathsOf(partitions, out.Unresolved) {
		if path, ok := source.LevelPath(lp); ok {
			paths[lp] = path
		}
	}
	final, problems := lnk.FallbackOutlets(paths, out.Unresolved, out.Points)

	for _, point := range final {
		point.RunKey = config.RunKey
	}
	err = h.Points.InsertLinkedPoints(final)
	if err != nil {
		return nil, helper.NewError("persist linked points", err)
	}

	report.Linked = len(final)
	report.Excluded = sortedKeys(excluded)
	report.Problems = problems
	report.FailedPartitions = out.Failures
	report.FinishedAt = time.Now()

	h.log.Info("Conflation run complete",
		slog.String("run_key", config.RunKey),
		slog.Int("linked", report.Linked),
		slog.Int("excluded", len(report.Excluded)),
		slog.Int("problems", len(report.Problems)),
		slog.Int("failed_partitions", len(report.FailedPartitions)),
	)

	return report, nil
}

// buildPartitions assigns each unit to the matched level path of its most
// downstream mapped member segment and groups the work per level path. Units
// with no mapped member are logged and left out.
func (h *Hydrolink) buildPartitions(source, target *network.FlowNetwork, units []*model.HydrologicUnit, mapping map[int64]int64, excluded map[string]bool) []linker.Partition {
	unitsByPath := make(map[int64][]*model.HydrologicUnit)

	for _, unit := range units {
		if excluded[unit.ID] {
			continue
		}

		levelPathID, ok := h.assignLevelPath(target, unit, mapping)
		if !ok {
			h.log.Debug("Unit has no mapped member segment, skipping", slog.String("unit", unit.ID))
			continue
		}
		unitsByPath[levelPathID] = append(unitsByPath[levelPathID], unit)
	}

	levelPathIDs := make([]int64, 0, len(unitsByPath))
	for lp := range unitsByPath {
		levelPathIDs = append(levelPathIDs, lp)
	}
	sort.Slice(levelPathIDs, func(i, j int) bool { return levelPathIDs[i] < levelPathIDs[j] })

	partitions := make([]linker.Partition, 0, len(levelPathIDs))
	for _, lp := range levelPathIDs {
		path, ok := source.LevelPath(lp)
		if !ok {
			h.log.Warn("Matched level path not found in source network", slog.Int64("level_path", lp))
			continue
		}

		partitionUnits := unitsByPath[lp]
		sort.Slice(partitionUnits, func(i, j int) bool { return partitionUnits[i].ID < partitionUnits[j].ID })

		partitions = append(partitions, linker.Partition{
			LevelPathID: lp,
			Segments:    path.Segments,
			Units:       partitionUnits,
		})
	}

	return partitions
}

// assignLevelPath picks the mapped level path of the unit's most downstream
// member segment
func (h *Hydrolink) assignLevelPath(target *network.FlowNetwork, unit *model.HydrologicUnit, mapping map[int64]int64) (int64, bool) {
	best := int64(0)
	bestSequence := int64(0)
	found := false

	for _, memberID := range unit.MemberSegments {
		levelPathID, ok := mapping[memberID]
		if !ok {
			continue
		}
		member, ok := target.Segment(memberID)
		if !ok {
			continue
		}
		if !found || member.Sequence < bestSequence {
			best = levelPathID
			bestSequence = member.Sequence
			found = true
		}
	}

	return best, found
}

// levelPathsOf collects the level-path ids touched by the partitions and the
// unresolved unit set
func levelPathsOf(partitions []linker.Partition, unresolved map[string]int64) map[int64]bool {
	out := make(map[int64]bool, len(partitions))
	for _, p := range partitions {
		out[p.LevelPathID] = true
	}
	for _, lp := range unresolved {
		out[lp] = true
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
