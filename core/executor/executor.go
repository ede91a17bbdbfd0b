// Package executor runs unit-linking partitions on a fixed-size worker pool
// with per-partition failure isolation and checkpoint-based short-circuit.
package executor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kmorland/hydrolink/core/linker"
	"github.com/kmorland/hydrolink/model"
)

// CheckpointStore answers whether a prior run's output exists under a key
// and loads it. It is read once before dispatch.
type CheckpointStore interface {
	RunExists(key string) (bool, error)
	SelectPointsByRun(key string) ([]*model.LinkedPoint, error)
}

// LinkFunc links one partition. Implementations must not share mutable state
// across partitions.
type LinkFunc func(ctx context.Context, p linker.Partition) (*linker.Result, error)

// Output is the combined result of a run
type Output struct {
	Points         []*model.LinkedPoint
	Unresolved     map[string]int64 // unit id -> level path, awaiting the global fallback pass
	Failures       []model.PartitionFailure
	FromCheckpoint bool
}

// Executor dispatches partitions to a worker pool. It is constructed per run
// and holds no global state.
type Executor struct {
	Workers          int
	PartitionTimeout time.Duration // 0 disables the per-partition limit
	Checkpoint       CheckpointStore
	log              *slog.Logger
}

// New creates an executor. Worker counts below one degenerate to sequential
// execution.
func New(workers int, partitionTimeout time.Duration, checkpoint CheckpointStore, logger *slog.Logger) *Executor {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		Workers:          workers,
		PartitionTimeout: partitionTimeout,
		Checkpoint:       checkpoint,
		log:              logger,
	}
}

// Run executes all partitions and combines their results by concatenation in
// partition order, so the combined output is independent of the worker
// count. If prior output exists under key it is returned without dispatching
// any worker. A partition's failure is recorded and yields an empty result
// for that partition; it never aborts siblings.
func (e *Executor) Run(ctx context.Context, key string, partitions []linker.Partition, link LinkFunc) (*Output, error) {
	if e.Checkpoint != nil && key != "" {
		exists, err := e.Checkpoint.RunExists(key)
		if err != nil {
			return nil, err
		}
		if exists {
			points, err := e.Checkpoint.SelectPointsByRun(key)
			if err != nil {
				return nil, err
			}
			e.log.Info("Prior run output found, skipping recomputation",
				slog.String("run_key", key),
				slog.Int("points", len(points)),
			)
			return &Output{
				Points:         points,
				Unresolved:     map[string]int64{},
				FromCheckpoint: true,
			}, nil
		}
	}

	results := make([]*linker.Result, len(partitions))
	failures := make([]*model.PartitionFailure, len(partitions))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < e.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], failures[i] = e.runPartition(ctx, partitions[i], link)
			}
		}()
	}

	for i := range partitions {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	out := &Output{Unresolved: make(map[string]int64)}
	for i, r := range results {
		if failures[i] != nil {
			out.Failures = append(out.Failures, *failures[i])
			continue
		}
		out.Points = append(out.Points, r.Points...)
		for _, unitID := range r.Unresolved {
			out.Unresolved[unitID] = r.LevelPathID
		}
	}

	e.log.Info("Linked all partitions",
		slog.String("run_key", key),
		slog.Int("partitions", len(partitions)),
		slog.Int("points", len(out.Points)),
		slog.Int("unresolved", len(out.Unresolved)),
		slog.Int("failed", len(out.Failures)),
	)

	return out, nil
}

// runPartition links one partition, converting any error (including a
// per-partition timeout) into a partition failure
func (e *Executor) runPartition(ctx context.Context, p linker.Partition, link LinkFunc) (*linker.Result, *model.PartitionFailure) {
	if e.PartitionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.PartitionTimeout)
		defer cancel()
	}

	result, err := link(ctx, p)
	if err != nil {
		e.log.Warn("Partition failed, yielding empty result",
			slog.Int64("level_path", p.LevelPathID),
			slog.String("error", err.Error()),
		)
		return nil, &model.PartitionFailure{
			LevelPathID: p.LevelPathID,
			Err:         err.Error(),
		}
	}
	return result, nil
}
