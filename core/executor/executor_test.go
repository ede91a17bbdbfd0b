package executor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kmorland/hydrolink/core/linker"
	"github.com/kmorland/hydrolink/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCheckpoint is an in-memory CheckpointStore
type stubCheckpoint struct {
	runs map[string][]*model.LinkedPoint
}

func (s *stubCheckpoint) RunExists(key string) (bool, error) {
	_, ok := s.runs[key]
	return ok, nil
}

func (s *stubCheckpoint) SelectPointsByRun(key string) ([]*model.LinkedPoint, error) {
	return s.runs[key], nil
}

func makePartitions(n int) []linker.Partition {
	partitions := make([]linker.Partition, n)
	for i := range partitions {
		partitions[i] = linker.Partition{LevelPathID: int64(i + 1)}
	}
	return partitions
}

// linkOnePoint emits one point and one unresolved unit per partition
func linkOnePoint(ctx context.Context, p linker.Partition) (*linker.Result, error) {
	return &linker.Result{
		LevelPathID: p.LevelPathID,
		Points: []*model.LinkedPoint{
			{UnitID: fmt.Sprintf("U%d", p.LevelPathID), SegmentID: p.LevelPathID, LevelPathID: p.LevelPathID},
		},
		Unresolved: []string{fmt.Sprintf("N%d", p.LevelPathID)},
	}, nil
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("Combines partition results in partition order", func(t *testing.T) {
		e := New(3, 0, nil, nil)

		out, err := e.Run(ctx, "run_a", makePartitions(5), linkOnePoint)

		assert.NoError(t, err, "Expected Run to not return an error")
		require.Len(t, out.Points, 5, "Expected one point per partition")
		for i, point := range out.Points {
			assert.Equal(t, int64(i+1), point.LevelPathID, "Expected points concatenated in partition order")
		}
		assert.Len(t, out.Unresolved, 5, "Expected the unresolved units of all partitions")
		assert.Equal(t, int64(2), out.Unresolved["N2"], "Expected the unresolved unit keyed to its level path")
		assert.False(t, out.FromCheckpoint, "Expected a fresh run")
	})

	t.Run("Output is identical regardless of worker count", func(t *testing.T) {
		sequential := New(1, 0, nil, nil)
		parallel := New(8, 0, nil, nil)

		seqOut, err := sequential.Run(ctx, "run_b", makePartitions(20), linkOnePoint)
		require.NoError(t, err)
		parOut, err := parallel.Run(ctx, "run_b", makePartitions(20), linkOnePoint)
		require.NoError(t, err)

		assert.Equal(t, seqOut.Points, parOut.Points, "Expected identical combined output for 1 and N workers")
		assert.Equal(t, seqOut.Unresolved, parOut.Unresolved, "Expected identical unresolved sets")
	})

	t.Run("Worker count below one degenerates to sequential", func(t *testing.T) {
		e := New(0, 0, nil, nil)

		assert.Equal(t, 1, e.Workers, "Expected the worker count raised to one")

		out, err := e.Run(ctx, "run_c", makePartitions(3), linkOnePoint)
		assert.NoError(t, err, "Expected Run to not return an error")
		assert.Len(t, out.Points, 3, "Expected all partitions processed")
	})

	t.Run("Partition failure yields empty result without aborting siblings", func(t *testing.T) {
		e := New(2, 0, nil, nil)

		out, err := e.Run(ctx, "run_d", makePartitions(4), func(ctx context.Context, p linker.Partition) (*linker.Result, error) {
			if p.LevelPathID == 2 {
				return nil, errors.New("snap service unavailable")
			}
			return linkOnePoint(ctx, p)
		})

		assert.NoError(t, err, "Expected Run to not return an error")
		assert.Len(t, out.Points, 3, "Expected points from the three healthy partitions")
		require.Len(t, out.Failures, 1, "Expected a single partition failure")
		assert.Equal(t, int64(2), out.Failures[0].LevelPathID, "Expected the failing partition's level path")
		assert.Contains(t, out.Failures[0].Err, "snap service unavailable", "Expected the failure cause")
	})

	t.Run("Checkpoint short-circuits without dispatching workers", func(t *testing.T) {
		stored := []*model.LinkedPoint{
			{UnitID: "U1", SegmentID: 1, LevelPathID: 100},
			{UnitID: "U2", SegmentID: 2, LevelPathID: 100},
		}
		checkpoint := &stubCheckpoint{runs: map[string][]*model.LinkedPoint{"run_2020": stored}}
		e := New(4, 0, checkpoint, nil)

		var invoked atomic.Int32
		out, err := e.Run(ctx, "run_2020", makePartitions(10), func(ctx context.Context, p linker.Partition) (*linker.Result, error) {
			invoked.Add(1)
			return linkOnePoint(ctx, p)
		})

		assert.NoError(t, err, "Expected Run to not return an error")
		assert.True(t, out.FromCheckpoint, "Expected the prior output returned")
		assert.Equal(t, stored, out.Points, "Expected the stored points unchanged")
		assert.Zero(t, invoked.Load(), "Expected no worker invocation on a checkpoint hit")
	})

	t.Run("Missing checkpoint key dispatches normally", func(t *testing.T) {
		checkpoint := &stubCheckpoint{runs: map[string][]*model.LinkedPoint{}}
		e := New(2, 0, checkpoint, nil)

		out, err := e.Run(ctx, "run_2021", makePartitions(2), linkOnePoint)

		assert.NoError(t, err, "Expected Run to not return an error")
		assert.False(t, out.FromCheckpoint, "Expected a fresh run")
		assert.Len(t, out.Points, 2, "Expected all partitions processed")
	})

	t.Run("Partition timeout converts to a partition failure", func(t *testing.T) {
		e := New(2, 10*time.Millisecond, nil, nil)

		out, err := e.Run(ctx, "run_e", makePartitions(2), func(ctx context.Context, p linker.Partition) (*linker.Result, error) {
			if p.LevelPathID == 1 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(5 * time.Second):
					return nil, errors.New("unreachable")
				}
			}
			return linkOnePoint(ctx, p)
		})

		assert.NoError(t, err, "Expected Run to not return an error")
		require.Len(t, out.Failures, 1, "Expected the slow partition to fail")
		assert.Equal(t, int64(1), out.Failures[0].LevelPathID, "Expected the slow partition's level path")
		assert.Len(t, out.Points, 1, "Expected the sibling partition unaffected")
	})

	t.Run("No partitions", func(t *testing.T) {
		e := New(4, 0, nil, nil)

		out, err := e.Run(ctx, "run_f", nil, linkOnePoint)

		assert.NoError(t, err, "Expected Run to not return an error")
		assert.Empty(t, out.Points, "Expected no points")
		assert.Empty(t, out.Failures, "Expected no failures")
	})
}
