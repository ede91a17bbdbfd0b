package database

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kmorland/hydrolink/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPoint(runKey string, unitID string, segmentID int64) *model.LinkedPoint {
	return &model.LinkedPoint{
		RID:         uuid.New(),
		RunKey:      runKey,
		UnitID:      unitID,
		SegmentID:   segmentID,
		ReachCode:   "01010101000001",
		Measure:     42.5,
		Offset:      12.3,
		LevelPathID: 100,
		Method:      model.LinkMethodSnapped,
	}
}

func TestNewPointsDBHandler(t *testing.T) {
	database := initDB(t)
	defer database.Instance.Close()

	t.Run("Valid database connection", func(t *testing.T) {
		handler, err := NewPointsDBHandler(database, true)
		assert.NoError(t, err, "Expected NewPointsDBHandler to not return an error")
		assert.NotNil(t, handler, "Expected handler to be created")
	})

	t.Run("Nil database connection", func(t *testing.T) {
		handler, err := NewPointsDBHandler(nil, true)
		assert.Error(t, err, "Expected NewPointsDBHandler to return an error")
		assert.Nil(t, handler, "Expected handler to be nil")
	})
}

func TestInsertLinkedPoint(t *testing.T) {
	database := initDB(t)
	defer database.Instance.Close()

	handler, err := NewPointsDBHandler(database, true)
	require.NoError(t, err, "Expected NewPointsDBHandler to not return an error")

	t.Run("Insert single point", func(t *testing.T) {
		point := newTestPoint("run_insert", "010100010101", 1)

		err := handler.InsertLinkedPoint(point)
		assert.NoError(t, err, "Expected InsertLinkedPoint to not return an error")
		assert.NotZero(t, point.ID, "Expected the generated id to be set")
		assert.NotZero(t, point.CreatedAt, "Expected created timestamp to be set")
		assert.Equal(t, model.LinkMethodSnapped, point.Method, "Expected the link method to round-trip")
	})

	t.Run("One point per unit and run", func(t *testing.T) {
		first := newTestPoint("run_unique", "010100010102", 1)
		second := newTestPoint("run_unique", "010100010102", 2)

		err := handler.InsertLinkedPoint(first)
		assert.NoError(t, err, "Expected InsertLinkedPoint to not return an error")
		err = handler.InsertLinkedPoint(second)
		assert.Error(t, err, "Expected a second point for the same unit and run to be rejected")
	})
}

func TestInsertLinkedPoints(t *testing.T) {
	database := initDB(t)
	defer database.Instance.Close()

	handler, err := NewPointsDBHandler(database, true)
	require.NoError(t, err, "Expected NewPointsDBHandler to not return an error")

	t.Run("Insert combined run output", func(t *testing.T) {
		points := []*model.LinkedPoint{
			newTestPoint("run_batch", "020100010101", 1),
			newTestPoint("run_batch", "020100010102", 2),
			newTestPoint("run_batch", "020100010103", 3),
		}

		err := handler.InsertLinkedPoints(points)
		assert.NoError(t, err, "Expected InsertLinkedPoints to not return an error")

		found, err := handler.SelectPointsByRun("run_batch")
		assert.NoError(t, err, "Expected SelectPointsByRun to not return an error")
		assert.Len(t, found, 3, "Expected all points of the run")
	})

	t.Run("Duplicate unit rolls back the whole batch", func(t *testing.T) {
		points := []*model.LinkedPoint{
			newTestPoint("run_rollback", "030100010101", 1),
			newTestPoint("run_rollback", "030100010101", 2),
		}

		err := handler.InsertLinkedPoints(points)
		assert.Error(t, err, "Expected InsertLinkedPoints to return an error")

		found, err := handler.SelectPointsByRun("run_rollback")
		assert.NoError(t, err, "Expected SelectPointsByRun to not return an error")
		assert.Empty(t, found, "Expected no points after rollback")
	})
}

func TestRunExists(t *testing.T) {
	database := initDB(t)
	defer database.Instance.Close()

	handler, err := NewPointsDBHandler(database, true)
	require.NoError(t, err, "Expected NewPointsDBHandler to not return an error")

	t.Run("Unknown run key", func(t *testing.T) {
		exists, err := handler.RunExists("run_never_seen")
		assert.NoError(t, err, "Expected RunExists to not return an error")
		assert.False(t, exists, "Expected no prior output")
	})

	t.Run("Known run key", func(t *testing.T) {
		err := handler.InsertLinkedPoint(newTestPoint("run_known", "040100010101", 1))
		require.NoError(t, err, "Expected InsertLinkedPoint to not return an error")

		exists, err := handler.RunExists("run_known")
		assert.NoError(t, err, "Expected RunExists to not return an error")
		assert.True(t, exists, "Expected prior output under the run key")
	})
}

func TestDeleteRun(t *testing.T) {
	database := initDB(t)
	defer database.Instance.Close()

	handler, err := NewPointsDBHandler(database, true)
	require.NoError(t, err, "Expected NewPointsDBHandler to not return an error")

	err = handler.InsertLinkedPoint(newTestPoint("run_delete", "050100010101", 1))
	require.NoError(t, err, "Expected InsertLinkedPoint to not return an error")

	err = handler.DeleteRun("run_delete")
	assert.NoError(t, err, "Expected DeleteRun to not return an error")

	exists, err := handler.RunExists("run_delete")
	assert.NoError(t, err, "Expected RunExists to not return an error")
	assert.False(t, exists, "Expected the run key to be gone")
}
