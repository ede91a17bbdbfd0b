package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kmorland/hydrolink/helper"
	"github.com/kmorland/hydrolink/model"
	"github.com/kmorland/hydrolink/sql"
)

// PointsDBHandlerFunctions defines the interface for linked point database
// operations. It covers the executor's checkpoint lookup (RunExists plus
// SelectPointsByRun) alongside persistence.
type PointsDBHandlerFunctions interface {
	InsertLinkedPoint(point *model.LinkedPoint) error
	InsertLinkedPoints(points []*model.LinkedPoint) error
	SelectPointsByRun(runKey string) ([]*model.LinkedPoint, error)
	RunExists(runKey string) (bool, error)
	DeleteRun(runKey string) error
}

// PointsDBHandler handles linked-point-related database operations
type PointsDBHandler struct {
	db *helper.Database
}

// NewPointsDBHandler creates a new linked points database handler.
// It loads point-related SQL functions and creates the table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewPointsDBHandler(db *helper.Database, force bool) (*PointsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	pointsDbHandler := &PointsDBHandler{
		db: db,
	}

	err := sql.LoadPointsSql(pointsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load points sql", err)
	}

	err = pointsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized PointsDBHandler")

	return pointsDbHandler, nil
}

// CreateTable creates the 'linked_points' table in the database.
// If the table already exists, it does not create it again.
func (h *PointsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_points();`)
	if err != nil {
		log.Panicf("error initializing linked_points table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table linked_points")

	return nil
}

// InsertLinkedPoint inserts a single linked point
func (h *PointsDBHandler) InsertLinkedPoint(point *model.LinkedPoint) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_linked_point($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		point.RID,
		point.RunKey,
		point.UnitID,
		point.SegmentID,
		point.ReachCode,
		point.Measure,
		point.Offset,
		point.LevelPathID,
		string(point.Method),
	)

	err := row.Scan(
		&point.ID,
		&point.RID,
		&point.RunKey,
		&point.UnitID,
		&point.SegmentID,
		&point.ReachCode,
		&point.Measure,
		&point.Offset,
		&point.LevelPathID,
		&point.Method,
		&point.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// InsertLinkedPoints inserts the combined output of a run in a single
// transaction, written once after combination
func (h *PointsDBHandler) InsertLinkedPoints(points []*model.LinkedPoint) error {
	tx, err := h.db.Instance.Begin()
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	for _, point := range points {
		_, err := tx.Exec(
			`SELECT insert_linked_point($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			point.RID,
			point.RunKey,
			point.UnitID,
			point.SegmentID,
			point.ReachCode,
			point.Measure,
			point.Offset,
			point.LevelPathID,
			string(point.Method),
		)
		if err != nil {
			return helper.NewError(fmt.Sprintf("insert linked point for unit %s", point.UnitID), err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return helper.NewError("commit transaction", err)
	}

	return nil
}

// SelectPointsByRun retrieves all linked points stored under a run key
func (h *PointsDBHandler) SelectPointsByRun(runKey string) ([]*model.LinkedPoint, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_points_by_run($1)`,
		runKey,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var points []*model.LinkedPoint
	for rows.Next() {
		point := &model.LinkedPoint{}
		err := rows.Scan(
			&point.ID,
			&point.RID,
			&point.RunKey,
			&point.UnitID,
			&point.SegmentID,
			&point.ReachCode,
			&point.Measure,
			&point.Offset,
			&point.LevelPathID,
			&point.Method,
			&point.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		points = append(points, point)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return points, nil
}

// RunExists reports whether prior output exists under the run key
func (h *PointsDBHandler) RunExists(runKey string) (bool, error) {
	var exists bool
	err := h.db.Instance.QueryRow(
		`SELECT run_exists($1)`,
		runKey,
	).Scan(&exists)
	if err != nil {
		return false, helper.NewError("scan", err)
	}
	return exists, nil
}

// DeleteRun deletes all linked points stored under a run key
func (h *PointsDBHandler) DeleteRun(runKey string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_run($1)`,
		runKey,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
