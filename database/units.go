package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kmorland/hydrolink/helper"
	"github.com/kmorland/hydrolink/model"
	"github.com/kmorland/hydrolink/sql"
	"github.com/lib/pq"
)

// UnitsDBHandlerFunctions defines the interface for hydrologic unit database operations.
type UnitsDBHandlerFunctions interface {
	InsertUnit(unit *model.HydrologicUnit) error
	SelectAllUnits() ([]*model.HydrologicUnit, error)
	SelectUnit(id string) (*model.HydrologicUnit, error)
	DeleteUnit(id string) error
}

// UnitsDBHandler handles hydrologic-unit-related database operations
type UnitsDBHandler struct {
	db *helper.Database
}

// NewUnitsDBHandler creates a new hydrologic units database handler.
// It loads unit-related SQL functions and creates the table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewUnitsDBHandler(db *helper.Database, force bool) (*UnitsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	unitsDbHandler := &UnitsDBHandler{
		db: db,
	}

	err := sql.LoadUnitsSql(unitsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load units sql", err)
	}

	err = unitsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized UnitsDBHandler")

	return unitsDbHandler, nil
}

// CreateTable creates the 'hydrologic_units' table in the database.
// If the table already exists, it does not create it again.
func (h *UnitsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_units();`)
	if err != nil {
		log.Panicf("error initializing hydrologic_units table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table hydrologic_units")

	return nil
}

// InsertUnit inserts or updates a hydrologic unit
func (h *UnitsDBHandler) InsertUnit(unit *model.HydrologicUnit) error {
	boundary := model.NewPolygonGeometry(unit.Boundary)

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_unit($1, $2, $3, $4, $5, $6)`,
		unit.ID,
		unit.DownstreamID,
		string(unit.Type),
		pq.Array(unit.MemberSegments),
		boundary,
		unit.Metadata,
	)

	err := row.Scan(
		&unit.ID,
		&unit.DownstreamID,
		&unit.Type,
		pq.Array(&unit.MemberSegments),
		&boundary,
		&unit.Metadata,
		&unit.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	unit.Boundary = boundary.Polygon()

	return nil
}

// SelectAllUnits retrieves all hydrologic units
func (h *UnitsDBHandler) SelectAllUnits() ([]*model.HydrologicUnit, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_units()`,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var units []*model.HydrologicUnit
	for rows.Next() {
		unit := &model.HydrologicUnit{}
		var boundary model.Geometry
		err := rows.Scan(
			&unit.ID,
			&unit.DownstreamID,
			&unit.Type,
			pq.Array(&unit.MemberSegments),
			&boundary,
			&unit.Metadata,
			&unit.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		unit.Boundary = boundary.Polygon()

		units = append(units, unit)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return units, nil
}

// SelectUnit retrieves a hydrologic unit by id
func (h *UnitsDBHandler) SelectUnit(id string) (*model.HydrologicUnit, error) {
	unit := &model.HydrologicUnit{}
	var boundary model.Geometry
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_unit($1)`,
		id,
	)

	err := row.Scan(
		&unit.ID,
		&unit.DownstreamID,
		&unit.Type,
		pq.Array(&unit.MemberSegments),
		&boundary,
		&unit.Metadata,
		&unit.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	unit.Boundary = boundary.Polygon()

	return unit, nil
}

// DeleteUnit deletes a hydrologic unit by id
func (h *UnitsDBHandler) DeleteUnit(id string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_unit($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
