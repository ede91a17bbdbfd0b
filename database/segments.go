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

// SegmentsDBHandlerFunctions defines the interface for segment database operations.
type SegmentsDBHandlerFunctions interface {
	InsertSegment(seg *model.Segment, network model.Network) error
	InsertSegments(segments []*model.Segment, network model.Network) error
	SelectSegmentsByNetwork(network model.Network) ([]*model.Segment, error)
	SelectSegmentsByLevelPath(network model.Network, levelPathID int64) ([]*model.Segment, error)
	DeleteSegmentsByNetwork(network model.Network) error
}

// SegmentsDBHandler handles segment-related database operations
type SegmentsDBHandler struct {
	db *helper.Database
}

// NewSegmentsDBHandler creates a new segments database handler.
// It loads segment-related SQL functions and creates the table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewSegmentsDBHandler(db *helper.Database, force bool) (*SegmentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	segmentsDbHandler := &SegmentsDBHandler{
		db: db,
	}

	err := sql.LoadSegmentsSql(segmentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load segments sql", err)
	}

	err = segmentsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized SegmentsDBHandler")

	return segmentsDbHandler, nil
}

// CreateTable creates the 'segments' table in the database.
// If the table already exists, it does not create it again.
func (h *SegmentsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_segments();`)
	if err != nil {
		log.Panicf("error initializing segments table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table segments")

	return nil
}

// InsertSegment inserts or updates a single segment of one network
func (h *SegmentsDBHandler) InsertSegment(seg *model.Segment, network model.Network) error {
	geometry := model.NewLineGeometry(seg.Geom)

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_segment($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		seg.ID,
		string(network),
		seg.DownstreamID,
		seg.LevelPathID,
		seg.Sequence,
		seg.ReachCode,
		seg.FromMeasure,
		seg.ToMeasure,
		geometry,
		seg.Metadata,
	)

	var networkOut string
	err := row.Scan(
		&seg.ID,
		&networkOut,
		&seg.DownstreamID,
		&seg.LevelPathID,
		&seg.Sequence,
		&seg.ReachCode,
		&seg.FromMeasure,
		&seg.ToMeasure,
		&geometry,
		&seg.Metadata,
		&seg.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	seg.Geom = geometry.LineString()

	return nil
}

// InsertSegments inserts all segments of one network in a single transaction
func (h *SegmentsDBHandler) InsertSegments(segments []*model.Segment, network model.Network) error {
	tx, err := h.db.Instance.Begin()
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	for _, seg := range segments {
		_, err := tx.Exec(
			`SELECT insert_segment($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			seg.ID,
			string(network),
			seg.DownstreamID,
			seg.LevelPathID,
			seg.Sequence,
			seg.ReachCode,
			seg.FromMeasure,
			seg.ToMeasure,
			model.NewLineGeometry(seg.Geom),
			seg.Metadata,
		)
		if err != nil {
			return helper.NewError(fmt.Sprintf("insert segment %d", seg.ID), err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return helper.NewError("commit transaction", err)
	}

	return nil
}

// SelectSegmentsByNetwork retrieves all segments of one network representation
func (h *SegmentsDBHandler) SelectSegmentsByNetwork(network model.Network) ([]*model.Segment, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_segments_by_network($1)`,
		string(network),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var segments []*model.Segment
	for rows.Next() {
		seg := &model.Segment{}
		var networkOut string
		var geometry model.Geometry
		err := rows.Scan(
			&seg.ID,
			&networkOut,
			&seg.DownstreamID,
			&seg.LevelPathID,
			&seg.Sequence,
			&seg.ReachCode,
			&seg.FromMeasure,
			&seg.ToMeasure,
			&geometry,
			&seg.Metadata,
			&seg.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		seg.Geom = geometry.LineString()

		segments = append(segments, seg)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return segments, nil
}

// SelectSegmentsByLevelPath retrieves the members of one level path ordered by sequence
func (h *SegmentsDBHandler) SelectSegmentsByLevelPath(network model.Network, levelPathID int64) ([]*model.Segment, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_segments_by_level_path($1, $2)`,
		string(network),
		levelPathID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var segments []*model.Segment
	for rows.Next() {
		seg := &model.Segment{}
		var networkOut string
		var geometry model.Geometry
		err := rows.Scan(
			&seg.ID,
			&networkOut,
			&seg.DownstreamID,
			&seg.LevelPathID,
			&seg.Sequence,
			&seg.ReachCode,
			&seg.FromMeasure,
			&seg.ToMeasure,
			&geometry,
			&seg.Metadata,
			&seg.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		seg.Geom = geometry.LineString()

		segments = append(segments, seg)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return segments, nil
}

// DeleteSegmentsByNetwork deletes all segments of one network representation
func (h *SegmentsDBHandler) DeleteSegmentsByNetwork(network model.Network) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_segments_by_network($1)`,
		string(network),
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
