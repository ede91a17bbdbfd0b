package model

import (
	"database/sql/driver"
	"errors"

	"github.com/kmorland/hydrolink/helper"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// Geometry stores a go-geom geometry as WKB in the feature store.
// The zero value scans and stores as NULL.
type Geometry struct {
	T geom.T
}

// NewLineGeometry wraps a line for storage, mapping a nil line to NULL
func NewLineGeometry(ls *geom.LineString) Geometry {
	if ls == nil {
		return Geometry{}
	}
	return Geometry{T: ls}
}

// NewPolygonGeometry wraps a polygon for storage, mapping a nil polygon to NULL
func NewPolygonGeometry(p *geom.Polygon) Geometry {
	if p == nil {
		return Geometry{}
	}
	return Geometry{T: p}
}

// Value implements the driver.Valuer interface for database storage
func (g Geometry) Value() (driver.Value, error) {
	if g.T == nil {
		return nil, nil
	}
	return wkb.Marshal(g.T, wkb.NDR)
}

// Scan implements the sql.Scanner interface for database retrieval
func (g *Geometry) Scan(value interface{}) error {
	if value == nil {
		g.T = nil
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	t, err := wkb.Unmarshal(b)
	if err != nil {
		return helper.NewError("wkb unmarshal", err)
	}

	g.T = t
	return nil
}

// LineString returns the geometry as a *geom.LineString or nil
func (g Geometry) LineString() *geom.LineString {
	if ls, ok := g.T.(*geom.LineString); ok {
		return ls
	}
	return nil
}

// Polygon returns the geometry as a *geom.Polygon or nil
func (g Geometry) Polygon() *geom.Polygon {
	if p, ok := g.T.(*geom.Polygon); ok {
		return p
	}
	return nil
}
