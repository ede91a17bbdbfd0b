package model

import (
	"time"

	geom "github.com/twpayne/go-geom"
)

// UnitType classifies a hydrologic unit by its drainage behavior
type UnitType string

const (
	UnitTypeStandard         UnitType = "S"
	UnitTypeFrontal          UnitType = "F"
	UnitTypeClosedDepression UnitType = "C"
	UnitTypeIsland           UnitType = "I"
)

// Contributing reports whether units of this type contribute flow to the
// network. Frontal, closed-depression and island units do not.
func (t UnitType) Contributing() bool {
	return t == UnitTypeStandard
}

// Sentinel downstream references marking drainage across an external boundary
const (
	DownstreamOcean    = "OCEAN"
	DownstreamCanada   = "CANADA"
	DownstreamMexico   = "MEXICO"
	DownstreamUnmapped = "UNKNOWN"
)

// ExternalBoundary reports whether a downstream reference is one of the
// external-boundary sentinels rather than another unit identifier
func ExternalBoundary(downstreamID string) bool {
	switch downstreamID {
	case DownstreamOcean, DownstreamCanada, DownstreamMexico, DownstreamUnmapped:
		return true
	}
	return false
}

// HydrologicUnit is a drainage-boundary polygon to be anchored to a single
// point on the conflated network. MemberSegments lists the target-network
// segments whose drainage falls inside the unit.
type HydrologicUnit struct {
	ID             string        `json:"id"`
	DownstreamID   string        `json:"downstream_id,omitempty"`
	Type           UnitType      `json:"unit_type"`
	MemberSegments []int64       `json:"member_segments,omitempty"`
	Boundary       *geom.Polygon `json:"-"`
	Metadata       Metadata      `json:"metadata,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}
