package model

import (
	"time"

	"github.com/google/uuid"
)

// LinkMethod records how a linked point was derived
type LinkMethod string

const (
	LinkMethodSnapped        LinkMethod = "snapped"
	LinkMethodOutletFallback LinkMethod = "outlet_fallback"
	LinkMethodBrokenBorder   LinkMethod = "broken_border"
)

// CandidateMatch is a transient row produced while resolving level-path
// correspondences. It records that tracing downstream of a headwater reached
// a target member, carrying the headwater's source level path and sequence
// number for the tie-break passes.
type CandidateMatch struct {
	HeadwaterID       int64 `json:"headwater_id"`
	HeadwaterSequence int64 `json:"headwater_sequence"`
	MemberID          int64 `json:"member_id"`
	LevelPathID       int64 `json:"level_path_id"`
}

// LinkedPoint is the durable output record: one representative point on the
// conflated network per successfully linked hydrologic unit. Measure and
// offset quantify snap confidence.
type LinkedPoint struct {
	ID          int64      `json:"id"`
	RID         uuid.UUID  `json:"rid"`
	UnitID      string     `json:"unit_id"`
	SegmentID   int64      `json:"segment_id"`
	ReachCode   string     `json:"reach_code"`
	Measure     float64    `json:"measure"` // 0-100 along the reach, 0 = most downstream end
	Offset      float64    `json:"offset"`
	LevelPathID int64      `json:"level_path_id"`
	Method      LinkMethod `json:"method"`
	RunKey      string     `json:"run_key"`
	CreatedAt   time.Time  `json:"created_at"`
}
