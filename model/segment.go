package model

import (
	"sort"
	"time"

	geom "github.com/twpayne/go-geom"
)

// Network identifies which flow network representation a segment belongs to
type Network string

const (
	NetworkSource Network = "source"
	NetworkTarget Network = "target"
)

// Segment is an atomic directed edge of a flow network. Each segment has at
// most one downstream neighbor; a nil DownstreamID marks a terminal outlet.
type Segment struct {
	ID           int64            `json:"id"`
	DownstreamID *int64           `json:"downstream_id,omitempty"`
	LevelPathID  int64            `json:"level_path_id"`
	Sequence     int64            `json:"sequence"` // strictly increasing in the upstream direction
	ReachCode    string           `json:"reach_code"`
	FromMeasure  float64          `json:"from_measure"`
	ToMeasure    float64          `json:"to_measure"`
	Geom         *geom.LineString `json:"-"`
	Metadata     Metadata         `json:"metadata,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// Terminal reports whether the segment is a network outlet
func (s *Segment) Terminal() bool {
	return s.DownstreamID == nil
}

// LevelPath is a derived view over the segments sharing a level-path
// identifier, ordered from most downstream to most upstream.
type LevelPath struct {
	ID       int64
	Segments []*Segment // sorted ascending by Sequence
}

// NewLevelPath creates a level path view, sorting members by sequence number
func NewLevelPath(id int64, segments []*Segment) *LevelPath {
	sorted := make([]*Segment, len(segments))
	copy(sorted, segments)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Sequence < sorted[j].Sequence
	})
	return &LevelPath{
		ID:       id,
		Segments: sorted,
	}
}

// MinSequence returns the sequence number of the most downstream member
func (p *LevelPath) MinSequence() int64 {
	return p.Segments[0].Sequence
}

// MaxSequence returns the sequence number of the most upstream member
func (p *LevelPath) MaxSequence() int64 {
	return p.Segments[len(p.Segments)-1].Sequence
}

// MostDownstream returns the member closest to the path outlet
func (p *LevelPath) MostDownstream() *Segment {
	return p.Segments[0]
}

// MostUpstream returns the headwater member of the path
func (p *LevelPath) MostUpstream() *Segment {
	return p.Segments[len(p.Segments)-1]
}
