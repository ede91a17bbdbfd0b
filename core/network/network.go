package network

import (
	"fmt"
	"sort"

	"github.com/kmorland/hydrolink/model"
)

// FlowNetwork holds the segments of one flow network representation and
// answers downstream-trace and level-path queries. It is immutable after
// construction and safe for concurrent reads.
type FlowNetwork struct {
	segments   map[int64]*model.Segment
	inflows    map[int64]int              // count of upstream neighbors per segment
	levelPaths map[int64][]*model.Segment // members per level-path id
}

// New builds a flow network from segments. Segment ids must be unique and
// every non-nil downstream reference must resolve to a known segment.
func New(segments []*model.Segment) (*FlowNetwork, error) {
	n := &FlowNetwork{
		segments:   make(map[int64]*model.Segment, len(segments)),
		inflows:    make(map[int64]int, len(segments)),
		levelPaths: make(map[int64][]*model.Segment),
	}

	for _, s := range segments {
		if _, ok := n.segments[s.ID]; ok {
			return nil, fmt.Errorf("duplicate segment id %d", s.ID)
		}
		n.segments[s.ID] = s
		n.levelPaths[s.LevelPathID] = append(n.levelPaths[s.LevelPathID], s)
	}

	for _, s := range segments {
		if s.DownstreamID == nil {
			continue
		}
		if _, ok := n.segments[*s.DownstreamID]; !ok {
			return nil, fmt.Errorf("segment %d references unknown downstream segment %d", s.ID, *s.DownstreamID)
		}
		n.inflows[*s.DownstreamID]++
	}

	return n, nil
}

// Len returns the number of segments in the network
func (n *FlowNetwork) Len() int {
	return len(n.segments)
}

// Segment returns the segment with the given id
func (n *FlowNetwork) Segment(id int64) (*model.Segment, bool) {
	s, ok := n.segments[id]
	return s, ok
}

// TraceDownstream walks the single downstream-neighbor links from start to
// the terminal segment, inclusive, returning the visited ids in order. Each
// call is independent. A revisited id fails fast with a *CycleError rather
// than hanging; an unknown start id fails with a *NotFoundError.
func (n *FlowNetwork) TraceDownstream(start int64) ([]int64, error) {
	current, ok := n.segments[start]
	if !ok {
		return nil, &NotFoundError{ID: start}
	}

	visited := make(map[int64]bool)
	var trace []int64

	for {
		if visited[current.ID] {
			return nil, &CycleError{Start: start, Repeated: current.ID}
		}
		visited[current.ID] = true
		trace = append(trace, current.ID)

		if current.DownstreamID == nil {
			return trace, nil
		}
		current = n.segments[*current.DownstreamID]
	}
}

// Headwaters returns the ids of all segments with no upstream inflow, sorted
// ascending
func (n *FlowNetwork) Headwaters() []int64 {
	var out []int64
	for id := range n.segments {
		if n.inflows[id] == 0 {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LevelPath returns the derived view over the segments sharing a level-path id
func (n *FlowNetwork) LevelPath(id int64) (*model.LevelPath, bool) {
	members, ok := n.levelPaths[id]
	if !ok {
		return nil, false
	}
	return model.NewLevelPath(id, members), true
}

// LevelPathIDs returns all level-path ids in the network, sorted ascending
func (n *FlowNetwork) LevelPathIDs() []int64 {
	out := make([]int64, 0, len(n.levelPaths))
	for id := range n.levelPaths {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
