package resolver

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/kmorland/hydrolink/core/network"
	"github.com/kmorland/hydrolink/model"
)

// Resolver collapses many-to-many level-path candidate matches between a
// coarse source network and a finer target network into a deterministic
// one-to-one mapping from target member segments to source level paths.
type Resolver struct {
	Source *network.FlowNetwork
	Target *network.FlowNetwork
	Policy TieBreakPolicy
	log    *slog.Logger
}

// New creates a resolver over the two networks. A nil policy selects
// FurthestUpstreamHeadwater.
func New(source, target *network.FlowNetwork, policy TieBreakPolicy, logger *slog.Logger) *Resolver {
	if policy == nil {
		policy = FurthestUpstreamHeadwater
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		Source: source,
		Target: target,
		Policy: policy,
		log:    logger,
	}
}

// SharedHeadwaters returns the target-network headwaters that also exist in
// the source network, the default headwaters of interest for a run
func (r *Resolver) SharedHeadwaters() []int64 {
	var out []int64
	for _, id := range r.Target.Headwaters() {
		if _, ok := r.Source.Segment(id); ok {
			out = append(out, id)
		}
	}
	return out
}

// Resolve produces, for every target segment reachable downstream of the
// given headwaters, exactly one source level-path identifier. An empty
// headwater list resolves from all shared headwaters.
func (r *Resolver) Resolve(headwaters []int64) (map[int64]int64, error) {
	if len(headwaters) == 0 {
		headwaters = r.SharedHeadwaters()
	}

	candidates, err := r.collectCandidates(headwaters)
	if err != nil {
		return nil, err
	}

	members := make([]int64, 0, len(candidates))
	for member := range candidates {
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })

	resolved := make(map[int64]int64, len(candidates))
	for _, member := range members {
		cands := candidates[member]
		cands = keepGroupMaxSequence(cands)   // pass 1
		cands = r.Policy(cands)               // pass 2
		cands = keepMinLevelPath(cands)       // pass 3

		if lp, ok := singleLevelPath(cands); ok {
			resolved[member] = lp
			continue
		}
		return nil, &UnresolvedError{MemberID: member, Candidates: cands}
	}

	r.log.Info("Resolved level-path correspondences",
		slog.Int("headwaters", len(headwaters)),
		slog.Int("members", len(resolved)),
	)

	return resolved, nil
}

// collectCandidates traces each headwater downstream in both networks and
// joins every visited target member to the headwater's source level path
func (r *Resolver) collectCandidates(headwaters []int64) (map[int64][]model.CandidateMatch, error) {
	candidates := make(map[int64][]model.CandidateMatch)

	for _, h := range headwaters {
		sourceHead, ok := r.Source.Segment(h)
		if !ok {
			r.log.Debug("Headwater not present in source network, skipping", slog.Int64("headwater", h))
			continue
		}

		// The source trace confirms the headwater reaches a source terminal;
		// its first element carries the level path the headwater resolves to.
		if _, err := r.Source.TraceDownstream(h); err != nil {
			return nil, fmt.Errorf("source trace from headwater %d: %w", h, err)
		}

		members, err := r.Target.TraceDownstream(h)
		if err != nil {
			return nil, fmt.Errorf("target trace from headwater %d: %w", h, err)
		}

		for _, member := range members {
			candidates[member] = append(candidates[member], model.CandidateMatch{
				HeadwaterID:       h,
				HeadwaterSequence: sourceHead.Sequence,
				MemberID:          member,
				LevelPathID:       sourceHead.LevelPathID,
			})
		}
	}

	return candidates, nil
}

// keepGroupMaxSequence retains, within each distinct level-path group, only
// the candidates sourced from the group's most upstream headwater. Candidates
// sourced from a point downstream of the group's true headwater are discarded.
func keepGroupMaxSequence(cands []model.CandidateMatch) []model.CandidateMatch {
	maxSeq := make(map[int64]int64)
	for _, c := range cands {
		if seq, ok := maxSeq[c.LevelPathID]; !ok || c.HeadwaterSequence > seq {
			maxSeq[c.LevelPathID] = c.HeadwaterSequence
		}
	}

	var out []model.CandidateMatch
	for _, c := range cands {
		if c.HeadwaterSequence == maxSeq[c.LevelPathID] {
			out = append(out, c)
		}
	}
	return out
}

// keepMinLevelPath retains only candidates holding the numerically smallest
// level-path identifier. By the source numbering convention smaller
// identifiers denote dominant mainstems.
func keepMinLevelPath(cands []model.CandidateMatch) []model.CandidateMatch {
	if len(cands) == 0 {
		return cands
	}

	min := cands[0].LevelPathID
	for _, c := range cands[1:] {
		if c.LevelPathID < min {
			min = c.LevelPathID
		}
	}

	var out []model.CandidateMatch
	for _, c := range cands {
		if c.LevelPathID == min {
			out = append(out, c)
		}
	}
	return out
}

// singleLevelPath reports whether all remaining candidates agree on one
// level path
func singleLevelPath(cands []model.CandidateMatch) (int64, bool) {
	if len(cands) == 0 {
		return 0, false
	}
	lp := cands[0].LevelPathID
	for _, c := range cands[1:] {
		if c.LevelPathID != lp {
			return 0, false
		}
	}
	return lp, true
}
