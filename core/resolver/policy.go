package resolver

import (
	"fmt"

	"github.com/kmorland/hydrolink/model"
)

// TieBreakPolicy selects among candidates still spanning several level-path
// groups after the per-group pass. It must return a subset of its input.
type TieBreakPolicy func(candidates []model.CandidateMatch) []model.CandidateMatch

// PolicyFurthestUpstreamHeadwater is the name of the default pass-2 policy
const PolicyFurthestUpstreamHeadwater = "furthest_upstream_headwater"

// FurthestUpstreamHeadwater keeps the candidates whose headwater holds the
// maximum sequence number. This prefers the headwater situated furthest
// upstream, on the assumption that the dominant mainstem extends furthest
// upstream of competing paths. The assumption is empirical and
// dataset-dependent, which is why the policy is swappable.
func FurthestUpstreamHeadwater(cands []model.CandidateMatch) []model.CandidateMatch {
	if len(cands) == 0 {
		return cands
	}

	maxSeq := cands[0].HeadwaterSequence
	for _, c := range cands[1:] {
		if c.HeadwaterSequence > maxSeq {
			maxSeq = c.HeadwaterSequence
		}
	}

	var out []model.CandidateMatch
	for _, c := range cands {
		if c.HeadwaterSequence == maxSeq {
			out = append(out, c)
		}
	}
	return out
}

// PolicyByName maps a configured policy name to its implementation. An empty
// name selects the default.
func PolicyByName(name string) (TieBreakPolicy, error) {
	switch name {
	case "", PolicyFurthestUpstreamHeadwater:
		return FurthestUpstreamHeadwater, nil
	default:
		return nil, fmt.Errorf("unknown tie-break policy %q", name)
	}
}
