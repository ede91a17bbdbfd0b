package resolver

import (
	"fmt"
	"strings"

	"github.com/kmorland/hydrolink/model"
)

// UnresolvedError reports a target member still holding candidates from
// several level paths after all tie-break passes. This should be unreachable
// when level-path identifiers are unique per path, so it surfaces as fatal.
type UnresolvedError struct {
	MemberID   int64
	Candidates []model.CandidateMatch
}

func (e *UnresolvedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "unresolved correspondence for member segment %d, conflicting candidates:", e.MemberID)
	for _, c := range e.Candidates {
		fmt.Fprintf(&b, " (headwater %d seq %d level path %d)", c.HeadwaterID, c.HeadwaterSequence, c.LevelPathID)
	}
	return b.String()
}
