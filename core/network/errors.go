package network

import "fmt"

// CycleError reports a downstream trace that revisited a segment. The flow
// graph is assumed acyclic, so this is a graph invariant violation and fatal
// for the trace.
type CycleError struct {
	Start    int64
	Repeated int64
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected tracing downstream of segment %d: segment %d revisited", e.Start, e.Repeated)
}

// NotFoundError reports a trace started from a segment id not present in the
// network
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("segment %d not found in network", e.ID)
}
