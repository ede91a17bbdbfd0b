package model

import (
	"time"

	"github.com/google/uuid"
)

// ProblemUnit names a unit whose fallback outlet could not be assigned
// automatically, for manual review
type ProblemUnit struct {
	UnitID      string `json:"unit_id"`
	LevelPathID int64  `json:"level_path_id"`
	Reason      string `json:"reason"`
}

// PartitionFailure records a level-path partition whose linking failed
type PartitionFailure struct {
	LevelPathID int64  `json:"level_path_id"`
	Err         string `json:"error"`
}

// RunReport summarizes a conflation run: best-effort output counts plus the
// three reportable lists of excluded units, problem units and failed
// partitions
type RunReport struct {
	RID              uuid.UUID          `json:"rid"`
	RunKey           string             `json:"run_key"`
	Linked           int                `json:"linked"`
	FromCheckpoint   bool               `json:"from_checkpoint"`
	Excluded         []string           `json:"excluded,omitempty"`
	Problems         []ProblemUnit      `json:"problems,omitempty"`
	FailedPartitions []PartitionFailure `json:"failed_partitions,omitempty"`
	StartedAt        time.Time          `json:"started_at"`
	FinishedAt       time.Time          `json:"finished_at"`
}
