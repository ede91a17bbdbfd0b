package model

import "time"

// RunConfig represents configuration for a conflation and linking run
type RunConfig struct {
	// Checkpointing
	RunKey string `json:"run_key"`

	// Worker pool parameters
	WorkerCount      int           `json:"worker_count"`
	PartitionTimeout time.Duration `json:"partition_timeout,omitempty"` // 0 disables the per-partition limit

	// Snapping parameters
	SearchRadius float64 `json:"search_radius"`

	// Resolver parameters
	TieBreakPolicy string  `json:"tie_break_policy,omitempty"` // named pass-2 policy, empty = default
	Headwaters     []int64 `json:"headwaters,omitempty"`       // empty = all headwaters shared by both networks

	// Precomputed unit ids to skip, merged with the computed exclusion set
	Exclusions []string `json:"exclusions,omitempty"`
}

// DefaultRunConfig returns a sensible default configuration for a run key
func DefaultRunConfig(runKey string) *RunConfig {
	return &RunConfig{
		RunKey:           runKey,
		WorkerCount:      4,
		PartitionTimeout: 0,
		SearchRadius:     500,
		TieBreakPolicy:   "",
		Headwaters:       nil,
		Exclusions:       nil,
	}
}
