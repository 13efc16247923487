package domain

import "time"

// LoadStats holds statistics about one load cycle.
type LoadStats struct {
	CycleID  string
	Requests int
	Loaded   int
	Total    int
	Duration time.Duration
}

// ScoringStats summarizes one background scoring pass.
type ScoringStats struct {
	CycleID  string
	Scored   int
	Chunks   int
	Duration time.Duration
}
