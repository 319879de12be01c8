package model

import "time"

// SkipReason explains why a customer did not become a partner.
type SkipReason string

// Skip reasons.
const (
	SkipNone            SkipReason = ""
	SkipIneligible      SkipReason = "ineligible"
	SkipSuppressed      SkipReason = "suppressed"
	SkipMissingLocation SkipReason = "missing_location"
	SkipNoGeocode       SkipReason = "no_geocode_result"
	SkipDuplicate       SkipReason = "duplicate"
)

// RunStats summarizes a single pipeline run.
type RunStats struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Skipped    map[SkipReason]int
	Policy     string
	Pages      int
	Customers  int
	Partners   int
	CacheHits  int
	Geocoded   int
	DryRun     bool
}

// NewRunStats creates empty stats for a run starting at startedAt.
func NewRunStats(startedAt time.Time, policy string) *RunStats {
	return &RunStats{
		StartedAt: startedAt,
		Policy:    policy,
		Skipped:   make(map[SkipReason]int),
	}
}

// Skip counts one skipped record.
func (s *RunStats) Skip(reason SkipReason) {
	s.Skipped[reason]++
}

// TotalSkipped returns the number of skipped records across all reasons.
func (s *RunStats) TotalSkipped() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

// Duration returns how long the run took.
func (s *RunStats) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// RunStatus is the outcome of a sync run.
type RunStatus string

// Run statuses.
const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// SyncRun is one row of run history.
type SyncRun struct {
	StartedAt  time.Time
	FinishedAt time.Time
	// SkippedByReason breaks Skipped down by reason.
	SkippedByReason map[SkipReason]int
	ID              string
	Status          RunStatus
	Policy          string
	Error           string
	Pages           int
	Customers       int
	Partners        int
	CacheHits       int
	Geocoded        int
	NoResult        int
	Skipped         int
	DryRun          bool
}

// NewSyncRun builds a history row from run stats and the run's error, if any.
func NewSyncRun(id string, stats *RunStats, runErr error) *SyncRun {
	run := &SyncRun{
		ID:         id,
		StartedAt:  stats.StartedAt,
		FinishedAt: stats.FinishedAt,
		Status:     RunSucceeded,
		Policy:     stats.Policy,
		Pages:      stats.Pages,
		Customers:  stats.Customers,
		Partners:   stats.Partners,
		CacheHits:  stats.CacheHits,
		Geocoded:   stats.Geocoded,
		NoResult:   stats.Skipped[SkipNoGeocode],
		Skipped:    stats.TotalSkipped(),
		DryRun:     stats.DryRun,
	}
	run.SkippedByReason = make(map[SkipReason]int, len(stats.Skipped))
	for reason, n := range stats.Skipped {
		run.SkippedByReason[reason] = n
	}
	if runErr != nil {
		run.Status = RunFailed
		run.Error = runErr.Error()
	}
	return run
}
