package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkendall/sluice/internal/api"
)

// Snapshot represents the latest job data available to the UI.
type Snapshot struct {
	Running             []api.Job
	Recent              []api.Job
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the daemon has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored snapshot. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store) Update(jobs api.JobsResponse, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Running = cloneJobs(jobs.Running)
	s.snapshot.Recent = cloneJobs(jobs.Recent)
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Running = cloneJobs(s.snapshot.Running)
	snap.Recent = cloneJobs(s.snapshot.Recent)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneJobs(jobs []api.Job) []api.Job {
	if len(jobs) == 0 {
		return nil
	}
	dup := make([]api.Job, len(jobs))
	copy(dup, jobs)
	return dup
}
