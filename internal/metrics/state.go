package metrics

import (
	"sync"
	"sync/atomic"
)

// RunState holds the counters shared by every worker and the progress monitor.
// Mutations are serialized by a mutex; reads are lock-free snapshots so the
// monitor never blocks behind a worker.
type RunState struct {
	mu        sync.Mutex
	completed atomic.Int64
	crashed   atomic.Bool
}

// NewRunState returns a zeroed state.
func NewRunState() *RunState {
	return &RunState{}
}

// Complete counts one processed path, whatever its outcome.
func (s *RunState) Complete() {
	s.mu.Lock()
	s.completed.Add(1)
	s.mu.Unlock()
}

// MarkCrashed raises the crash flag. It is never cleared.
func (s *RunState) MarkCrashed() {
	s.mu.Lock()
	s.crashed.Store(true)
	s.mu.Unlock()
}

// Completed returns a snapshot of the completed counter.
func (s *RunState) Completed() int64 {
	return s.completed.Load()
}

// Crashed reports whether any worker hit an unrecoverable fault.
func (s *RunState) Crashed() bool {
	return s.crashed.Load()
}
