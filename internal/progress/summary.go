package progress

import "sync/atomic"

// Summary holds the run-wide counters. Workers report terminal outcomes
// through atomic increments; the renderer and the final report read them.
type Summary struct {
	requested int64
	completed atomic.Int64
	failed    atomic.Int64
}

func NewSummary(requested int) *Summary {
	return &Summary{requested: int64(requested)}
}

func (s *Summary) AddCompleted() { s.completed.Add(1) }
func (s *Summary) AddFailed()    { s.failed.Add(1) }

func (s *Summary) Requested() int { return int(s.requested) }
func (s *Summary) Completed() int { return int(s.completed.Load()) }
func (s *Summary) Failed() int    { return int(s.failed.Load()) }

// Done reports whether every requested pack has reached a terminal status.
func (s *Summary) Done() bool {
	return s.completed.Load()+s.failed.Load() >= s.requested
}
