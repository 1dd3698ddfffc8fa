// Package progress holds the shared per-pack progress table and the loop
// that renders it as a single updating status line.
package progress

import (
	"sort"
	"sync"
	"time"
)

const (
	StatusDownloading = "downloading"
	StatusResuming    = "resuming"
)

// Entry is the live progress record for one in-flight pack. Entries exist
// only while a transfer is active; terminal packs are removed immediately.
type Entry struct {
	Pack       int
	Downloaded int64
	TotalSize  int64 // 0 when the server never declared one
	Status     string
	StartTime  time.Time
}

// Tracker is the shared progress table. Each active pack has exactly one
// writer (its worker); the renderer is the only reader. A single lock guards
// the whole table since keys appear and disappear during a run.
type Tracker struct {
	mu      sync.RWMutex
	entries map[int]*Entry
}

func NewTracker() *Tracker {
	return &Tracker{entries: make(map[int]*Entry)}
}

// Start registers a pack as active. Calling it again for the same pack
// (a retry attempt) replaces the entry.
func (t *Tracker) Start(pack int, total, downloaded int64) {
	status := StatusDownloading
	if downloaded > 0 {
		status = StatusResuming
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[pack] = &Entry{
		Pack:       pack,
		Downloaded: downloaded,
		TotalSize:  total,
		Status:     status,
		StartTime:  time.Now(),
	}
}

// Add records n more bytes downloaded for a pack. Unknown packs are ignored
// so a late write after removal cannot fault.
func (t *Tracker) Add(pack int, n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[pack]; ok {
		e.Downloaded += n
		e.Status = StatusDownloading
	}
}

// Reset restarts a pack from zero, used when a server answers a ranged
// request with a full body and the partial file is truncated.
func (t *Tracker) Reset(pack int, total int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[pack]; ok {
		e.Downloaded = 0
		e.TotalSize = total
		e.Status = StatusDownloading
	}
}

// Remove drops a pack from the table on its terminal transition.
func (t *Tracker) Remove(pack int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, pack)
}

// Snapshot returns a copy of all active entries sorted by pack number.
func (t *Tracker) Snapshot() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pack < out[j].Pack })
	return out
}

// ActiveCount returns the number of in-flight packs.
func (t *Tracker) ActiveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
