package progress

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker()
	tr.Start(1586, 5000000, 0)
	tr.Add(1586, 100000)
	tr.Add(1586, 100000)

	snap := tr.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, int64(200000), snap[0].Downloaded)
	assert.Equal(t, int64(5000000), snap[0].TotalSize)
	assert.Equal(t, StatusDownloading, snap[0].Status)

	tr.Remove(1586)
	assert.Empty(t, tr.Snapshot())
	assert.Zero(t, tr.ActiveCount())
}

func TestTrackerResumingStatus(t *testing.T) {
	tr := NewTracker()
	tr.Start(7, 5000000, 1000000)
	snap := tr.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, StatusResuming, snap[0].Status)
	assert.Equal(t, int64(1000000), snap[0].Downloaded)
}

func TestTrackerReset(t *testing.T) {
	tr := NewTracker()
	tr.Start(7, 5000000, 1000000)
	tr.Reset(7, 4000000)
	snap := tr.Snapshot()
	require.Len(t, snap, 1)
	assert.Zero(t, snap[0].Downloaded)
	assert.Equal(t, int64(4000000), snap[0].TotalSize)
	assert.Equal(t, StatusDownloading, snap[0].Status)
}

func TestTrackerIgnoresUnknownPack(t *testing.T) {
	tr := NewTracker()
	tr.Add(99, 500) // no entry; late write after removal must not fault
	assert.Empty(t, tr.Snapshot())
}

func TestTrackerSnapshotSorted(t *testing.T) {
	tr := NewTracker()
	tr.Start(30, 1, 0)
	tr.Start(10, 1, 0)
	tr.Start(20, 1, 0)
	snap := tr.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []int{10, 20, 30}, []int{snap[0].Pack, snap[1].Pack, snap[2].Pack})
}

func TestTrackerConcurrentWriters(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for pack := 1; pack <= 8; pack++ {
		wg.Add(1)
		go func(pack int) {
			defer wg.Done()
			tr.Start(pack, 1000, 0)
			for i := 0; i < 100; i++ {
				tr.Add(pack, 10)
			}
			tr.Remove(pack)
		}(pack)
	}
	wg.Wait()
	assert.Zero(t, tr.ActiveCount())
}

func TestSummaryCounters(t *testing.T) {
	s := NewSummary(3)
	s.AddCompleted()
	s.AddCompleted()
	assert.False(t, s.Done())
	s.AddFailed()
	assert.True(t, s.Done())
	assert.Equal(t, 3, s.Requested())
	assert.Equal(t, 2, s.Completed())
	assert.Equal(t, 1, s.Failed())
}

func TestRendererLineFormat(t *testing.T) {
	tr := NewTracker()
	tr.Start(1586, 5000000, 0)
	tr.Add(1586, 2500000)
	s := NewSummary(3)
	s.AddCompleted()
	s.AddFailed()

	var buf bytes.Buffer
	r := NewRenderer(tr, s, &buf)
	r.render()

	out := buf.String()
	assert.Contains(t, out, "1/3 (1 failed) (33.3%)")
	assert.Contains(t, out, "#1586: 50.0%")
	assert.Contains(t, out, "MB/s")
}

func TestRendererUnknownTotal(t *testing.T) {
	tr := NewTracker()
	tr.Start(9, 0, 0)
	tr.Add(9, 3*1024*1024)

	var buf bytes.Buffer
	r := NewRenderer(tr, NewSummary(1), &buf)
	r.render()
	assert.Contains(t, buf.String(), "#9: 3.00 MB")
}

func TestRendererSeedsBaselineOnResume(t *testing.T) {
	tr := NewTracker()
	// resumed with 1 GB already on disk; none of it moved this tick
	tr.Start(5, 2000000000, 1000000000)

	var buf bytes.Buffer
	r := NewRenderer(tr, NewSummary(1), &buf)
	r.render()
	assert.Contains(t, buf.String(), "#5: 50.0% at 0.0 MB/s")
}

func TestRendererToleratesDisappearingEntries(t *testing.T) {
	tr := NewTracker()
	tr.Start(1, 100, 0)
	s := NewSummary(2)

	var buf bytes.Buffer
	r := NewRenderer(tr, s, &buf)
	r.render()

	// pack 1 completes between polls, pack 2 appears
	tr.Remove(1)
	s.AddCompleted()
	tr.Start(2, 100, 0)
	buf.Reset()
	r.render()

	out := buf.String()
	assert.NotContains(t, out, "#1:")
	assert.Contains(t, out, "#2:")
	assert.NotContains(t, r.lastBytes, 1)
}

func TestRendererCapsShownDownloads(t *testing.T) {
	tr := NewTracker()
	for pack := 1; pack <= 5; pack++ {
		tr.Start(pack, 100, 0)
	}
	var buf bytes.Buffer
	r := NewRenderer(tr, NewSummary(5), &buf)
	r.render()
	out := buf.String()
	assert.Contains(t, out, "(+2 more)")
	assert.NotContains(t, out, "#4:")
}
