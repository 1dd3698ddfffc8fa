package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/tanq16/obito/internal/utils"
)

const maxShownDownloads = 3

// Renderer polls the tracker and summary on a fixed interval and rewrites a
// single status line in place. It only ever reads shared state, so workers
// never block on it.
type Renderer struct {
	tracker  *Tracker
	summary  *Summary
	out      io.Writer
	interval time.Duration
	doneCh   chan struct{}
	wg       sync.WaitGroup

	// speed baselines, touched only by the render loop
	lastBytes map[int]int64
	lastPoll  time.Time
}

func NewRenderer(tracker *Tracker, summary *Summary, out io.Writer) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{
		tracker:   tracker,
		summary:   summary,
		out:       out,
		interval:  time.Second,
		doneCh:    make(chan struct{}),
		lastBytes: make(map[int]int64),
	}
}

func (r *Renderer) Start() {
	r.lastPoll = time.Now()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.render()
			case <-r.doneCh:
				r.render()
				fmt.Fprintln(r.out)
				return
			}
		}
	}()
}

// Stop performs one final render reflecting the terminal summary and waits
// for the loop to exit.
func (r *Renderer) Stop() {
	close(r.doneCh)
	r.wg.Wait()
}

func (r *Renderer) render() {
	now := time.Now()
	elapsed := now.Sub(r.lastPoll).Seconds()
	if elapsed <= 0 {
		elapsed = r.interval.Seconds()
	}
	entries := r.tracker.Snapshot()

	completed := r.summary.Completed()
	failed := r.summary.Failed()
	requested := r.summary.Requested()
	overall := float64(0)
	if requested > 0 {
		overall = float64(completed) / float64(requested) * 100
	}
	line := fmt.Sprintf("%d/%d (%d failed) (%.1f%%)", completed, requested, failed, overall)

	var active []string
	seen := make(map[int]struct{}, len(entries))
	for _, e := range entries {
		seen[e.Pack] = struct{}{}
		prev, known := r.lastBytes[e.Pack]
		if !known {
			// first sighting: a resumed entry already counts its offset,
			// which must not register as bytes moved this tick
			prev = e.Downloaded
		}
		delta := e.Downloaded - prev
		if delta < 0 {
			delta = 0 // entry was reset between polls
		}
		r.lastBytes[e.Pack] = e.Downloaded
		if e.TotalSize > 0 {
			pct := float64(e.Downloaded) / float64(e.TotalSize) * 100
			active = append(active, fmt.Sprintf("#%d: %.1f%% at %.1f MB/s", e.Pack, pct, float64(delta)/elapsed/1024/1024))
		} else {
			active = append(active, fmt.Sprintf("#%d: %s at %s", e.Pack, utils.FormatBytes(uint64(e.Downloaded)), utils.FormatSpeed(delta, elapsed)))
		}
	}
	// prune baselines for packs that went terminal between polls
	for pack := range r.lastBytes {
		if _, ok := seen[pack]; !ok {
			delete(r.lastBytes, pack)
		}
	}
	r.lastPoll = now

	if len(active) > 0 {
		shown := active
		if len(shown) > maxShownDownloads {
			shown = shown[:maxShownDownloads]
		}
		line += " | " + strings.Join(shown, ", ")
		if len(active) > maxShownDownloads {
			line += fmt.Sprintf(" (+%d more)", len(active)-maxShownDownloads)
		}
	}

	width := 120
	if f, ok := r.out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	if len(line) >= width {
		line = line[:width-1]
	}
	fmt.Fprintf(r.out, "\r\033[K%s", line)
}
