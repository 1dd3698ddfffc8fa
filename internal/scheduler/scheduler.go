// Package scheduler fans a batch of pack numbers out over a fixed worker
// pool, records terminal outcomes in the state store, and drives the progress
// renderer for the lifetime of the run.
package scheduler

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tanq16/obito/internal/engine"
	"github.com/tanq16/obito/internal/progress"
	"github.com/tanq16/obito/internal/state"
	"github.com/tanq16/obito/internal/utils"
)

// Run downloads the requested packs and returns the run summary. Packs are
// deduplicated and, unless cfg.Force is set, filtered against the store's
// completed set before any worker starts. Run blocks until every queued pack
// reaches a terminal state or ctx is cancelled.
func Run(ctx context.Context, cfg utils.RunConfig, packs []int, store *state.Store, out io.Writer) *progress.Summary {
	log := utils.GetLogger("scheduler")
	runID := uuid.New().String()
	store.SetRunID(runID)

	queue := make([]int, 0, len(packs))
	for _, pack := range utils.DedupeSort(packs) {
		if !cfg.Force && store.IsCompleted(pack) {
			log.Debug().Int("pack", pack).Msg("Pack already completed, skipping")
			continue
		}
		queue = append(queue, pack)
	}

	summary := progress.NewSummary(len(queue))
	if len(queue) == 0 {
		log.Info().Str("runID", runID).Msg("Nothing to download")
		return summary
	}

	threads := cfg.Threads
	if threads < 1 {
		threads = 1
	}
	log.Info().Str("runID", runID).Int("packs", len(queue)).Int("threads", threads).Msg("Starting batch download")

	tracker := progress.NewTracker()
	renderer := progress.NewRenderer(tracker, summary, out)
	renderer.Start()

	client := utils.NewObitoHTTPClient(cfg.HTTPClientConfig)
	eng := engine.New(engine.Config{
		Dir:            cfg.DownloadDir,
		ChunkSize:      cfg.ChunkSize,
		Resume:         cfg.Resume,
		BandwidthLimit: cfg.BandwidthLimit,
		MaxRetries:     cfg.MaxRetries,
		RetryBackoff:   cfg.RetryBackoff,
		ReadTimeout:    cfg.ReadTimeout,
		BaseURL:        cfg.BaseURL,
	}, client, tracker)

	jobCh := make(chan int, len(queue))
	for _, pack := range queue {
		jobCh <- pack
	}
	close(jobCh)

	var wg sync.WaitGroup
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pack := range jobCh {
				if ctx.Err() != nil {
					store.MarkFailed(pack)
					summary.AddFailed()
					continue
				}
				path, err := eng.Download(ctx, pack)
				if err != nil {
					log.Error().Int("pack", pack).Err(err).Msg("Pack download failed")
					store.MarkFailed(pack)
					summary.AddFailed()
					continue
				}
				log.Info().Int("pack", pack).Str("path", path).Msg("Pack download complete")
				store.MarkCompleted(pack)
				summary.AddCompleted()
				if cfg.Delay {
					// brief randomized pause between downloads on the same worker
					jitter := 500*time.Millisecond + time.Duration(rand.Int63n(int64(time.Second)))
					select {
					case <-time.After(jitter):
					case <-ctx.Done():
					}
				}
			}
		}()
	}
	wg.Wait()
	renderer.Stop()

	store.SetSettings(cfg.Settings)
	if err := store.Save(); err != nil {
		log.Warn().Err(err).Msg("Failed to save state file")
	}
	log.Info().Str("runID", runID).Int("completed", summary.Completed()).Int("failed", summary.Failed()).Msg("Batch download finished")
	return summary
}
