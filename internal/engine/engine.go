// Package engine downloads a single beatmap pack: it walks the resolver's
// candidate URLs in order, streams the first usable one into a .part file
// with resume and bounded retries, and renames the file on completion.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tanq16/obito/internal/progress"
	"github.com/tanq16/obito/internal/resolver"
	"github.com/tanq16/obito/internal/throttle"
	"github.com/tanq16/obito/internal/utils"
)

// ErrNoMatchingPattern is the terminal failure when every candidate URL was
// exhausted without a usable response.
var ErrNoMatchingPattern = errors.New("no matching URL pattern")

// errNotFound advances to the next candidate immediately, no retries.
var errNotFound = errors.New("url not found (404)")

// errSkipCandidate marks a candidate as unusable (retries exhausted or an
// unexpected status); the engine moves on to the next one.
var errSkipCandidate = errors.New("candidate not usable")

// errLocal marks filesystem failures, which fail the pack outright instead
// of advancing candidates.
var errLocal = errors.New("local I/O error")

// statusError is a retryable HTTP status (429 or transient 5xx).
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("retryable status code: %d", e.code)
}

func checkStatus(code int) error {
	switch code {
	case http.StatusOK, http.StatusPartialContent:
		return nil
	case http.StatusNotFound:
		return errNotFound
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return &statusError{code: code}
	default:
		return fmt.Errorf("%w: unexpected status code %d", errSkipCandidate, code)
	}
}

type Config struct {
	Dir            string
	ChunkSize      int64
	Resume         bool
	BandwidthLimit float64 // bytes/sec for this engine's worker
	MaxRetries     int
	RetryBackoff   time.Duration
	ReadTimeout    time.Duration // stall bound per body read, never a cap on total duration
	BaseURL        string
}

type Engine struct {
	cfg      Config
	client   utils.HTTPDoer
	tracker  *progress.Tracker
	throttle *throttle.Throttle
}

func New(cfg Config, client utils.HTTPDoer, tracker *progress.Tracker) *Engine {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = utils.DefaultChunkSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = utils.DefaultRetries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = utils.DefaultRetryBackoff
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = utils.DefaultReadTimeout
	}
	return &Engine{
		cfg:      cfg,
		client:   client,
		tracker:  tracker,
		throttle: throttle.New(cfg.BandwidthLimit, cfg.ChunkSize),
	}
}

// Download fetches one pack to its final path. It owns only its own progress
// entry and never touches another pack's state; all failures are returned to
// the caller, never fatal to the batch.
func (e *Engine) Download(ctx context.Context, pack int) (string, error) {
	log := utils.GetLogger("engine")
	candidates := resolver.Candidates(e.cfg.BaseURL, pack)

	if err := os.MkdirAll(e.cfg.Dir, 0755); err != nil {
		return "", fmt.Errorf("error creating download directory: %v", err)
	}

	// A pack already on disk under any candidate name needs no network I/O.
	for _, cand := range candidates {
		finalPath := filepath.Join(e.cfg.Dir, cand.Filename)
		if fi, err := os.Stat(finalPath); err == nil && fi.Size() > 0 {
			log.Info().Int("pack", pack).Str("file", cand.Filename).Msg("Pack already exists, skipping")
			return finalPath, nil
		}
	}

	defer e.tracker.Remove(pack)

	for _, cand := range candidates {
		finalPath := filepath.Join(e.cfg.Dir, cand.Filename)
		partPath := finalPath + utils.PartSuffix
		err := e.downloadCandidate(ctx, pack, cand.URL, partPath, finalPath)
		if err == nil {
			return finalPath, nil
		}
		if errors.Is(err, errNotFound) || errors.Is(err, errSkipCandidate) {
			log.Debug().Int("pack", pack).Str("url", cand.URL).Err(err).Msg("Candidate unusable, trying next")
			continue
		}
		// filesystem failure or cancellation: fail the pack here
		return "", err
	}
	return "", fmt.Errorf("pack %d: %w", pack, ErrNoMatchingPattern)
}

// downloadCandidate drives one candidate URL through its retry budget and
// finalizes the part file on success.
func (e *Engine) downloadCandidate(ctx context.Context, pack int, url, partPath, finalPath string) error {
	log := utils.GetLogger("engine")
	var lastErr error
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := e.cfg.RetryBackoff << (attempt - 1)
			log.Warn().Int("pack", pack).Int("attempt", attempt+1).Dur("backoff", backoff).Msg("Retrying candidate")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err := e.attempt(ctx, pack, url, partPath)
		if err == nil {
			if err := os.Rename(partPath, finalPath); err != nil {
				return fmt.Errorf("%w: error finalizing output file: %v", errLocal, err)
			}
			log.Info().Int("pack", pack).Str("url", url).Msg("Download successful")
			return nil
		}
		if errors.Is(err, errNotFound) || errors.Is(err, errSkipCandidate) || errors.Is(err, errLocal) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
		log.Error().Int("pack", pack).Err(err).Msgf("Download attempt %d failed", attempt+1)
	}
	return fmt.Errorf("%w: retries exhausted: %v", errSkipCandidate, lastErr)
}

// attempt performs a single probe-and-stream pass for a candidate. The part
// file is only ever appended to or truncated, never renamed here, so an
// abort at any point leaves a valid resumable artifact.
func (e *Engine) attempt(ctx context.Context, pack int, url, partPath string) error {
	log := utils.GetLogger("engine")

	headCtx, headCancel := context.WithTimeout(ctx, e.cfg.ReadTimeout)
	defer headCancel()
	headReq, err := http.NewRequestWithContext(headCtx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("%w: error creating HEAD request: %v", errSkipCandidate, err)
	}
	headResp, err := e.client.Do(headReq)
	if err != nil {
		return fmt.Errorf("error executing HEAD request: %v", err)
	}
	headResp.Body.Close()
	if err := checkStatus(headResp.StatusCode); err != nil {
		return err
	}
	totalSize, _ := strconv.ParseInt(headResp.Header.Get("Content-Length"), 10, 64)

	var resumeOffset int64
	if e.cfg.Resume {
		if fi, err := os.Stat(partPath); err == nil {
			resumeOffset = fi.Size()
		}
	}
	e.tracker.Start(pack, totalSize, resumeOffset)

	// The GET carries no deadline of its own: a transfer is healthy as long
	// as bytes keep arriving, however long it runs. A watchdog cancels the
	// body only when no read completes within ReadTimeout.
	bodyCtx, bodyCancel := context.WithCancel(ctx)
	defer bodyCancel()
	req, err := http.NewRequestWithContext(bodyCtx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: error creating GET request: %v", errSkipCandidate, err)
	}
	if resumeOffset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", resumeOffset))
		log.Debug().Int("pack", pack).Int64("resumeOffset", resumeOffset).Msg("Resuming incomplete download")
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("error executing GET request: %v", err)
	}
	defer resp.Body.Close()

	if resumeOffset > 0 && resp.StatusCode == http.StatusOK {
		// Server ignored the range: restart from zero and truncate.
		log.Warn().Int("pack", pack).Msg("Server does not support resume, restarting download")
		resumeOffset = 0
		if cl, perr := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64); perr == nil && cl > 0 {
			totalSize = cl
		}
		e.tracker.Reset(pack, totalSize)
	} else if err := checkStatus(resp.StatusCode); err != nil {
		return err
	}

	fileMode := os.O_CREATE | os.O_WRONLY
	if resumeOffset > 0 {
		fileMode |= os.O_APPEND
	} else {
		fileMode |= os.O_TRUNC
	}
	outFile, err := os.OpenFile(partPath, fileMode, 0644)
	if err != nil {
		return fmt.Errorf("%w: error creating part file: %v", errLocal, err)
	}
	defer outFile.Close()

	written := resumeOffset
	buffer := make([]byte, e.cfg.ChunkSize)
	watchdog := time.AfterFunc(e.cfg.ReadTimeout, bodyCancel)
	defer watchdog.Stop()
	for {
		n, readErr := resp.Body.Read(buffer)
		if n > 0 {
			if _, werr := outFile.Write(buffer[:n]); werr != nil {
				return fmt.Errorf("%w: error writing part file: %v", errLocal, werr)
			}
			written += int64(n)
			e.tracker.Add(pack, int64(n))
			if werr := e.throttle.Wait(ctx, n); werr != nil {
				return werr
			}
		}
		watchdog.Reset(e.cfg.ReadTimeout)
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			if bodyCtx.Err() != nil && ctx.Err() == nil {
				return fmt.Errorf("transfer stalled: no data received for %s", e.cfg.ReadTimeout)
			}
			return fmt.Errorf("error reading response body: %v", readErr)
		}
	}
	// Unknown totals end on clean EOF; known totals must match exactly.
	if totalSize > 0 && written != totalSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", totalSize, written)
	}
	outFile.Sync()
	return nil
}
