// Package state persists the completed and failed pack sets plus the
// last-used settings as a small JSON document. Loading is tolerant (a missing
// or malformed file yields defaults) and saving is best-effort: a failed
// write is logged by the caller, never fatal to the run.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/gofrs/flock"

	"github.com/tanq16/obito/internal/utils"
)

// fileState is the on-disk shape of the state document.
type fileState struct {
	utils.Settings
	CompletedPacks []int  `json:"completed_packs"`
	FailedPacks    []int  `json:"failed_packs"`
	LastRunID      string `json:"last_run_id,omitempty"`
}

// Store owns the persisted state for a run. Terminal outcomes are recorded
// through MarkCompleted/MarkFailed under the store lock; the file itself is
// written once by Save.
type Store struct {
	path string

	mu        sync.Mutex
	settings  utils.Settings
	completed map[int]struct{}
	failed    map[int]struct{}
	runID     string
}

func defaultSettings() utils.Settings {
	return utils.Settings{
		DownloadDir: "./osu_packs",
		Threads:     utils.DefaultThreads,
		ChunkSize:   utils.DefaultChunkSize,
		Delay:       true,
	}
}

// Load reads the state file at path. Any read or parse failure degrades to
// empty defaults so a broken state file can never abort a run.
func Load(path string) *Store {
	log := utils.GetLogger("state")
	s := &Store{
		path:      path,
		settings:  defaultSettings(),
		completed: make(map[int]struct{}),
		failed:    make(map[int]struct{}),
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("Failed to read state file, using defaults")
		}
		return s
	}
	var fs fileState
	if err := json.Unmarshal(data, &fs); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Malformed state file, using defaults")
		return s
	}
	if fs.DownloadDir != "" {
		s.settings.DownloadDir = fs.DownloadDir
	}
	if fs.Threads > 0 {
		s.settings.Threads = fs.Threads
	}
	if fs.ChunkSize > 0 {
		s.settings.ChunkSize = fs.ChunkSize
	}
	s.settings.Delay = fs.Delay
	for _, p := range fs.CompletedPacks {
		s.completed[p] = struct{}{}
	}
	for _, p := range fs.FailedPacks {
		s.failed[p] = struct{}{}
	}
	return s
}

func (s *Store) Settings() utils.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Store) SetSettings(settings utils.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

func (s *Store) SetRunID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runID = id
}

func (s *Store) IsCompleted(pack int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.completed[pack]
	return ok
}

// MarkCompleted records a terminal success and clears any stale failure.
func (s *Store) MarkCompleted(pack int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[pack] = struct{}{}
	delete(s.failed, pack)
}

// MarkFailed records a terminal failure. A pack that ever completed stays
// completed.
func (s *Store) MarkFailed(pack int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.completed[pack]; ok {
		return
	}
	s.failed[pack] = struct{}{}
}

func (s *Store) CompletedPacks() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.completed)
}

func (s *Store) FailedPacks() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.failed)
}

// Save writes the state document durably. The write goes to a temp file
// first and is renamed into place, under a flock so two runs sharing a state
// file cannot interleave writes.
func (s *Store) Save() error {
	s.mu.Lock()
	fs := fileState{
		Settings:       s.settings,
		CompletedPacks: sortedKeys(s.completed),
		FailedPacks:    sortedKeys(s.failed),
		LastRunID:      s.runID,
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(fs, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding state: %v", err)
	}

	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err == nil {
		defer lock.Unlock()
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("error writing state file: %v", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		return fmt.Errorf("error finalizing state file: %v", err)
	}
	return nil
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}
