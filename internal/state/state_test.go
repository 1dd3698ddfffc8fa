package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanq16/obito/internal/utils"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "nope.json"))
	settings := s.Settings()
	assert.Equal(t, "./osu_packs", settings.DownloadDir)
	assert.Equal(t, utils.DefaultThreads, settings.Threads)
	assert.Equal(t, int64(utils.DefaultChunkSize), settings.ChunkSize)
	assert.True(t, settings.Delay)
	assert.Empty(t, s.CompletedPacks())
	assert.Empty(t, s.FailedPacks())
}

func TestLoadMalformedFileGivesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	s := Load(path)
	assert.Equal(t, utils.DefaultThreads, s.Settings().Threads)
	assert.Empty(t, s.CompletedPacks())
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := Load(path)
	s.SetSettings(utils.Settings{DownloadDir: "/tmp/packs", Threads: 5, ChunkSize: 8192, Delay: false})
	s.MarkCompleted(1587)
	s.MarkCompleted(1586)
	s.MarkFailed(9999999)
	s.SetRunID("run-1")
	require.NoError(t, s.Save())

	loaded := Load(path)
	assert.Equal(t, []int{1586, 1587}, loaded.CompletedPacks())
	assert.Equal(t, []int{9999999}, loaded.FailedPacks())
	assert.Equal(t, 5, loaded.Settings().Threads)
	assert.Equal(t, "/tmp/packs", loaded.Settings().DownloadDir)
	assert.False(t, loaded.Settings().Delay)
}

func TestSaveWritesExpectedShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := Load(path)
	s.MarkCompleted(12)
	require.NoError(t, s.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{"download_dir", "threads", "chunk_size", "delay", "completed_packs", "failed_packs"} {
		assert.Contains(t, doc, key)
	}
}

func TestMarkCompletedClearsFailure(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "state.json"))
	s.MarkFailed(42)
	assert.Equal(t, []int{42}, s.FailedPacks())
	s.MarkCompleted(42)
	assert.Empty(t, s.FailedPacks())
	assert.True(t, s.IsCompleted(42))
	// a completed pack never re-enters the failed set
	s.MarkFailed(42)
	assert.Empty(t, s.FailedPacks())
}

func TestSaveToUnwritableDirErrors(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "missing-dir", "state.json"))
	s.MarkCompleted(1)
	assert.Error(t, s.Save())
}
