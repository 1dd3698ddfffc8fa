package utils

import "time"

// Settings are the persisted, user-tunable knobs. They mirror the settings
// fields of the state file and are merged with command-line flags on startup.
type Settings struct {
	DownloadDir string `json:"download_dir"`
	Threads     int    `json:"threads"`
	ChunkSize   int64  `json:"chunk_size"`
	Delay       bool   `json:"delay"`
}

// RunConfig carries everything a single invocation needs: the effective
// settings plus per-run options that are not persisted.
type RunConfig struct {
	Settings
	Resume           bool
	Force            bool
	BandwidthLimit   float64 // bytes/sec per worker, 0 means unlimited
	MaxRetries       int
	RetryBackoff     time.Duration
	ReadTimeout      time.Duration // max gap between body reads before an attempt is abandoned
	BaseURL          string
	HTTPClientConfig HTTPClientConfig
}

type HTTPClientConfig struct {
	Timeout   time.Duration
	KATimeout time.Duration
	ProxyURL  string
	UserAgent string
	Headers   map[string]string
}
