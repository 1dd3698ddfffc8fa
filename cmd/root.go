package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tanq16/obito/internal/output"
	"github.com/tanq16/obito/internal/scheduler"
	"github.com/tanq16/obito/internal/state"
	"github.com/tanq16/obito/internal/utils"
)

var (
	startPack   int
	endPack     int
	packList    string
	retryFailed bool

	downloadDir   string
	threadCount   int
	chunkSize     int64
	bandwidthMBps float64
	noDelay       bool
	noResume      bool
	forceRedo     bool
	maxRetries    int
	timeoutSec    int
	statePath     string
	userAgent     string
	proxyURL      string
	baseURL       string
	debugLog      bool
)

var rootCmd = &cobra.Command{
	Use:   "obito",
	Short: "Concurrent osu! beatmap pack downloader",
	Long:  "Obito downloads osu! beatmap packs in parallel with resume, retries and a persistent record of what already finished.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := utils.InitLogger(utils.LogFile, debugLog); err != nil {
			return fmt.Errorf("error initializing logger: %v", err)
		}
		store := state.Load(statePath)
		packs, err := collectPacks(cmd, store)
		if err != nil {
			return err
		}
		return runDownload(cmd, store, packs)
	},
}

func init() {
	rootCmd.Flags().IntVar(&startPack, "start", 0, "first pack number of a range")
	rootCmd.Flags().IntVar(&endPack, "end", 0, "last pack number of a range (inclusive)")
	rootCmd.Flags().StringVarP(&packList, "packs", "p", "", "comma-separated pack numbers (e.g. 1586,1587,1600)")
	rootCmd.Flags().BoolVar(&retryFailed, "retry-failed", false, "re-queue packs that failed in earlier runs")

	rootCmd.PersistentFlags().StringVarP(&downloadDir, "dir", "d", "", "download directory")
	rootCmd.PersistentFlags().IntVarP(&threadCount, "threads", "t", 0, "number of parallel downloads")
	rootCmd.PersistentFlags().Int64Var(&chunkSize, "chunk-size", 0, "transfer chunk size in bytes")
	rootCmd.PersistentFlags().Float64VarP(&bandwidthMBps, "bandwidth-limit", "b", 0, "per-thread bandwidth cap in MB/s (0 = unlimited)")
	rootCmd.PersistentFlags().BoolVar(&noDelay, "no-delay", false, "disable the random pause between downloads")
	rootCmd.PersistentFlags().BoolVar(&noResume, "no-resume", false, "ignore partial files and always start from zero")
	rootCmd.PersistentFlags().BoolVarP(&forceRedo, "force", "f", false, "download packs even if marked completed")
	rootCmd.PersistentFlags().IntVar(&maxRetries, "retries", utils.DefaultRetries, "retry attempts per URL on transient errors")
	rootCmd.PersistentFlags().IntVar(&timeoutSec, "timeout", 0, "network stall timeout in seconds, max gap between reads (0 = default)")
	rootCmd.PersistentFlags().StringVarP(&statePath, "config", "c", utils.DefaultStateFile, "path to the JSON state file")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "custom User-Agent header (\"randomize\" picks one per run)")
	rootCmd.PersistentFlags().StringVar(&proxyURL, "proxy", "", "HTTP/SOCKS proxy URL")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "override the pack host (for mirrors)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "enable debug logging")
}

// collectPacks merges every selection flag into one list. At least one of
// --packs, --start/--end or --retry-failed must be given.
func collectPacks(cmd *cobra.Command, store *state.Store) ([]int, error) {
	var packs []int
	if packList != "" {
		parsed, err := utils.ParsePackList(packList)
		if err != nil {
			return nil, err
		}
		packs = append(packs, parsed...)
	}
	if cmd.Flags().Changed("start") || cmd.Flags().Changed("end") {
		expanded, err := utils.ExpandRange(startPack, endPack)
		if err != nil {
			return nil, err
		}
		packs = append(packs, expanded...)
	}
	if retryFailed {
		packs = append(packs, store.FailedPacks()...)
	}
	if len(packs) == 0 {
		return nil, fmt.Errorf("no packs selected, use --packs, --start/--end or --retry-failed")
	}
	return packs, nil
}

// buildRunConfig starts from the persisted settings and layers explicitly
// changed flags on top, so omitted flags keep their last-used values.
func buildRunConfig(cmd *cobra.Command, store *state.Store) utils.RunConfig {
	settings := store.Settings()
	flags := cmd.Flags()
	if flags.Changed("dir") {
		settings.DownloadDir = downloadDir
	}
	if flags.Changed("threads") {
		settings.Threads = threadCount
	}
	if flags.Changed("chunk-size") {
		settings.ChunkSize = chunkSize
	}
	if noDelay {
		settings.Delay = false
	}

	agent := userAgent
	if agent == "randomize" {
		agent = utils.GetRandomUserAgent()
	}

	cfg := utils.RunConfig{
		Settings:       settings,
		Resume:         !noResume,
		Force:          forceRedo,
		BandwidthLimit: bandwidthMBps * 1024 * 1024,
		MaxRetries:     maxRetries,
		RetryBackoff:   utils.DefaultRetryBackoff,
		BaseURL:        baseURL,
		HTTPClientConfig: utils.HTTPClientConfig{
			UserAgent: agent,
			ProxyURL:  proxyURL,
		},
	}
	if timeoutSec > 0 {
		cfg.ReadTimeout = time.Duration(timeoutSec) * time.Second
	}
	return cfg
}

func runDownload(cmd *cobra.Command, store *state.Store, packs []int) error {
	cfg := buildRunConfig(cmd, store)
	summary := scheduler.Run(cmd.Context(), cfg, packs, store, os.Stdout)

	if summary.Requested() == 0 {
		output.PrintInfo("All requested packs are already downloaded")
		return nil
	}
	fmt.Printf("%s Download complete: %d/%d successful, %d failed\n",
		output.FSuccess(output.StyleSymbols["pass"]),
		summary.Completed(), summary.Requested(), summary.Failed())
	if summary.Failed() > 0 {
		failed := store.FailedPacks()
		parts := make([]string, len(failed))
		for i, p := range failed {
			parts[i] = fmt.Sprintf("%d", p)
		}
		fmt.Printf("%s Failed packs: %s\n", output.FError(output.StyleSymbols["fail"]), strings.Join(parts, ", "))
		fmt.Println(output.FDebug("Details in " + utils.LogFile))
		return fmt.Errorf("%d pack(s) failed", summary.Failed())
	}
	return nil
}

func Execute() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	if err := rootCmd.Execute(); err != nil {
		output.PrintError(err.Error())
		os.Exit(1)
	}
}
