// Package config loads the application-wide TOML configuration via
// awconf, the same way aw-man does. It covers the ambient tuning knobs for
// every core component (cache budgets, worker counts, preload window).
package config

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/awused/awconf"
	log "github.com/sirupsen/logrus"
)

type config struct {
	// TempDirectory is the root for per-run scratch directories used by
	// the tempfile delivery mode.
	TempDirectory string

	// Preload window, in pages, used by the prefetch engine.
	PreloadAhead  int
	PreloadBehind int

	// Worker pool sizes for the job scheduler.
	PrimaryWorkers   int
	SecondaryWorkers int

	// Page cache budgets.
	PageCacheCount int
	PageCacheBytes int64

	// Archive index cache budget.
	IndexCacheEntries int

	// Preheat system queue depth.
	PreheatQueueDepth int

	// Thumbnail database write-batching delay.
	ThumbnailWriteDelayMillis int

	// AllowExternalExtractors is kept as a documented off switch; this
	// core ships pure-Go format handlers for ZIP/RAR/7Z and never shells
	// out, so this currently has no effect but stays so a future optional
	// backend has somewhere to read its policy from without a config
	// migration.
	AllowExternalExtractors bool
}

// Conf is the single global config state, loaded once at startup and
// thereafter read-only. Components still receive their tunables through
// an AppContext value rather than reading Conf directly; Conf exists
// only as the source those values are copied from at startup.
var Conf config

// ThumbnailWriteDelay returns the configured write-batching delay as a
// time.Duration.
func (c config) ThumbnailWriteDelay() time.Duration {
	return time.Duration(c.ThumbnailWriteDelayMillis) * time.Millisecond
}

// DebugFlag tracks if the debugging/profiling HTTP interface is active.
var DebugFlag = flag.Bool(
	"debug",
	false,
	"Serve debugging information at http://localhost:6060/debug/pprof")

// Load initializes the config and crashes the program if the config is
// obviously invalid.
func Load() {
	flag.Parse()

	err := awconf.LoadConfig("album-core", &Conf)
	if err != nil {
		log.Fatalln(err)
	}

	rootTDir := Conf.TempDirectory
	if rootTDir == "" {
		rootTDir = os.TempDir()
		if rootTDir == "" {
			log.Fatalln("No temp directory configured and no default temp directory.")
		}
	}
	Conf.TempDirectory, err = filepath.Abs(rootTDir)
	if err != nil {
		log.Fatalln("Error getting absolute path for temp directory", err)
	}

	if Conf.PreloadAhead < 0 || Conf.PreloadBehind < 0 ||
		Conf.PrimaryWorkers < 0 || Conf.SecondaryWorkers < 0 ||
		Conf.PageCacheCount < 0 || Conf.PageCacheBytes < 0 ||
		Conf.IndexCacheEntries < 0 || Conf.PreheatQueueDepth < 0 ||
		Conf.ThumbnailWriteDelayMillis < 0 {
		log.Fatalln("Settings cannot be negative.")
	}

	if Conf.PreloadAhead == 0 {
		Conf.PreloadAhead = 5
	}
	if Conf.PreloadBehind == 0 {
		Conf.PreloadBehind = 2
	}
	if Conf.PrimaryWorkers == 0 {
		Conf.PrimaryWorkers = runtime.NumCPU() / 2
		if Conf.PrimaryWorkers < 1 {
			Conf.PrimaryWorkers = 1
		}
	}
	if Conf.SecondaryWorkers == 0 {
		Conf.SecondaryWorkers = 2
	}
	if Conf.PageCacheCount == 0 {
		Conf.PageCacheCount = 64
	}
	if Conf.PageCacheBytes == 0 {
		Conf.PageCacheBytes = 512 * 1024 * 1024
	}
	if Conf.IndexCacheEntries == 0 {
		Conf.IndexCacheEntries = 64
	}
	if Conf.PreheatQueueDepth == 0 {
		Conf.PreheatQueueDepth = 5
	}
	if Conf.ThumbnailWriteDelayMillis == 0 {
		Conf.ThumbnailWriteDelayMillis = 2000
	}
}
