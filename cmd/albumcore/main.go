// Command albumcore is a thin CLI exercising the archive-serving core
// directly, for local debugging and scripting against a book without a
// host application wired up. The actual UI/RPC command surface this
// core is embedded behind is out of scope; this binary stands in as a
// minimal front end instead.
package main

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/neoview/album-core/internal/book"
	"github.com/neoview/album-core/internal/closing"
	"github.com/neoview/album-core/internal/config"
)

var (
	thumbDBPath        string
	compressThumbnails bool
)

func main() {
	config.Load()

	if *config.DebugFlag {
		log.SetLevel(log.DebugLevel)
		go func() {
			log.Errorln(http.ListenAndServe("localhost:6060", nil))
		}()
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Warnln("albumcore: received interrupt, shutting down")
		closing.Close()
		<-sigs
		os.Exit(130)
	}()

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		log.Fatalln(err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "albumcore",
		Short: "Archive-backed image serving core, operated from the command line",
	}
	root.PersistentFlags().StringVar(&thumbDBPath, "thumbnail-db",
		defaultThumbDBPath(), "path to the thumbnail database file")
	root.PersistentFlags().BoolVar(&compressThumbnails, "compress-thumbnails",
		true, "LZ4-compress thumbnails written to the database")

	root.AddCommand(
		newOpenCmd(),
		newPageCmd(),
		newDimensionsCmd(),
		newPreloadCmd(),
		newCacheStatsCmd(),
		newQueueMetricsCmd(),
		newInvalidateCmd(),
		newStreamDirCmd(),
	)
	return root
}

func defaultThumbDBPath() string {
	return filepath.Join(config.Conf.TempDirectory, "albumcore-thumbs.sqlite")
}

func newAppContext() (*book.AppContext, error) {
	return book.NewAppContext(thumbDBPath, compressThumbnails)
}

func abs(path string) string {
	a, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return a
}

func exitErr(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
