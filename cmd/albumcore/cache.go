package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/neoview/album-core/internal/book"
	"github.com/neoview/album-core/internal/closing"
)

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cache-stats <path>",
		Short: "Open a book and print index/page/instance cache occupancy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ac, err := newAppContext()
			if err != nil {
				return err
			}
			defer ac.Close()

			b := book.NewBook(ac)
			if _, err := b.OpenBook(closing.Context(), abs(args[0])); err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(b.GetCacheStats())
		},
	}
}

func newQueueMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue-metrics",
		Short: "Print background job scheduler occupancy and recent task history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ac, err := newAppContext()
			if err != nil {
				return err
			}
			defer ac.Close()

			b := book.NewBook(ac)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(b.GetBackgroundQueueMetrics())
		},
	}
}

func newInvalidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <path>",
		Short: "Drop every cached index/handle/page/thumbnail entry for an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ac, err := newAppContext()
			if err != nil {
				return err
			}
			defer ac.Close()

			b := book.NewBook(ac)
			b.InvalidateArchiveCache(abs(args[0]))
			return nil
		},
	}
}
