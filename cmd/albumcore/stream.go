package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/neoview/album-core/internal/book"
	"github.com/neoview/album-core/internal/closing"
	"github.com/neoview/album-core/internal/dirstream"
)

func newStreamDirCmd() *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "stream-dir <path>",
		Short: "Stream a directory's entries in natural-sort batches as they arrive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ac, err := newAppContext()
			if err != nil {
				return err
			}
			defer ac.Close()

			b := book.NewBook(ac)
			_, events := b.StreamDirectory(closing.Context(), abs(args[0]), batchSize)

			enc := json.NewEncoder(os.Stdout)
			for ev := range events {
				if err := enc.Encode(ev); err != nil {
					return err
				}
				if ev.Kind == dirstream.EventError {
					return ev.Err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", 50, "number of entries per emitted batch")
	return cmd
}
