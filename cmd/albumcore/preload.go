package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/neoview/album-core/internal/book"
	"github.com/neoview/album-core/internal/closing"
)

func newPreloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preload <path> <start> <count>",
		Short: "Synchronously warm a page range into the page cache",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			count, err := strconv.Atoi(args[2])
			if err != nil {
				return err
			}

			ac, err := newAppContext()
			if err != nil {
				return err
			}
			defer ac.Close()

			b := book.NewBook(ac)
			if _, err := b.OpenBook(closing.Context(), abs(args[0])); err != nil {
				return err
			}

			loaded, err := b.PreloadRange(closing.Context(), start, count)
			if err != nil {
				return err
			}
			cmd.Printf("loaded %d pages\n", loaded)
			return nil
		},
	}
}
