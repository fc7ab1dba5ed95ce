package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/neoview/album-core/internal/book"
	"github.com/neoview/album-core/internal/closing"
)

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Open an archive or folder and print its page list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ac, err := newAppContext()
			if err != nil {
				return err
			}
			defer ac.Close()

			b := book.NewBook(ac)
			info, err := b.OpenBook(closing.Context(), abs(args[0]))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
}
