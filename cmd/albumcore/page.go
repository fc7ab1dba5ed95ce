package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/neoview/album-core/internal/book"
	"github.com/neoview/album-core/internal/closing"
)

func newPageCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "page <path> <index>",
		Short: "Load one page's bytes and write them to stdout or --out",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
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

			data, err := b.LoadImage(closing.Context(), index)
			if err != nil {
				return err
			}

			if outPath != "" {
				return os.WriteFile(outPath, data, 0o644)
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "write the page bytes to this file instead of stdout")
	return cmd
}

func newDimensionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dimensions <path> <index>",
		Short: "Decode just enough of a page to report its width and height",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
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

			w, h, err := b.FillDimensions(closing.Context(), index)
			if err != nil {
				return err
			}
			cmd.Printf("%dx%d\n", w, h)
			return nil
		},
	}
}
