package cli

import (
	"github.com/spf13/cobra"

	"github.com/promptprep/promptprep/internal/chunk"
	"github.com/promptprep/promptprep/internal/tui"
)

func newBrowseCmd() *cobra.Command {
	var (
		maxSize int
		mode    string
	)
	cmd := &cobra.Command{
		Use:   "browse [file]",
		Short: "Interactively page through the chunks of a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args)
			if err != nil {
				return err
			}

			if mode == "" {
				mode = cfg.Chunking.DefaultMode
			}
			m, err := chunk.ParseMode(mode)
			if err != nil {
				return err
			}
			if maxSize <= 0 {
				maxSize = cfg.Chunking.MaxChunkSize
			}

			chunks, err := chunk.Split(text, maxSize, m, cfg.ChunkOptions())
			if err != nil {
				return err
			}
			return tui.Run(chunks)
		},
	}
	cmd.Flags().IntVar(&maxSize, "max-size", 0, "Maximum characters per chunk (default from config)")
	cmd.Flags().StringVar(&mode, "mode", "", "Chunking mode: naive, smart, or preserve (default from config)")
	return cmd
}
