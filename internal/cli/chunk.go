package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/promptprep/promptprep/internal/chunk"
	"github.com/promptprep/promptprep/internal/output"
)

func newChunkCmd() *cobra.Command {
	var (
		maxSize int
		mode    string
		outDir  string
		summary bool
	)
	cmd := &cobra.Command{
		Use:   "chunk [file]",
		Short: "Split long text into sendable chunks",
		Long: `Chunk splits text that exceeds the size limit into pieces. Naive mode
cuts at fixed offsets; smart mode nudges each cut to the nearest
fence-safe position so a fenced code block is never broken mid-block;
preserve mode lifts whole code blocks into their own chunks. Each chunk
after the first carries a context prefix of the previous chunk's tail;
concatenating the chunk bodies reproduces the input exactly.`,
		Args: cobra.MaximumNArgs(1),
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

			f := newFormatter()
			if done, err := machineOutput(f, map[string]interface{}{
				"chunks": chunks,
				"count":  len(chunks),
			}); done {
				return err
			}

			if outDir != "" {
				return writeChunkFiles(f, chunks, outDir)
			}
			if summary {
				printChunkSummary(chunks)
				return nil
			}

			for i, c := range chunks {
				f.Muted("--- chunk %d/%d (%d chars) ---", i+1, len(chunks), len(c.Content))
				if c.HasContextOverlap {
					f.Muted("[context] %s", output.Truncate(c.ContextPrefix, 80))
				}
				f.Text("%s", c.Content)
				f.Line()
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxSize, "max-size", 0, "Maximum characters per chunk (default from config)")
	cmd.Flags().StringVar(&mode, "mode", "", "Chunking mode: naive, smart, or preserve (default from config)")
	cmd.Flags().StringVar(&outDir, "out", "", "Write each chunk to a file in this directory")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print a per-chunk table instead of the chunk bodies")
	return cmd
}

func writeChunkFiles(f *output.Formatter, chunks []chunk.Chunk, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for i, c := range chunks {
		path := filepath.Join(dir, fmt.Sprintf("chunk_%03d.txt", i+1))
		if err := os.WriteFile(path, []byte(c.FullText()), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	f.Success("wrote %s to %s", output.CountStr(len(chunks), "chunk", "chunks"), dir)
	return nil
}

func printChunkSummary(chunks []chunk.Chunk) {
	t := output.NewTable(os.Stdout, "#", "CHARS", "OVERLAP", "FENCES")
	for i, c := range chunks {
		overlap := "-"
		if c.HasContextOverlap {
			overlap = fmt.Sprintf("%d", len(c.ContextPrefix))
		}
		t.AddRow(
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", len(c.Content)),
			overlap,
			fmt.Sprintf("%d", chunk.CountFences(c.Content)),
		)
	}
	t.Render()
}
