package cli

import (
	"github.com/spf13/cobra"

	"github.com/promptprep/promptprep/internal/validate"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Check text for size, complexity, and unescaped quotes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args)
			if err != nil {
				return err
			}

			th := validate.Thresholds{
				MaxSafeSize:         cfg.Chunking.MaxSafeSize,
				ComplexityThreshold: cfg.Complexity.Threshold,
			}
			report, err := validate.Text(text, th)
			if err != nil {
				return err
			}

			f := newFormatter()
			if done, err := machineOutput(f, report); done {
				return err
			}

			if report.IsValid {
				f.Success("text is ready to send (%d chars)", report.Classification.SizeChars)
				return nil
			}
			f.Warning("text needs attention (%d chars)", report.Classification.SizeChars)
			for _, w := range report.Warnings {
				f.Muted("  %s", w)
			}
			if report.Classification.IsOversized {
				f.Textln("recommended chunks: %d", report.Classification.RecommendedChunks)
			}
			return nil
		},
	}
	return cmd
}
