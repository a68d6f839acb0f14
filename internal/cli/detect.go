package cli

import (
	"github.com/spf13/cobra"

	"github.com/promptprep/promptprep/internal/detect"
)

func newDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect [file]",
		Short: "Detect the programming language of a code sample",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args)
			if err != nil {
				return err
			}

			match := detect.Detect(text)

			f := newFormatter()
			if done, err := machineOutput(f, match); done {
				return err
			}
			if match.Language == "" {
				f.Muted("no confident match")
				return nil
			}
			f.Textln("%s (confidence %.1f)", match.Language, match.Confidence)
			return nil
		},
	}
	return cmd
}
