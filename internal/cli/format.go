package cli

import (
	"github.com/spf13/cobra"

	"github.com/promptprep/promptprep/internal/format"
)

func newFormatCmd() *cobra.Command {
	var modeFlag string
	cmd := &cobra.Command{
		Use:   "format [file]",
		Short: "Format an assistant reply for display",
		Long: `Format normalizes fenced code blocks (tagging untagged fences with a
detected language) and reflows embedded tags. The html mode renders
sanitized HTML with syntax highlighting; terminal renders styled ANSI
output.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args)
			if err != nil {
				return err
			}

			if modeFlag == "" {
				modeFlag = cfg.Format.DefaultMode
			}
			mode, err := format.ParseMode(modeFlag)
			if err != nil {
				return err
			}

			out, err := format.New().Format(cmd.Context(), text, mode)
			if err != nil {
				return err
			}

			f := newFormatter()
			if done, err := machineOutput(f, map[string]string{
				"text":   out,
				"format": string(mode),
			}); done {
				return err
			}
			f.Text("%s", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "Output format: default, enhanced, markdown, html, terminal")
	return cmd
}
