package cli

import (
	"github.com/spf13/cobra"

	"github.com/promptprep/promptprep/internal/sanitize"
)

func newEscapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "escape [file]",
		Short: "Escape unescaped double quotes for safe transmission",
		Long: `Escape rewrites bare double quotes as \" so the text survives being
embedded in a quoted string. Already-escaped quotes are left alone, so
running escape twice is safe.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args)
			if err != nil {
				return err
			}

			escaped := sanitize.EscapeQuotes(text)

			f := newFormatter()
			if done, err := machineOutput(f, map[string]interface{}{
				"text":    escaped,
				"changed": escaped != text,
			}); done {
				return err
			}
			f.Text("%s", escaped)
			return nil
		},
	}
	return cmd
}
