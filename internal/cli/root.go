// Package cli implements the promptprep command tree.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/promptprep/promptprep/internal/config"
	"github.com/promptprep/promptprep/internal/output"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	cfgFile    string
	jsonOutput bool
	yamlOutput bool
	noColor    bool
	verbose    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "promptprep",
	Short: "Prepare text for size-constrained AI assistants",
	Long: `promptprep sanitizes, classifies, and chunks text before it is sent
to an assistant with input limits. It escapes unsafe quotes, warns when
text is oversized or describes a multi-step task, splits long input into
fence-preserving chunks with context overlap, and formats replies for
display.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))

		loaded, err := config.Load(cfgFile)
		if err != nil {
			// An explicit --config that fails to load is fatal; an
			// unreadable default location falls back to defaults.
			if cfgFile != "" {
				return err
			}
			slog.Warn("config load failed, using defaults", "error", err)
			loaded = config.Default()
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !jsonOutput {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/promptprep/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (machine-readable)")
	rootCmd.PersistentFlags().BoolVar(&yamlOutput, "yaml", false, "Output in YAML format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newValidateCmd(),
		newEscapeCmd(),
		newChunkCmd(),
		newDetectCmd(),
		newFormatCmd(),
		newBrowseCmd(),
		newSessionCmd(),
		newServeCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)
}

// newFormatter builds the output formatter for one command invocation.
// Prose wraps to the terminal width when stdout is a terminal.
func newFormatter() *output.Formatter {
	opts := []output.Option{}
	if noColor {
		opts = append(opts, output.WithColor(false))
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		opts = append(opts, output.WithWidth(w))
	}
	return output.New(os.Stdout, opts...)
}

// machineOutput reports whether a structured output flag is set, and
// writes v in that format when so.
func machineOutput(f *output.Formatter, v interface{}) (bool, error) {
	switch {
	case jsonOutput:
		return true, f.JSON(v)
	case yamlOutput:
		return true, f.YAML(v)
	}
	return false, nil
}

// readInput returns the text for a command: the named file when one is
// given, otherwise stdin. An interactive stdin with no file is an error
// so a bare invocation does not hang waiting for input.
func readInput(args []string) (string, error) {
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read %s: %w", args[0], err)
		}
		return string(data), nil
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no input: pass a file argument or pipe text on stdin")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter()
			info := map[string]string{
				"version": Version,
				"commit":  Commit,
				"date":    Date,
			}
			if done, err := machineOutput(f, info); done {
				return err
			}
			if short {
				f.Textln("%s", Version)
				return nil
			}
			f.Textln("promptprep %s (commit %s, built %s)", Version, Commit, Date)
			return nil
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return cmd
}
