package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/promptprep/promptprep/internal/output"
	"github.com/promptprep/promptprep/internal/session"
	"github.com/promptprep/promptprep/internal/validate"
	"github.com/promptprep/promptprep/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var debounceMs int
	cmd := &cobra.Command{
		Use:   "watch <path>...",
		Short: "Revalidate files as they change",
		Long: `Watch monitors the given files or directories and revalidates each
changed file after a quiet period, so editors that save in bursts
trigger one check instead of many. Processed files are counted in the
session record when history is enabled.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if debounceMs <= 0 {
				debounceMs = cfg.Watch.DebounceMs
			}
			th := validate.Thresholds{
				MaxSafeSize:         cfg.Chunking.MaxSafeSize,
				ComplexityThreshold: cfg.Complexity.Threshold,
			}
			f := newFormatter()
			counters := session.NewCounters()

			w, err := watch.New(args, time.Duration(debounceMs)*time.Millisecond, revalidateOnChange(f, th, counters))
			if err != nil {
				return err
			}

			if cfg.Session.Enabled {
				store, err := openSessionStore()
				if err != nil {
					return err
				}
				defer store.Close()
				id, err := store.BeginSession(time.Now().UTC())
				if err != nil {
					return err
				}
				defer func() {
					_ = store.EndSession(id, counters.Snapshot())
				}()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			f.Muted("watching %d paths, debounce %dms", len(args), debounceMs)
			err = w.Run(ctx)
			if err == ctx.Err() {
				return nil
			}
			return err
		},
	}
	cmd.Flags().IntVar(&debounceMs, "debounce", 0, "Quiet period in milliseconds (default from config)")
	return cmd
}

// revalidateOnChange builds the debounced change callback: read the
// file, count it as processed, validate, and report the outcome.
func revalidateOnChange(f *output.Formatter, th validate.Thresholds, counters *session.Counters) watch.ChangeHandler {
	return func(path string) {
		data, err := os.ReadFile(path)
		if err != nil {
			f.Error("%s: %v", path, err)
			return
		}
		counters.RecordFile()

		report, err := validate.Text(string(data), th)
		if err != nil {
			f.Error("%s: %v", path, err)
			return
		}
		if report.IsValid {
			f.Success("%s (%d chars)", path, report.Classification.SizeChars)
			return
		}
		f.Warning("%s (%d chars)", path, report.Classification.SizeChars)
		for _, warning := range report.Warnings {
			f.Muted("  %s", warning)
		}
	}
}
