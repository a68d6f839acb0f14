package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/promptprep/promptprep/internal/config"
	"github.com/promptprep/promptprep/internal/output"
	"github.com/promptprep/promptprep/internal/session"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect recorded session history",
	}
	cmd.AddCommand(newSessionShowCmd(), newSessionHistoryCmd(), newSessionOpsCmd(), newSessionResetCmd())
	return cmd
}

func newSessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the most recent session",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSessionStore()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.History(1)
			if err != nil {
				return err
			}

			f := newFormatter()
			if len(entries) == 0 {
				if done, err := machineOutput(f, nil); done {
					return err
				}
				f.Muted("no sessions recorded")
				return nil
			}

			e := entries[0]
			if done, err := machineOutput(f, e); done {
				return err
			}
			f.Title("session %d", e.ID)
			f.Textln("started:   %s", e.StartedAt.Format("2006-01-02 15:04:05"))
			if e.EndedAt != nil {
				f.Textln("ended:     %s", e.EndedAt.Format("2006-01-02 15:04:05"))
			} else {
				f.Textln("ended:     running")
			}
			f.Textln("exchanges: %d", e.ExchangeCount)
			f.Textln("files:     %d", e.FilesProcessed)
			return nil
		},
	}
}

func newSessionResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete all recorded session history",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSessionStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Reset(); err != nil {
				return err
			}
			newFormatter().Success("session history cleared")
			return nil
		},
	}
}

func openSessionStore() (*session.Store, error) {
	if !cfg.Session.Enabled {
		return nil, fmt.Errorf("session history is disabled in the config")
	}
	store, err := session.Open(config.ExpandHome(cfg.Session.DBPath))
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func newSessionHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past serve sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSessionStore()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.History(limit)
			if err != nil {
				return err
			}

			f := newFormatter()
			if done, err := machineOutput(f, entries); done {
				return err
			}
			if len(entries) == 0 {
				f.Muted("no sessions recorded")
				return nil
			}

			t := output.NewTable(os.Stdout, "ID", "STARTED", "ENDED", "EXCHANGES", "FILES")
			for _, e := range entries {
				ended := "running"
				if e.EndedAt != nil {
					ended = e.EndedAt.Format("2006-01-02 15:04:05")
				}
				t.AddRow(
					fmt.Sprintf("%d", e.ID),
					e.StartedAt.Format("2006-01-02 15:04:05"),
					ended,
					fmt.Sprintf("%d", e.ExchangeCount),
					fmt.Sprintf("%d", e.FilesProcessed),
				)
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum sessions to list")
	return cmd
}

func newSessionOpsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "ops <session-id>",
		Short: "List the operations recorded for one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid session id %q", args[0])
			}

			store, err := openSessionStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ops, err := store.RecentOperations(id, limit)
			if err != nil {
				return err
			}

			f := newFormatter()
			if done, err := machineOutput(f, ops); done {
				return err
			}
			if len(ops) == 0 {
				f.Muted("no operations recorded for session %d", id)
				return nil
			}

			t := output.NewTable(os.Stdout, "WHEN", "OPERATION", "CHARS IN", "CHUNKS OUT")
			for _, op := range ops {
				t.AddRow(
					op.CreatedAt.Format("15:04:05"),
					op.Operation,
					fmt.Sprintf("%d", op.CharsIn),
					fmt.Sprintf("%d", op.ChunksOut),
				)
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum operations to list")
	return cmd
}
