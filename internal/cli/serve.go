package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/promptprep/promptprep/internal/chunk"
	"github.com/promptprep/promptprep/internal/config"
	"github.com/promptprep/promptprep/internal/serve"
	"github.com/promptprep/promptprep/internal/session"
	"github.com/promptprep/promptprep/internal/validate"
)

func newServeCmd() *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and event stream",
		Long: `Serve exposes the validation pipeline over HTTP on the configured
address, plus a websocket event stream at /events. Operations are
recorded to the session database when history is enabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if host == "" {
				host = cfg.Serve.Host
			}
			if port == 0 {
				port = cfg.Serve.Port
			}
			mode, err := chunk.ParseMode(cfg.Chunking.DefaultMode)
			if err != nil {
				return err
			}

			counters := session.NewCounters()
			srvCfg := serve.Config{
				Host: host,
				Port: port,
				Thresholds: validate.Thresholds{
					MaxSafeSize:         cfg.Chunking.MaxSafeSize,
					ComplexityThreshold: cfg.Complexity.Threshold,
				},
				ChunkOpts: cfg.ChunkOptions(),
				ChunkMode: mode,
				Counters:  counters,
			}

			if cfg.Session.Enabled {
				store, err := session.Open(config.ExpandHome(cfg.Session.DBPath))
				if err != nil {
					return err
				}
				defer store.Close()
				if err := store.Migrate(); err != nil {
					return err
				}
				id, err := store.BeginSession(time.Now().UTC())
				if err != nil {
					return err
				}
				defer func() {
					_ = store.EndSession(id, counters.Snapshot())
				}()
				srvCfg.Store = store
				srvCfg.SessionID = id
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve.New(srvCfg).Start(ctx)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Bind address (default from config)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default from config)")
	return cmd
}
