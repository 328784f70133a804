package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/flametower/pkg/pipeline"
	"github.com/matzehuels/flametower/pkg/server"
	"github.com/matzehuels/flametower/pkg/store"
)

// serveCommand creates the HTTP server command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr        string
		noStore     bool
		maxSessions int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve flame sessions over HTTP",
		Long: `Serve starts an HTTP server. Each session owns an engine that clients
step by fetching frames and steer with restart, rerender and quality calls.
Presets and cached runs use the configured store.`,
		Example: `  flametower serve --addr :8080
  curl -X POST localhost:8080/sessions
  curl localhost:8080/sessions/<id>/frame?size=256 > frame.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadedConfig()
			if err != nil {
				return err
			}
			engineCfg, err := c.engineDefaults()
			if err != nil {
				return err
			}

			s, err := c.openStore(ctx, noStore)
			if err != nil {
				return err
			}
			defer s.Close()

			srvCfg := server.Config{
				Addr:        cfg.Server.Addr,
				SessionTTL:  cfg.Server.SessionTTL.Duration,
				MaxSessions: cfg.Server.MaxSessions,
				Engine:      engineCfg,
				Logger:      c.Logger,
			}
			if cmd.Flags().Changed("addr") || srvCfg.Addr == "" {
				srvCfg.Addr = addr
			}
			if cmd.Flags().Changed("max-sessions") {
				srvCfg.MaxSessions = maxSessions
			}

			keyer := c.storeKeyer()
			srv := server.New(srvCfg, store.NewPresets(s, keyer), pipeline.NewRunner(s, keyer, c.Logger))
			printInfo("Listening on %s", StyleHighlight.Render("http://"+srvCfg.Addr))
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "disable the store (no presets, no cached runs)")
	cmd.Flags().IntVar(&maxSessions, "max-sessions", server.DefaultMaxSessions, "maximum number of live sessions")

	return cmd
}
