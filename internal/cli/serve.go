package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/polytunnel/polytunnel/internal/server"
	"github.com/polytunnel/polytunnel/pkg/cache"
	"github.com/polytunnel/polytunnel/pkg/observability"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API: POST /resolve, GET /search, GET /versions/{group}/{artifact}
and GET /metrics. Rendered resolutions are cached in the configured cache backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			s, err := c.newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			if addr != "" {
				s.cfg.Server.Addr = addr
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			observability.NewPrometheus(reg).Register()
			defer observability.Reset()

			srv := server.New(server.Options{
				Resolver: s.resolver(logger),
				Index:    s.client,
				Cache:    s.cache,
				Keyer:    cache.NewPrefixKeyer(nil, appName+":serve:"),
				KeyOpts: cache.ResolveKeyOpts{
					Repositories:   s.cfg.RepositoryURLs(),
					MaxDepth:       s.cfg.Resolver.MaxDepth,
					MaxParentDepth: s.cfg.Resolver.MaxParentDepth,
				},
				Gatherer: reg,
				Logger:   logger,
			})

			printInfo("Serving on %s", StyleHighlight.Render(s.cfg.Server.Addr))
			err = srv.ListenAndServe(ctx, s.cfg.Server.Addr)
			if ctx.Err() != nil {
				printInfo("Shut down")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides [server] addr)")
	return cmd
}
