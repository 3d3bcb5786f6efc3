package cli

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/modelgraph/pkg/api"
	"github.com/matzehuels/modelgraph/pkg/cache"
	"github.com/matzehuels/modelgraph/pkg/observability"
)

// apiKeyPrefix scopes API cache entries away from CLI entries.
const apiKeyPrefix = "api:"

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
		flags   cacheFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout HTTP API",
		Long: `Serve the layout HTTP API.

Routes:
  POST /v1/layout   lay out models and return visual entities and metrics
  POST /v1/metrics  score the layout stored in a visual model
  GET  /healthz     liveness probe
  GET  /metrics     Prometheus metrics

Results are cached in Redis when --redis-url is set, otherwise in the local
cache directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, timeout, flags)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", api.DefaultAddr, "listen address")
	cmd.Flags().DurationVar(&timeout, "timeout", api.DefaultRequestTimeout, "per-request timeout")
	flags.register(cmd)
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, timeout time.Duration, flags cacheFlags) error {
	logger := loggerFromContext(ctx)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observability.NewPrometheusHooks(reg).Install()
	defer observability.Reset()

	runner, err := c.newRunner(ctx, flags, cache.NewScopedKeyer(nil, apiKeyPrefix))
	if err != nil {
		return err
	}
	defer runner.Close()

	srv := api.NewServer(runner,
		api.WithLogger(logger),
		api.WithTimeout(timeout),
		api.WithGatherer(reg),
	)
	return api.ListenAndServe(ctx, addr, srv.Handler(), logger)
}
