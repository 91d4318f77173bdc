package cli

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/classscan/internal/server"
	"github.com/matzehuels/classscan/internal/watcher"
	"github.com/matzehuels/classscan/pkg/pipeline"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags scanFlags
		addr  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve [classpath...]",
		Short: "Serve the class graph over a read-only HTTP API",
		Long: `Scan the classpath and serve the result as JSON under /api/v1.

Endpoints: summary, snapshot, classes, classes/{name}, classes/{name}/dependencies,
classes/{name}/dependents, cycles, failures, graph.dot. With --watch the served
snapshot is replaced after every rescan.`,
		Example: `  classscan serve target/classes
  classscan serve target/classes --addr :9090 --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			opts, err := flags.options(cmd, args, c.cfg())
			if err != nil {
				return err
			}
			opts.Logger = logger
			if !cmd.Flags().Changed("addr") {
				addr = c.cfg().Serve.Addr
			}

			runner, err := c.newRunner(ctx, flags.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(logger)
			rs := &rescanner{
				runner: runner,
				opts:   opts,
				logger: logger,
				onResult: func(_ context.Context, res *pipeline.Result) {
					srv.Update(res.Snapshot, res.Graph)
					logger.Info("snapshot updated",
						"classes", res.Stats.Classes,
						"edges", res.Stats.Edges,
						"cached", res.CacheHit)
				},
			}
			defer rs.Close()

			if err := rs.rescan(ctx); err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Run(gctx, addr) })
			if watch {
				g.Go(func() error { return rs.watch(gctx, watcher.DefaultDebounce) })
			}
			printInfo("Serving on http://%s/api/v1 (ctrl+c to stop)", addr)
			return g.Wait()
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().BoolVar(&watch, "watch", false, "rescan and update the served snapshot on changes")
	return cmd
}
