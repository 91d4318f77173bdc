package cli

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/classscan/internal/watcher"
	"github.com/matzehuels/classscan/pkg/pipeline"
)

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		flags    scanFlags
		debounce time.Duration
		sqlite   string
	)

	cmd := &cobra.Command{
		Use:   "watch [classpath...]",
		Short: "Rescan whenever classfiles or archives change",
		Long: `Scan the classpath, then watch its directories and archives and rescan after
every burst of changes. With --sqlite, the database is rewritten after each scan.`,
		Example: `  classscan watch target/classes
  classscan watch target/classes --sqlite classes.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			opts, err := flags.options(cmd, args, c.cfg())
			if err != nil {
				return err
			}
			opts.Logger = logger

			runner, err := c.newRunner(ctx, flags.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			rs := &rescanner{
				runner: runner,
				opts:   opts,
				logger: logger,
				onResult: func(ctx context.Context, res *pipeline.Result) {
					printScanResult(res, false)
					if sqlite == "" {
						return
					}
					if err := exportSQLite(ctx, res.Snapshot, sqlite); err != nil {
						logger.Error("sqlite export failed", "path", sqlite, "err", err)
						return
					}
					printDetail("updated %s", sqlite)
				},
			}
			defer rs.Close()

			if err := rs.rescan(ctx); err != nil {
				return err
			}
			printInfo("Watching %d classpath elements (ctrl+c to stop)", len(opts.Scan.Classpath))
			return rs.watch(ctx, debounce)
		},
	}

	flags.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "quiet period before a rescan")
	cmd.Flags().StringVar(&sqlite, "sqlite", "", "keep a SQLite export up to date")
	return cmd
}

// rescanner reruns the pipeline for watch and serve --watch. It owns the
// latest result and closes the previous one when a new one arrives.
type rescanner struct {
	runner   *pipeline.Runner
	opts     pipeline.Options
	logger   *log.Logger
	onResult func(context.Context, *pipeline.Result)

	mu      sync.Mutex
	current *pipeline.Result
}

// rescan runs the pipeline once. Cancelled scans are discarded.
func (r *rescanner) rescan(ctx context.Context) error {
	res, err := r.runner.Execute(ctx, r.opts)
	if err != nil {
		return err
	}
	if res.Cancelled() {
		res.Close()
		return ctx.Err()
	}

	r.mu.Lock()
	prev := r.current
	r.current = res
	r.mu.Unlock()

	if r.onResult != nil {
		r.onResult(ctx, res)
	}
	if prev != nil {
		prev.Close()
	}
	return nil
}

// watch rescans after every change until ctx is done.
func (r *rescanner) watch(ctx context.Context, debounce time.Duration) error {
	w, err := watcher.New(r.opts.Scan.Classpath,
		watcher.WithDebounce(debounce),
		watcher.WithOnChange(func(ctx context.Context, files []string) {
			r.logger.Info("classpath changed", "files", len(files))
			if err := r.rescan(ctx); err != nil && !isCancelled(err) {
				r.logger.Error("rescan failed", "err", err)
			}
		}),
		watcher.WithOnError(func(err error) {
			r.logger.Warn("watch error", "err", err)
		}),
	)
	if err != nil {
		return err
	}
	defer w.Close()
	return w.Run(ctx)
}

// Close releases the latest result.
func (r *rescanner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil
	}
	err := r.current.Close()
	r.current = nil
	return err
}
