package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/classscan/pkg/pipeline"
)

// maxFailuresShown caps the failures listed by `scan` without --failures.
const maxFailuresShown = 10

// scanCommand creates the scan command.
func (c *CLI) scanCommand() *cobra.Command {
	var (
		flags        scanFlags
		showFailures bool
	)

	cmd := &cobra.Command{
		Use:   "scan [classpath...]",
		Short: "Scan a classpath and print a summary",
		Long: `Scan directories and jar files for classfiles and link them into a class graph.

Results are cached by classpath fingerprint; an unchanged classpath is served
from the cache. Use --refresh to rescan anyway.`,
		Example: `  classscan scan target/classes
  classscan scan -c target/classes:lib/guava.jar --accept com.example
  classscan scan --pom pom.xml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.runScan(cmd, &flags, args, nil)
			if err != nil {
				return err
			}
			defer res.Close()

			printScanResult(res, showFailures)
			printNewline()
			printNextStep("Export the graph", strings.TrimSpace("classscan export -f svg -o classes.svg "+strings.Join(args, " ")))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&showFailures, "failures", false, "list every failed class")
	return cmd
}

// runScan resolves options and runs the pipeline behind a spinner.
func (c *CLI) runScan(cmd *cobra.Command, flags *scanFlags, args []string, formats []string) (*pipeline.Result, error) {
	ctx := cmd.Context()
	opts, err := flags.options(cmd, args, c.cfg())
	if err != nil {
		return nil, err
	}
	opts.Formats = formats
	opts.Logger = loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	return c.execute(ctx, runner, opts)
}

func (c *CLI) execute(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Scanning %d classpath elements...", len(opts.Scan.Classpath)))
	spinner.Start()
	res, err := runner.Execute(withSpinner(ctx, spinner), opts)
	spinner.Stop()
	if err != nil {
		return nil, err
	}
	if res.Cancelled() {
		res.Close()
		return nil, context.Canceled
	}
	return res, nil
}

// printScanResult prints the outcome of a pipeline run.
func printScanResult(res *pipeline.Result, allFailures bool) {
	printSuccess("Scanned %s", StyleHighlight.Render(res.Key[:min(12, len(res.Key))]))
	printStats(scanStats{
		Classes:   res.Stats.Classes,
		Externals: res.Stats.Externals,
		Edges:     res.Stats.Edges,
		Failures:  res.Stats.Failures,
		Elapsed:   res.Stats.ScanTime,
		Cached:    res.CacheHit,
	})
	if !res.Snapshot.Dependencies {
		printDetail("dependency tracking disabled")
	}

	failures := res.Snapshot.Failures
	if len(failures) == 0 {
		return
	}
	printNewline()
	printWarning("%d classes failed to load", len(failures))
	shown := failures
	if !allFailures && len(shown) > maxFailuresShown {
		shown = shown[:maxFailuresShown]
	}
	for _, f := range shown {
		printDetail("%s: %s", f.Resource, f.Error)
	}
	if len(shown) < len(failures) {
		printDetail("... %d more (use --failures)", len(failures)-len(shown))
	}
}

// isCancelled reports whether err means the user interrupted the command.
func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
