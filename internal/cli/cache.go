package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/classscan/pkg/cache"
	"github.com/matzehuels/classscan/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the snapshot cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			backend := c.cfg().Cache.Backend
			if backend == config.BackendNone {
				printInfo("Cache is disabled")
				return nil
			}

			ch, err := c.newCache(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer ch.Close()

			clearer, ok := ch.(cache.Clearer)
			if !ok {
				return fmt.Errorf("%s cache cannot be cleared", backend)
			}
			spinner := newSpinnerWithContext(cmd.Context(), "Clearing cache...")
			spinner.Start()
			if err := clearer.Clear(cmd.Context()); err != nil {
				spinner.StopWithError("Could not clear the cache")
				return fmt.Errorf("clear cache: %w", err)
			}
			spinner.StopWithSuccess(fmt.Sprintf("Cleared %s cache", backend))
			if backend == config.BackendFile {
				printDetail("Directory: %s", c.cacheDir())
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			printLine("%s", c.cacheDir())
			return nil
		},
	}
}
