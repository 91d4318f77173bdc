package cli

import (
	"errors"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// errCyclesFound is returned by `cycles --fail` when the graph has cycles.
var errCyclesFound = errors.New("dependency cycles found")

// cyclesCommand creates the cycles command.
func (c *CLI) cyclesCommand() *cobra.Command {
	var (
		flags scanFlags
		fail  bool
	)

	cmd := &cobra.Command{
		Use:   "cycles [classpath...]",
		Short: "Report dependency cycles between scanned classes",
		Example: `  classscan cycles target/classes
  classscan cycles target/classes --accept com.example --fail`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.runScan(cmd, &flags, args, nil)
			if err != nil {
				return err
			}
			defer res.Close()
			if err := requireDependencies(res); err != nil {
				return err
			}

			cycles := res.Graph.Cycles()
			if len(cycles) == 0 {
				printSuccess("No dependency cycles")
				return nil
			}
			printWarning("%d dependency cycles", len(cycles))
			for i, cycle := range cycles {
				printLine("  %s %s", StyleNumber.Render(strconv.Itoa(i+1)+"."), strings.Join(cycle, StyleDim.Render(" ↔ ")))
			}
			if fail {
				return errCyclesFound
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&fail, "fail", false, "exit non-zero when cycles exist")
	return cmd
}
