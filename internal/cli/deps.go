package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/classscan/pkg/classgraph"
	errs "github.com/matzehuels/classscan/pkg/errors"
	"github.com/matzehuels/classscan/pkg/pipeline"
)

// depsCommand creates the deps command.
func (c *CLI) depsCommand() *cobra.Command {
	var (
		flags   scanFlags
		reverse bool
		kinds   []string
	)

	cmd := &cobra.Command{
		Use:   "deps <class> [classpath...]",
		Short: "List the direct dependencies of a class",
		Long: `List the classes a class directly depends on, with the kinds of reference
that produced each dependency. With --reverse, list the classes that depend on it.

Kinds: superclass, interface, field, method-param, method-return, method-throws,
annotation, annotation-param, type-bound, constant-pool.`,
		Example: `  classscan deps com.example.Service target/classes
  classscan deps com.example.Repo target/classes --reverse --kinds field,method-param`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := errs.ValidateClassName(name); err != nil {
				return err
			}
			mask, err := parseKinds(kinds)
			if err != nil {
				return err
			}
			res, err := c.runScan(cmd, &flags, args[1:], nil)
			if err != nil {
				return err
			}
			defer res.Close()
			if err := requireDependencies(res); err != nil {
				return err
			}

			info, err := lookupClass(res.Graph, name)
			if err != nil {
				return err
			}
			rows := dependencyRows(res.Graph, info, reverse, mask)
			if len(rows) == 0 {
				printInfo("No dependencies")
				return nil
			}
			printTable([]string{"Class", "Kinds", "State"}, rows)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&reverse, "reverse", "r", false, "list dependents instead of dependencies")
	cmd.Flags().StringSliceVar(&kinds, "kinds", nil, "only edges of these kinds")
	return cmd
}

// requireDependencies fails commands that need the dependency view when
// the scan ran with --no-deps.
func requireDependencies(res *pipeline.Result) error {
	if res.Snapshot.Dependencies {
		return nil
	}
	return errs.New(errs.ErrCodeInvalidInput, "dependency tracking was disabled for this scan; rerun without --no-deps")
}

// parseKinds turns kind names into a mask. No names means every kind.
func parseKinds(names []string) (classgraph.EdgeKind, error) {
	var mask classgraph.EdgeKind
	for _, n := range names {
		n = strings.TrimSpace(n)
		k := classgraph.ParseEdgeKind(n)
		if k == 0 {
			return 0, errs.New(errs.ErrCodeInvalidInput, "unknown dependency kind %q", n)
		}
		mask |= k
	}
	return mask, nil
}

func dependencyRows(g *classgraph.Graph, info *classgraph.ClassInfo, reverse bool, mask classgraph.EdgeKind) [][]string {
	adj := g.DependenciesOf(info)
	if reverse {
		adj = g.DependentsOf(info)
	}
	var rows [][]string
	for _, other := range adj {
		kinds := g.EdgeKinds(info.Name, other.Name)
		if reverse {
			kinds = g.EdgeKinds(other.Name, info.Name)
		}
		if mask != 0 {
			kinds &= mask
		}
		if kinds == 0 {
			continue
		}
		rows = append(rows, []string{other.Name, strings.Join(kinds.Names(), ", "), other.State.String()})
	}
	return rows
}
