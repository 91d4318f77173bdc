package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/classscan/pkg/classgraph"
	errs "github.com/matzehuels/classscan/pkg/errors"
	pkgio "github.com/matzehuels/classscan/pkg/io"
)

// maxSuggestions caps the "did you mean" list for unknown classes.
const maxSuggestions = 5

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var flags scanFlags

	cmd := &cobra.Command{
		Use:   "inspect <class> [classpath...]",
		Short: "Show a class with its members and annotations",
		Example: `  classscan inspect com.example.Service target/classes
  classscan inspect 'com.example.Outer$Inner' -c app.jar`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := errs.ValidateClassName(name); err != nil {
				return err
			}
			res, err := c.runScan(cmd, &flags, args[1:], nil)
			if err != nil {
				return err
			}
			defer res.Close()

			info, err := lookupClass(res.Graph, name)
			if err != nil {
				return err
			}
			printClass(res.Graph, info, findClass(res.Snapshot, name))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// lookupClass returns the named node or a NOT_FOUND error with close
// matches.
func lookupClass(g *classgraph.Graph, name string) (*classgraph.ClassInfo, error) {
	if info := g.Get(name); info != nil {
		return info, nil
	}
	if s := suggest(g, name); len(s) > 0 {
		return nil, errs.New(errs.ErrCodeNotFound, "class %s not found (did you mean %s?)", name, strings.Join(s, ", "))
	}
	return nil, errs.New(errs.ErrCodeNotFound, "class %s not found", name)
}

// suggest lists class names whose simple name matches the last segment of
// name, then names containing it.
func suggest(g *classgraph.Graph, name string) []string {
	simple := name[strings.LastIndexAny(name, ".$")+1:]
	lower := strings.ToLower(simple)
	var exact, partial []string
	for _, c := range g.Classes() {
		switch sn := strings.ToLower(c.SimpleName()); {
		case sn == lower:
			exact = append(exact, c.Name)
		case strings.Contains(sn, lower):
			partial = append(partial, c.Name)
		}
	}
	out := append(exact, partial...)
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// findClass returns the snapshot entry for name, or nil.
func findClass(snap *pkgio.Snapshot, name string) *pkgio.Class {
	for i := range snap.Classes {
		if snap.Classes[i].Name == name {
			return &snap.Classes[i]
		}
	}
	return nil
}

func printClass(g *classgraph.Graph, info *classgraph.ClassInfo, sc *pkgio.Class) {
	printLine("%s", StyleTitle.Render(info.Name))
	printKeyValue("kind", info.Kind.String())
	printKeyValue("state", info.State.String())
	if sc == nil || info.IsExternal() {
		printDependencyCounts(g, info)
		return
	}

	printKeyValue("modifiers", orDash(sc.Modifiers))
	printKeyValue("superclass", orDash(sc.Superclass))
	printKeyValue("interfaces", orDash(strings.Join(sc.Interfaces, ", ")))
	if sc.OuterClass != "" {
		printKeyValue("outer", sc.OuterClass)
	}
	if sc.Signature != "" {
		printKeyValue("signature", sc.Signature)
	}
	if sc.Element != "" {
		printKeyValue("element", sc.Element)
	}
	if sc.Resource != "" {
		printKeyValue("resource", sc.Resource)
	}
	if sc.SourceFile != "" {
		printKeyValue("source", sc.SourceFile)
	}
	if sc.MajorVersion != 0 {
		printKeyValue("version", strconv.Itoa(int(sc.MajorVersion)))
	}
	printDependencyCounts(g, info)

	if len(sc.Annotations) > 0 {
		printNewline()
		printLine("%s", StyleTitle.Render("Annotations"))
		for _, a := range sc.Annotations {
			printDetail("%s", a.Text)
		}
	}
	if len(sc.Fields) > 0 {
		printNewline()
		printLine("%s", StyleTitle.Render("Fields"))
		printTable([]string{"Name", "Type", "Annotations"}, memberRows(sc.Fields))
	}
	if len(sc.Methods) > 0 {
		printNewline()
		printLine("%s", StyleTitle.Render("Methods"))
		printTable([]string{"Name", "Signature", "Annotations"}, memberRows(sc.Methods))
	}
}

func printDependencyCounts(g *classgraph.Graph, info *classgraph.ClassInfo) {
	printKeyValue("depends on", strconv.Itoa(len(g.DependenciesOf(info))))
	printKeyValue("used by", strconv.Itoa(len(g.DependentsOf(info))))
}

func memberRows(members []pkgio.Member) [][]string {
	rows := make([][]string, 0, len(members))
	for _, m := range members {
		typ := m.Type
		if typ == "" {
			typ = m.Descriptor
		}
		var anns []string
		for _, a := range m.Annotations {
			anns = append(anns, "@"+a.Type)
		}
		rows = append(rows, []string{m.Name, typ, orDash(strings.Join(anns, " "))})
	}
	return rows
}
