package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/classscan/pkg/classgraph"
)

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		flags    scanFlags
		external bool
	)

	cmd := &cobra.Command{
		Use:   "browse [classpath...]",
		Short: "Browse classes and their dependencies interactively",
		Long: `Browse the scanned classes in the terminal.

Select a class to list its dependencies, press tab to switch to its dependents,
and backspace to go back. Press / to filter the list by name.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.runScan(cmd, &flags, args, nil)
			if err != nil {
				return err
			}
			defer res.Close()

			m := newBrowseModel(res.Graph, external)
			if len(m.items) == 0 {
				printInfo("No classes found")
				return nil
			}
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&external, "external", false, "include classes outside the classpath in the top-level list")
	return cmd
}

// List styles
var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	listHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// browseFrame is one level of the navigation history.
type browseFrame struct {
	focus   *classgraph.ClassInfo // nil for the top-level list
	reverse bool
	cursor  int
	offset  int
}

// browseModel is the bubbletea model of `classscan browse`.
type browseModel struct {
	graph *classgraph.Graph
	roots []*classgraph.ClassInfo

	frame   browseFrame
	history []browseFrame
	items   []*classgraph.ClassInfo

	filter    string
	filtering bool
	height    int
}

func newBrowseModel(g *classgraph.Graph, external bool) browseModel {
	roots := g.Classes()
	if external {
		roots = append(roots, g.Externals()...)
	}
	m := browseModel{graph: g, roots: roots, height: 15}
	m.refresh()
	return m
}

// refresh recomputes the visible items from the frame and filter.
func (m *browseModel) refresh() {
	var source []*classgraph.ClassInfo
	switch {
	case m.frame.focus == nil:
		source = m.roots
	case m.frame.reverse:
		source = m.graph.DependentsOf(m.frame.focus)
	default:
		source = m.graph.DependenciesOf(m.frame.focus)
	}

	m.items = m.items[:0:0]
	needle := strings.ToLower(m.filter)
	for _, c := range source {
		if needle == "" || strings.Contains(strings.ToLower(c.Name), needle) {
			m.items = append(m.items, c)
		}
	}
	if m.frame.cursor >= len(m.items) {
		m.frame.cursor = max(0, len(m.items)-1)
	}
	m.clampOffset()
}

func (m *browseModel) clampOffset() {
	if m.frame.cursor < m.frame.offset {
		m.frame.offset = m.frame.cursor
	}
	if m.frame.cursor >= m.frame.offset+m.height {
		m.frame.offset = m.frame.cursor - m.height + 1
	}
	if m.frame.offset < 0 {
		m.frame.offset = 0
	}
}

// current returns the class under the cursor, or nil.
func (m browseModel) current() *classgraph.ClassInfo {
	if m.frame.cursor < len(m.items) {
		return m.items[m.frame.cursor]
	}
	return nil
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg), nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.frame.cursor > 0 {
				m.frame.cursor--
				m.clampOffset()
			}
		case "down", "j":
			if m.frame.cursor < len(m.items)-1 {
				m.frame.cursor++
				m.clampOffset()
			}
		case "enter", "right", "l":
			if c := m.current(); c != nil {
				m.history = append(m.history, m.frame)
				m.frame = browseFrame{focus: c, reverse: m.frame.reverse && m.frame.focus != nil}
				m.filter = ""
				m.refresh()
			}
		case "tab":
			if m.frame.focus != nil {
				m.frame.reverse = !m.frame.reverse
				m.frame.cursor, m.frame.offset = 0, 0
				m.refresh()
			}
		case "backspace", "left", "h", "esc":
			if n := len(m.history); n > 0 {
				m.frame = m.history[n-1]
				m.history = m.history[:n-1]
				m.filter = ""
				m.refresh()
			}
		case "/":
			m.filtering = true
		}
	case tea.WindowSizeMsg:
		m.height = max(5, msg.Height-8)
		m.clampOffset()
	}
	return m, nil
}

func (m browseModel) updateFilter(msg tea.KeyMsg) browseModel {
	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
	case tea.KeyEsc:
		m.filtering = false
		m.filter = ""
	case tea.KeyBackspace:
		if m.filter != "" {
			r := []rune(m.filter)
			m.filter = string(r[:len(r)-1])
		}
	case tea.KeyRunes:
		m.filter += string(msg.Runes)
	default:
		return m
	}
	m.frame.cursor, m.frame.offset = 0, 0
	m.refresh()
	return m
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.title()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ open  tab deps/dependents  ⌫ back  / filter  q quit"))
	b.WriteString("\n")
	if m.filtering || m.filter != "" {
		b.WriteString(StyleHighlight.Render("/" + m.filter))
	}
	b.WriteString("\n")

	if len(m.items) == 0 {
		b.WriteString(listDimStyle.Render("  (none)"))
		return b.String()
	}

	end := min(m.frame.offset+m.height, len(m.items))
	var rows [][]string
	for i := m.frame.offset; i < end; i++ {
		c := m.items[i]
		cursor := "  "
		if i == m.frame.cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, c.Name, c.Kind.String(), m.edgeLabel(c)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Class", "Kind", "Via").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return listHeaderStyle
			}
			idx := m.frame.offset + row
			if idx >= len(m.items) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if m.items[idx].IsExternal() {
				base = base.Foreground(colorDim)
			}
			if idx == m.frame.cursor {
				return base.Foreground(colorGreen).Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.frame.cursor+1, len(m.items))))
	return b.String()
}

func (m browseModel) title() string {
	switch {
	case m.frame.focus == nil:
		return "Classes"
	case m.frame.reverse:
		return "Dependents of " + m.frame.focus.Name
	default:
		return "Dependencies of " + m.frame.focus.Name
	}
}

// edgeLabel names the kinds of the edge between the focus and c.
func (m browseModel) edgeLabel(c *classgraph.ClassInfo) string {
	if m.frame.focus == nil {
		return ""
	}
	var k classgraph.EdgeKind
	if m.frame.reverse {
		k = m.graph.EdgeKinds(c.Name, m.frame.focus.Name)
	} else {
		k = m.graph.EdgeKinds(m.frame.focus.Name, c.Name)
	}
	return strings.Join(k.Names(), ", ")
}
