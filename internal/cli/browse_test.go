package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/classscan/pkg/classgraph"
)

func browseGraph(t *testing.T) *classgraph.Graph {
	t.Helper()
	g := classgraph.NewGraph()
	add := func(name string, order int, refs ...classgraph.Reference) {
		info := &classgraph.ClassInfo{Name: name, Kind: classgraph.KindClass}
		if _, err := g.AddOrMerge(classgraph.NewRecord(info, refs, order)); err != nil {
			t.Fatal(err)
		}
	}
	add("com.example.Base", 0)
	add("com.example.Repo", 1,
		classgraph.Reference{Name: "java.util.List", Kinds: classgraph.EdgeField},
	)
	add("com.example.Service", 2,
		classgraph.Reference{Name: "com.example.Base", Kinds: classgraph.EdgeSuperclass},
		classgraph.Reference{Name: "com.example.Repo", Kinds: classgraph.EdgeField},
	)
	g.Finalize(nil)
	return g
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m browseModel, keys ...string) browseModel {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(browseModel)
	}
	return m
}

func names(items []*classgraph.ClassInfo) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.Name
	}
	return out
}

func TestBrowseModel_Navigation(t *testing.T) {
	m := newBrowseModel(browseGraph(t), false)
	if got := len(m.items); got != 3 {
		t.Fatalf("top-level items = %v", names(m.items))
	}

	// Service is the third class; open it.
	m = press(m, "j", "j", "enter")
	if m.frame.focus == nil || m.frame.focus.Name != "com.example.Service" {
		t.Fatalf("focus = %v", m.frame.focus)
	}
	if got := strings.Join(names(m.items), ","); got != "com.example.Base,com.example.Repo" {
		t.Errorf("dependencies = %s", got)
	}
	if !strings.Contains(m.View(), "superclass") {
		t.Error("view should show edge kinds")
	}

	// Open Base, then switch to its dependents.
	m = press(m, "enter", "tab")
	if !m.frame.reverse {
		t.Fatal("tab should switch to dependents")
	}
	if got := strings.Join(names(m.items), ","); got != "com.example.Service" {
		t.Errorf("dependents of Base = %s", got)
	}
	if !strings.HasPrefix(m.title(), "Dependents of com.example.Base") {
		t.Errorf("title = %q", m.title())
	}

	// Back twice returns to the top-level list with the cursor restored.
	m = press(m, "backspace", "backspace")
	if m.frame.focus != nil || m.frame.cursor != 2 {
		t.Errorf("after back: focus=%v cursor=%d", m.frame.focus, m.frame.cursor)
	}
	if len(m.history) != 0 {
		t.Errorf("history = %d", len(m.history))
	}
}

func TestBrowseModel_CursorBounds(t *testing.T) {
	m := newBrowseModel(browseGraph(t), false)
	m = press(m, "k")
	if m.frame.cursor != 0 {
		t.Errorf("cursor moved above the first item: %d", m.frame.cursor)
	}
	m = press(m, "j", "j", "j", "j")
	if m.frame.cursor != 2 {
		t.Errorf("cursor moved past the last item: %d", m.frame.cursor)
	}
}

func TestBrowseModel_Filter(t *testing.T) {
	m := newBrowseModel(browseGraph(t), false)
	m = press(m, "/", "r", "e", "p", "o")
	if got := strings.Join(names(m.items), ","); got != "com.example.Repo" {
		t.Errorf("filtered = %s", got)
	}
	if !m.filtering {
		t.Error("still typing the filter")
	}

	m = press(m, "backspace", "backspace", "backspace", "backspace")
	if len(m.items) != 3 {
		t.Errorf("cleared filter items = %v", names(m.items))
	}

	m = press(m, "s", "enter")
	if m.filtering || m.filter != "s" {
		t.Errorf("enter should keep the filter: filtering=%v filter=%q", m.filtering, m.filter)
	}
	// "q" quits only outside filter mode.
	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Error("q should quit")
	}
}

func TestBrowseModel_External(t *testing.T) {
	g := browseGraph(t)
	without := newBrowseModel(g, false)
	with := newBrowseModel(g, true)
	if len(with.items) <= len(without.items) {
		t.Errorf("external classes not listed: %d vs %d", len(with.items), len(without.items))
	}
}

func TestBrowseModel_EmptyView(t *testing.T) {
	m := newBrowseModel(classgraph.NewGraph(), false)
	if !strings.Contains(m.View(), "(none)") {
		t.Errorf("view = %q", m.View())
	}
}
