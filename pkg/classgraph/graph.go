package classgraph

import (
	"errors"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrInvalidName is returned by [Graph.AddOrMerge] and [Graph.AddEdge]
	// when a class name is empty.
	ErrInvalidName = errors.New("class name must not be empty")

	// ErrUnknownSource is returned by [Graph.AddEdge] when the From node does
	// not exist. Targets are created as placeholders on demand; sources never are.
	ErrUnknownSource = errors.New("unknown source class")

	// ErrFinalized is returned by mutating operations after [Graph.Finalize].
	ErrFinalized = errors.New("graph is finalized")
)

// Graph holds the class nodes and dependency edges of one scan.
//
// Nodes are keyed by class name. Edges form a set: each (from, to) pair is
// stored once with the union of its kinds, so the edge set does not depend
// on the order in which records are merged.
//
// The zero value is not usable; use [NewGraph]. A Graph is not safe for
// concurrent mutation. After [Graph.Finalize] it is read-only and may be
// read from multiple goroutines.
type Graph struct {
	nodes     map[string]*ClassInfo
	outgoing  map[string]map[string]EdgeKind // from -> to -> kinds
	incoming  map[string]map[string]EdgeKind // to -> from -> kinds
	loader    Loader
	finalized bool
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]*ClassInfo),
		outgoing: make(map[string]map[string]EdgeKind),
		incoming: make(map[string]map[string]EdgeKind),
	}
}

// AddOrMerge absorbs a record. A missing node is created; a placeholder is
// upgraded in place so pointers taken earlier stay valid. Merging a record
// for a class that is already resolved replaces the node's metadata and
// outgoing edges, which makes merging the same record twice a no-op.
// Placeholders referenced only by the replaced edges are removed.
//
// When a different unit already defined the class, the unit with the lower
// Order is kept and the other is reported as a [*DuplicateClassError].
func (g *Graph) AddOrMerge(rec *Record) (*ClassInfo, error) {
	if g.finalized {
		return nil, ErrFinalized
	}
	name := rec.Class.Name
	if name == "" {
		return nil, ErrInvalidName
	}

	var dup error
	node, exists := g.nodes[name]
	if exists && node.IsResolved() && node.order != rec.Order {
		if node.order < rec.Order {
			return node, &DuplicateClassError{Name: name, Kept: node.Resource, Dropped: rec.Class.Resource, DroppedOrder: rec.Order}
		}
		dup = &DuplicateClassError{Name: name, Kept: rec.Class.Resource, Dropped: node.Resource, DroppedOrder: node.order}
	}

	if exists {
		*node = *rec.Class
	} else {
		node = rec.Class
		g.nodes[name] = node
	}
	node.State = StateResolved
	node.order = rec.Order
	node.g = g
	rec.Class = node
	rec.bind.g = g

	stale := g.clearOutgoing(name)
	for _, ref := range rec.Refs {
		g.addEdge(name, ref.Name, ref.Kinds)
	}
	g.dropOrphans(stale)
	return node, dup
}

// Placeholder returns the node for name, creating a placeholder when the
// class has not been seen.
func (g *Graph) Placeholder(name string) *ClassInfo {
	if n, ok := g.nodes[name]; ok {
		return n
	}
	n := &ClassInfo{Name: name, State: StatePlaceholder, g: g}
	g.nodes[name] = n
	return n
}

// AddEdge records that from depends on to. The target is created as a
// placeholder when missing. Adding an existing edge only adds kinds, and
// self-edges are ignored.
func (g *Graph) AddEdge(from, to string, kind EdgeKind) error {
	if g.finalized {
		return ErrFinalized
	}
	if from == "" || to == "" {
		return ErrInvalidName
	}
	if _, ok := g.nodes[from]; !ok {
		return ErrUnknownSource
	}
	g.addEdge(from, to, kind)
	return nil
}

func (g *Graph) addEdge(from, to string, kind EdgeKind) {
	if from == to {
		return
	}
	g.Placeholder(to)
	if g.outgoing[from] == nil {
		g.outgoing[from] = make(map[string]EdgeKind)
	}
	if g.incoming[to] == nil {
		g.incoming[to] = make(map[string]EdgeKind)
	}
	g.outgoing[from][to] |= kind
	g.incoming[to][from] |= kind
}

// clearOutgoing removes the outgoing edges of name and returns the former
// targets.
func (g *Graph) clearOutgoing(name string) []string {
	targets := slices.Collect(maps.Keys(g.outgoing[name]))
	for _, to := range targets {
		delete(g.incoming[to], name)
		if len(g.incoming[to]) == 0 {
			delete(g.incoming, to)
		}
	}
	delete(g.outgoing, name)
	return targets
}

// Demote rolls a merged class back out of the graph: its outgoing edges
// are removed, and the node either reverts to a placeholder (when other
// classes still reference it) or is deleted. Placeholders that were only
// referenced by the demoted class are deleted as well.
func (g *Graph) Demote(name string) {
	node, ok := g.nodes[name]
	if !ok || g.finalized {
		return
	}
	targets := g.clearOutgoing(name)
	if len(g.incoming[name]) > 0 {
		*node = ClassInfo{Name: name, State: StatePlaceholder, g: g}
	} else {
		delete(g.nodes, name)
	}
	g.dropOrphans(targets)
}

// dropOrphans deletes the placeholders among names that nothing references
// any more, so replaced or demoted records leave no trace.
func (g *Graph) dropOrphans(names []string) {
	for _, t := range names {
		if n := g.nodes[t]; n != nil && n.State == StatePlaceholder && len(g.incoming[t]) == 0 {
			delete(g.nodes, t)
		}
	}
}

// Finalize ends merging. Remaining placeholders become external nodes, and
// every lazy reference of the merged records becomes resolvable through
// this graph. The loader backs explicit load operations and may be nil.
func (g *Graph) Finalize(loader Loader) {
	for _, n := range g.nodes {
		if n.State == StatePlaceholder {
			n.State = StateExternal
		}
	}
	g.loader = loader
	g.finalized = true
}

// Finalized reports whether Finalize has been called.
func (g *Graph) Finalized() bool { return g.finalized }

// Get returns the node for name, or nil. External nodes are returned too;
// use [ClassInfo.IsExternal] to tell them apart.
func (g *Graph) Get(name string) *ClassInfo { return g.nodes[name] }

// Len returns the number of nodes, including external ones.
func (g *Graph) Len() int { return len(g.nodes) }

// Classes returns the resolved nodes sorted by name.
func (g *Graph) Classes() []*ClassInfo {
	return g.collect(func(c *ClassInfo) bool { return c.IsResolved() })
}

// Externals returns the nodes that are not resolved, sorted by name.
func (g *Graph) Externals() []*ClassInfo {
	return g.collect(func(c *ClassInfo) bool { return !c.IsResolved() })
}

func (g *Graph) collect(keep func(*ClassInfo) bool) []*ClassInfo {
	var out []*ClassInfo
	for _, n := range g.nodes {
		if keep(n) {
			out = append(out, n)
		}
	}
	sortByName(out)
	return out
}

// DependenciesOf returns the classes c directly depends on, sorted by name.
// A class without dependencies yields an empty slice.
func (g *Graph) DependenciesOf(c *ClassInfo) []*ClassInfo {
	return g.adjacent(g.outgoing[c.Name])
}

// DependentsOf returns the classes that directly depend on c, sorted by name.
func (g *Graph) DependentsOf(c *ClassInfo) []*ClassInfo {
	return g.adjacent(g.incoming[c.Name])
}

func (g *Graph) adjacent(m map[string]EdgeKind) []*ClassInfo {
	out := make([]*ClassInfo, 0, len(m))
	for name := range m {
		if n := g.nodes[name]; n != nil {
			out = append(out, n)
		}
	}
	sortByName(out)
	return out
}

// EdgeKinds returns the kinds of the edge from -> to, or 0 when there is none.
func (g *Graph) EdgeKinds(from, to string) EdgeKind { return g.outgoing[from][to] }

// Edges returns all edges sorted by source, then target.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for from, targets := range g.outgoing {
		for to, kinds := range targets {
			out = append(out, Edge{From: from, To: to, Kinds: kinds})
		}
	}
	slices.SortFunc(out, func(a, b Edge) int {
		if c := strings.Compare(a.From, b.From); c != 0 {
			return c
		}
		return strings.Compare(a.To, b.To)
	})
	return out
}

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, targets := range g.outgoing {
		n += len(targets)
	}
	return n
}

// DependencyMap builds the dependency view of the graph: every resolved
// class mapped to the classes it depends on. Targets include external
// classes.
func (g *Graph) DependencyMap() *DependencyMap {
	m := &DependencyMap{deps: make(map[*ClassInfo][]*ClassInfo)}
	for _, c := range g.Classes() {
		m.keys = append(m.keys, c)
		m.deps[c] = g.DependenciesOf(c)
	}
	return m
}

// DependencyMap is a read-only view from classes to their direct
// dependencies. Iteration order is by class name.
type DependencyMap struct {
	keys []*ClassInfo
	deps map[*ClassInfo][]*ClassInfo
}

// Classes returns the keys sorted by name.
func (m *DependencyMap) Classes() []*ClassInfo { return slices.Clone(m.keys) }

// Len returns the number of keys.
func (m *DependencyMap) Len() int { return len(m.keys) }

// Get returns the dependencies of c; nil when c is not a key.
func (m *DependencyMap) Get(c *ClassInfo) []*ClassInfo { return m.deps[c] }

// Lookup returns the dependencies of the class with the given name and
// whether the class is a key.
func (m *DependencyMap) Lookup(name string) ([]*ClassInfo, bool) {
	i, ok := slices.BinarySearchFunc(m.keys, name, func(c *ClassInfo, n string) int {
		return strings.Compare(c.Name, n)
	})
	if !ok {
		return nil, false
	}
	return m.deps[m.keys[i]], true
}

// Contains reports whether from depends on to.
func (m *DependencyMap) Contains(from, to string) bool {
	deps, _ := m.Lookup(from)
	for _, d := range deps {
		if d.Name == to {
			return true
		}
	}
	return false
}

// Names returns the map with class names as keys and values, for
// serialization and comparison.
func (m *DependencyMap) Names() map[string][]string {
	out := make(map[string][]string, len(m.keys))
	for _, k := range m.keys {
		deps := m.deps[k]
		names := make([]string, len(deps))
		for i, d := range deps {
			names[i] = d.Name
		}
		out[k.Name] = names
	}
	return out
}

func sortByName(nodes []*ClassInfo) {
	slices.SortFunc(nodes, func(a, b *ClassInfo) int { return strings.Compare(a.Name, b.Name) })
}
