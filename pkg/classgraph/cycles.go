package classgraph

import (
	"maps"
	"slices"
	"strings"
)

// Cycles returns the dependency cycles among resolved classes: every
// strongly connected component with more than one member. Each cycle is
// sorted by name and the cycles are sorted by their first member.
func (g *Graph) Cycles() [][]string {
	var (
		index   = make(map[string]int)
		low     = make(map[string]int)
		onStack = make(map[string]bool)
		stack   []string
		next    int
		cycles  [][]string
	)

	var visit func(name string)
	visit = func(name string) {
		index[name] = next
		low[name] = next
		next++
		stack = append(stack, name)
		onStack[name] = true

		for _, to := range slices.Sorted(maps.Keys(g.outgoing[name])) {
			if n := g.nodes[to]; n == nil || !n.IsResolved() {
				continue
			}
			if _, seen := index[to]; !seen {
				visit(to)
				low[name] = min(low[name], low[to])
			} else if onStack[to] {
				low[name] = min(low[name], index[to])
			}
		}

		if low[name] != index[name] {
			return
		}
		var scc []string
		for {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[top] = false
			scc = append(scc, top)
			if top == name {
				break
			}
		}
		if len(scc) > 1 {
			slices.Sort(scc)
			cycles = append(cycles, scc)
		}
	}

	for _, c := range g.Classes() {
		if _, seen := index[c.Name]; !seen {
			visit(c.Name)
		}
	}
	slices.SortFunc(cycles, func(a, b []string) int { return strings.Compare(a[0], b[0]) })
	return cycles
}
