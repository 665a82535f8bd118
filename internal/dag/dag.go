package dag

import (
	"fmt"
	"slices"
	"strings"
)

// New creates an empty Graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*node)}
}

// AddNode adds a node. Adding an existing id does nothing.
func (g *Graph) AddNode(id string) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	n := &node{id: id, deps: make(map[string]*node)}
	g.nodes[id] = n
	g.order = append(g.order, n)
}

// AddEdge records that toID depends on fromID. Both nodes must exist and
// must differ. Adding an edge twice is a no-op.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}
	from, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	to, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}
	if _, ok := to.deps[fromID]; ok {
		return nil
	}
	to.deps[fromID] = from
	from.dependents = append(from.dependents, to)
	return nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// Dependencies returns the sorted ids the given node depends on.
func (g *Graph) Dependencies(id string) ([]string, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	deps := make([]string, 0, len(n.deps))
	for depID := range n.deps {
		deps = append(deps, depID)
	}
	slices.Sort(deps)
	return deps, nil
}

// Dependents returns the sorted ids depending on the given node.
func (g *Graph) Dependents(id string) ([]string, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	out := make([]string, 0, len(n.dependents))
	for _, d := range n.dependents {
		out = append(out, d.id)
	}
	slices.Sort(out)
	return out, nil
}

// Cycle returns the ids along the first cycle found, in edge order and
// starting at the node where the search re-entered, or nil.
func (g *Graph) Cycle() []string {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[*node]int, len(g.order))
	var stack []*node

	var visit func(n *node) []string
	visit = func(n *node) []string {
		switch state[n] {
		case done:
			return nil
		case active:
			i := slices.Index(stack, n)
			cycle := make([]string, 0, len(stack)-i)
			for _, s := range stack[i:] {
				cycle = append(cycle, s.id)
			}
			return cycle
		}
		state[n] = active
		stack = append(stack, n)
		for _, d := range n.dependents {
			if c := visit(d); c != nil {
				return c
			}
		}
		stack = stack[:len(stack)-1]
		state[n] = done
		return nil
	}

	for _, n := range g.order {
		if c := visit(n); c != nil {
			return c
		}
	}
	return nil
}

// DetectCycles returns an error naming the first cycle found.
func (g *Graph) DetectCycles() error {
	c := g.Cycle()
	if c == nil {
		return nil
	}
	return fmt.Errorf("cycle detected: %s -> %s", strings.Join(c, " -> "), c[0])
}
