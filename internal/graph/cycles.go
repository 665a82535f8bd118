package graph

import (
	"fmt"
	"strings"

	"github.com/vk/flowgridgo/internal/dag"
)

// pureValue reports whether o only computes values. Reading such a node
// reads its inputs, so a dependency cycle between them never terminates.
func pureValue(o *NodeObject) bool {
	return o.node != nil && o.state == Registered &&
		o.FlowInputs.Len() == 0 && o.ValueOutputs.Len() > 0
}

// valueDependencies builds the dependency graph between pure value nodes.
func (g *Graph) valueDependencies() *dag.Graph {
	d := dag.New()
	for _, o := range g.objects {
		if pureValue(o) {
			d.AddNode(o.StableID)
		}
	}
	for _, o := range g.objects {
		if !pureValue(o) {
			continue
		}
		for _, in := range o.ValueInputs.All() {
			for _, out := range in.Connections() {
				if src := out.Owner(); src != nil && pureValue(src) {
					// Both ends are known nodes of distinct objects.
					_ = d.AddEdge(src.StableID, o.StableID)
				}
			}
		}
	}
	return d
}

func (g *Graph) checkValueCycles(r *Report) {
	cycle := g.valueDependencies().Cycle()
	if cycle == nil {
		return
	}
	o, _ := g.Object(cycle[0])
	path := strings.Join(append(cycle, cycle[0]), " -> ")
	r.Error(o, "Value cycle", fmt.Sprintf("The value depends on itself: %s.", path))
}
