// Package flow provides the control-flow nodes: branches, loops, sequences,
// jumps and waits.
package flow

import (
	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the node types with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Type{
		Name:        "flow.if",
		New:         func() graph.Node { return &If{} },
		Description: "Runs the true or the false branch, then exit.",
	})
	r.Register(&registry.Type{
		Name:        "flow.for",
		New:         func() graph.Node { return &For{} },
		Description: "Counted loop over [from, to).",
	})
	r.Register(&registry.Type{
		Name:        "flow.foreach",
		New:         func() graph.Node { return &ForEach{} },
		Description: "Runs body once per collection element.",
	})
	r.Register(&registry.Type{
		Name:        "flow.sequence",
		New:         func() graph.Node { return &Sequence{Steps: 2} },
		Description: "Runs each step in order, then exit.",
	})
	r.Register(&registry.Type{
		Name:        "flow.break",
		New:         func() graph.Node { return &Break{} },
		Description: "Leaves the innermost loop.",
	})
	r.Register(&registry.Type{
		Name:        "flow.continue",
		New:         func() graph.Node { return &Continue{} },
		Description: "Skips to the next iteration of the innermost loop.",
	})
	r.Register(&registry.Type{
		Name:        "flow.return",
		New:         func() graph.Node { return &Return{} },
		Description: "Ends the current event with an optional value.",
	})
	r.Register(&registry.Type{
		Name:        "flow.wait",
		New:         func() graph.Node { return &Wait{} },
		Description: "Suspends the flow for a number of milliseconds.",
	})
}
