// Package value provides pure value nodes: literals, boolean logic,
// arithmetic, comparisons and collection helpers. None of them has flow
// ports; their outputs are computed whenever they are read.
package value

import (
	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the node types with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Type{
		Name:        "value.literal",
		New:         func() graph.Node { return &Literal{} },
		Description: "Constant value; its type follows the configured value.",
	})
	r.Register(&registry.Type{
		Name:        "logic.and",
		New:         func() graph.Node { return &Gate{Inputs: 2} },
		Description: "True when every input is true.",
	})
	r.Register(&registry.Type{
		Name:        "logic.or",
		New:         func() graph.Node { return &Gate{Inputs: 2, or: true} },
		Description: "True when at least one input is true.",
	})
	r.Register(&registry.Type{
		Name:        "logic.not",
		New:         func() graph.Node { return &Not{} },
		Description: "Negates its input.",
	})
	r.Register(&registry.Type{
		Name:        "math.compare",
		New:         func() graph.Node { return &Compare{Op: "<"} },
		Description: "Compares two numbers.",
	})
	r.Register(&registry.Type{
		Name:        "math.arith",
		New:         func() graph.Node { return &Arith{Op: "+"} },
		Description: "Applies an arithmetic operator to two numbers.",
	})
	r.Register(&registry.Type{
		Name:        "collection.length",
		New:         func() graph.Node { return &Length{} },
		Description: "Number of elements in a collection.",
	})
}
