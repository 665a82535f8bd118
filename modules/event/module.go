// Package event provides the entry nodes a graph is started from.
package event

import (
	"fmt"

	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Event fans a trigger out to Count ordered outputs, out[0] first.
type Event struct {
	graph.EventNode

	// Count is the number of fan-out outputs.
	Count int `hcl:"outputs,optional"`
	// Name is shown as the title of custom events.
	Name string `hcl:"name,optional"`

	title string
}

func (n *Event) OnRegister(d *graph.Declarer) error {
	if n.Count < 1 {
		return fmt.Errorf("event needs at least one output, got %d", n.Count)
	}
	n.DeclareOutputs(d, n.Count)
	return nil
}

func (n *Event) Title() string {
	if n.Name != "" {
		return n.Name
	}
	return n.title
}

func (n *Event) Icon() string { return "event" }

// Register registers the node types with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Type{
		Name:        "event.start",
		New:         func() graph.Node { return &Event{Count: 1, title: "Start"} },
		Description: "Entry point run when the graph starts.",
	})
	r.Register(&registry.Type{
		Name:        "event.custom",
		New:         func() graph.Node { return &Event{Count: 1, title: "Custom Event"} },
		Description: "Entry point triggered by name.",
	})
}
