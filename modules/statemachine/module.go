// Package statemachine composes flow nodes into finite state machines.
//
// A State is entered through its flow input like any other flow node. While
// active it owns an updater on the running Instance; every Instance.Tick
// polls the state's transitions in order. The first transition that fires
// finishes the state: routines started below on_enter are stopped, the exit
// hooks run, and control passes to the transition's exit output, usually
// the enter input of the next state.
//
// Emitted programs turn each state into a function that runs on_enter and
// then polls its transitions in a loop, one iteration per tick.
package statemachine

import (
	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the node types with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Type{
		Name:        "state",
		New:         func() graph.Node { return &State{} },
		Description: "State of a state machine; active from enter until a transition fires.",
	})
	r.Register(&registry.Type{
		Name:        "transition.condition",
		New:         func() graph.Node { return &Condition{} },
		Description: "Fires on the first tick its condition is true.",
	})
	r.Register(&registry.Type{
		Name:        "transition.after",
		New:         func() graph.Node { return &After{Ticks: 1} },
		Description: "Fires after a number of ticks.",
	})
}
