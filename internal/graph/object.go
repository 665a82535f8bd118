package graph

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// State is the registration state of a NodeObject.
type State uint8

const (
	Unregistered State = iota
	Registering
	Registered
	// Faulted means the last declaration attempt failed. The previous ports
	// are still in place.
	Faulted
)

var stateNames = [...]string{"unregistered", "registering", "registered", "faulted"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// Position is editor layout metadata. Execution ignores it.
type Position struct {
	X float64 `yaml:"x" msgpack:"x"`
	Y float64 `yaml:"y" msgpack:"y"`
}

// NodeObject is the graph entity that owns a Node and its ports.
type NodeObject struct {
	// StableID identifies the object across registrations and live replacement.
	StableID string
	// TypeName is the registry tag the Node was created from.
	TypeName string
	Position Position
	// Source is where the object was declared, when loaded from a document.
	Source hcl.Range
	// Opaque keeps the serialized state of a node whose type could not be
	// resolved, so that it survives a save.
	Opaque []byte

	ValueInputs  Collection
	ValueOutputs Collection
	FlowInputs   Collection
	FlowOutputs  Collection

	primaryFlowInput   *Port
	primaryFlowOutput  *Port
	primaryValueOutput *Port

	node       Node
	graph      *Graph
	state      State
	err        error
	generation uint64
	invalid    []*Port
}

// ObjectOf returns the container of n.
func ObjectOf(n Node) *NodeObject {
	if n == nil {
		return nil
	}
	return n.base().object
}

// Logic returns the Node owned by o. It is nil when the type is missing.
func (o *NodeObject) Logic() Node { return o.node }

// Graph returns the graph o belongs to.
func (o *NodeObject) Graph() *Graph { return o.graph }

// State returns the registration state.
func (o *NodeObject) State() State { return o.state }

// Err returns the error of the last failed registration.
func (o *NodeObject) Err() error { return o.err }

// IsRegistered reports whether the last registration succeeded.
func (o *NodeObject) IsRegistered() bool { return o.state == Registered }

// Generation returns the graph generation of the last successful registration.
func (o *NodeObject) Generation() uint64 { return o.generation }

// InvalidPorts returns the ports dropped by the last successful registration.
func (o *NodeObject) InvalidPorts() []*Port { return o.invalid }

// IsValid reports whether o is the current live object for its stable id.
func (o *NodeObject) IsValid() bool {
	if o == nil || o.graph == nil || o.state != Registered {
		return false
	}
	e, ok := o.graph.live[o.StableID]
	return ok && e.object == o && e.generation == o.generation
}

// Title returns the node's display title, falling back to the type tag.
func (o *NodeObject) Title() string {
	if t, ok := o.node.(Titled); ok {
		return t.Title()
	}
	return o.TypeName
}

// Icon returns the node's icon key, if it has one.
func (o *NodeObject) Icon() string {
	if i, ok := o.node.(Iconed); ok {
		return i.Icon()
	}
	return ""
}

// PrimaryFlowInput returns the primary flow input, or nil.
func (o *NodeObject) PrimaryFlowInput() *Port { return o.primaryFlowInput }

// PrimaryFlowOutput returns the primary flow output, or nil.
func (o *NodeObject) PrimaryFlowOutput() *Port { return o.primaryFlowOutput }

// PrimaryValueOutput returns the primary value output, or nil.
func (o *NodeObject) PrimaryValueOutput() *Port { return o.primaryValueOutput }

// Collection returns the collection holding ports of kind k.
func (o *NodeObject) Collection(k PortKind) *Collection {
	switch k {
	case ValueInput:
		return &o.ValueInputs
	case ValueOutput:
		return &o.ValueOutputs
	case FlowInput:
		return &o.FlowInputs
	default:
		return &o.FlowOutputs
	}
}

// Port looks up a port by kind and id.
func (o *NodeObject) Port(k PortKind, id string) (*Port, bool) {
	return o.Collection(k).Get(id)
}

// Input finds an input port by id, value ports first.
func (o *NodeObject) Input(id string) (*Port, bool) {
	if p, ok := o.ValueInputs.Get(id); ok {
		return p, true
	}
	return o.FlowInputs.Get(id)
}

// Output finds an output port by id, value ports first.
func (o *NodeObject) Output(id string) (*Port, bool) {
	if p, ok := o.ValueOutputs.Get(id); ok {
		return p, true
	}
	return o.FlowOutputs.Get(id)
}

// Ports returns every port: value inputs, value outputs, flow inputs, flow outputs.
func (o *NodeObject) Ports() []*Port {
	var out []*Port
	for _, k := range allKinds {
		out = append(out, o.Collection(k).ports...)
	}
	return out
}

var allKinds = [...]PortKind{ValueInput, ValueOutput, FlowInput, FlowOutput}

func (o *NodeObject) primary(k PortKind) **Port {
	switch k {
	case FlowInput:
		return &o.primaryFlowInput
	case FlowOutput:
		return &o.primaryFlowOutput
	case ValueOutput:
		return &o.primaryValueOutput
	}
	return nil
}

// EnsureRegistered registers o unless it already is.
func (o *NodeObject) EnsureRegistered() error {
	if o.state == Registered {
		return nil
	}
	return o.Register()
}

// Register (re-)declares the node's ports. Ports whose id survives keep their
// identity and connections. On failure the previous ports are restored and
// the object is left Faulted; the error is logged and returned.
func (o *NodeObject) Register() (err error) {
	log := o.graph.logger.With("node", o.StableID, "type", o.TypeName)
	if o.node == nil {
		log.Warn("Skipping registration of node with missing type.")
		return nil
	}
	if o.state == Registering {
		return &RegistrationError{Node: o.StableID, Type: o.TypeName, Err: errors.New("re-entrant registration")}
	}

	snap := o.preserve()
	o.state = Registering
	o.clearPorts()

	d := &Declarer{object: o, snapshot: snap}
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = recovered(r)
			}
		}()
		err = o.node.OnRegister(d)
	}()

	if err != nil {
		d.abort()
		o.restore(snap)
		o.state = Faulted
		o.err = &RegistrationError{Node: o.StableID, Type: o.TypeName, Err: err}
		log.Error("Node registration failed, previous ports restored.", "error", err)
		o.graph.observer.Registered(o, o.err)
		return o.err
	}

	o.invalid = snap.unclaimed()
	for _, p := range o.invalid {
		o.graph.arena.Release(p.handle)
	}
	o.state = Registered
	o.err = nil
	o.generation = o.graph.publish(o)
	log.Debug("Node registered.",
		"generation", o.generation,
		"preserved", len(snap.claimed),
		"added", len(d.fresh),
		"dropped", len(o.invalid),
	)
	o.graph.observer.Registered(o, nil)
	return nil
}

// Unregister releases every port and removes o from the live table.
func (o *NodeObject) Unregister() {
	for _, p := range o.Ports() {
		o.graph.arena.Release(p.handle)
	}
	o.clearPorts()
	o.state = Unregistered
	o.graph.retire(o)
}

func (o *NodeObject) clearPorts() {
	for _, k := range allKinds {
		o.Collection(k).reset(nil)
	}
	o.primaryFlowInput = nil
	o.primaryFlowOutput = nil
	o.primaryValueOutput = nil
}
