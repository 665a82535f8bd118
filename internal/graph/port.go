package graph

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// PortKind distinguishes the four port collections of a NodeObject.
type PortKind uint8

const (
	// ValueInput reads a value produced elsewhere.
	ValueInput PortKind = iota
	// ValueOutput produces a value on demand.
	ValueOutput
	// FlowInput receives control.
	FlowInput
	// FlowOutput passes control to connected flow inputs.
	FlowOutput
)

var portKindNames = [...]string{"value_in", "value_out", "flow_in", "flow_out"}

func (k PortKind) String() string {
	if int(k) < len(portKindNames) {
		return portKindNames[k]
	}
	return fmt.Sprintf("PortKind(%d)", k)
}

// IsInput reports whether the kind is on the receiving side of a connection.
func (k PortKind) IsInput() bool { return k == ValueInput || k == FlowInput }

// IsValue reports whether the kind carries data rather than control.
func (k PortKind) IsValue() bool { return k == ValueInput || k == ValueOutput }

// Opposite returns the kind a port of kind k may connect to.
func (k PortKind) Opposite() PortKind {
	switch k {
	case ValueInput:
		return ValueOutput
	case ValueOutput:
		return ValueInput
	case FlowInput:
		return FlowOutput
	default:
		return FlowInput
	}
}

// Access controls whether a value port accepts writes.
type Access uint8

const (
	ReadOnly Access = iota
	ReadWrite
)

// Handle addresses a port inside its graph's Arena. The zero Handle never
// refers to a live port.
type Handle int32

// TypeFunc resolves the type of a port. It is re-invoked on every Port.Type
// call so that configuration changes are observed without explicit
// invalidation.
type TypeFunc func() cty.Type

// StaticType returns a TypeFunc that always yields t.
func StaticType(t cty.Type) TypeFunc {
	return func() cty.Type { return t }
}

// Callback signatures supplied by a Node when it declares ports.
type (
	GetFunc       func(fl *Flow) (cty.Value, error)
	SetFunc       func(fl *Flow, v cty.Value) error
	ExecFunc      func(fl *Flow) (Jump, error)
	CoroutineFunc func(fl *Flow, yield func(Wait) bool) (Jump, error)
)

// Port is a typed endpoint owned by a NodeObject.
type Port struct {
	// ID is stable across registrations and unique within its collection.
	ID string
	// Name is the display label. It defaults to ID.
	Name string
	// Kind selects the collection the port lives in.
	Kind PortKind
	// Access applies to value ports only.
	Access Access
	// Primary marks the default port of its category.
	Primary bool
	// Default is used when a value input is not connected.
	Default cty.Value

	handle Handle
	owner  *NodeObject
	typeFn TypeFunc

	get  GetFunc
	set  SetFunc
	exec ExecFunc
	co   CoroutineFunc
}

// Handle returns the arena handle, or zero once the port has been released.
func (p *Port) Handle() Handle { return p.handle }

// Owner returns the NodeObject the port belongs to.
func (p *Port) Owner() *NodeObject { return p.owner }

// Type resolves the port type. Flow ports and ports without a resolver are
// dynamically typed.
func (p *Port) Type() cty.Type {
	if p.typeFn == nil {
		return cty.DynamicPseudoType
	}
	return p.typeFn()
}

// Live reports whether the port is still allocated in its arena.
func (p *Port) Live() bool { return p.handle != 0 && p.owner != nil }

// IsCoroutine reports whether executing this flow input may suspend.
func (p *Port) IsCoroutine() bool { return p.co != nil }

// WithDefault sets the value used while the port is unconnected.
func (p *Port) WithDefault(v cty.Value) *Port {
	p.Default = v
	return p
}

// WithName sets the display label.
func (p *Port) WithName(name string) *Port {
	p.Name = name
	return p
}

// WithTypeFunc replaces the type resolver.
func (p *Port) WithTypeFunc(fn TypeFunc) *Port {
	p.typeFn = fn
	return p
}

// WithSetter makes a value port writable.
func (p *Port) WithSetter(set SetFunc) *Port {
	p.set = set
	p.Access = ReadWrite
	return p
}

// Connections returns the peers of p in connection order.
func (p *Port) Connections() []*Port {
	if !p.Live() {
		return nil
	}
	return p.owner.graph.arena.Peers(p.handle)
}

// Connected reports whether p has at least one connection.
func (p *Port) Connected() bool {
	return p.Live() && p.owner.graph.arena.IsConnected(p.handle)
}

// ConnectTo connects p with other, in either direction.
func (p *Port) ConnectTo(other *Port) error {
	if !p.Live() || !other.Live() {
		return ErrStalePort
	}
	if p.owner.graph != other.owner.graph {
		return fmt.Errorf("connect %s -> %s: ports belong to different graphs", p, other)
	}
	_, err := p.owner.graph.arena.Connect(p.handle, other.handle)
	return err
}

// DisconnectAll removes every connection of p.
func (p *Port) DisconnectAll() {
	if p.Live() {
		p.owner.graph.arena.DisconnectAll(p.handle)
	}
}

func (p *Port) String() string {
	if p.owner == nil {
		return p.ID
	}
	return p.owner.StableID + "." + p.ID
}

// portAttrs is the static part of a port that a new declaration replaces.
type portAttrs struct {
	name    string
	access  Access
	primary bool
	def     cty.Value
	typeFn  TypeFunc
	get     GetFunc
	set     SetFunc
	exec    ExecFunc
	co      CoroutineFunc
}

func (p *Port) attrs() portAttrs {
	return portAttrs{
		name:    p.Name,
		access:  p.Access,
		primary: p.Primary,
		def:     p.Default,
		typeFn:  p.typeFn,
		get:     p.get,
		set:     p.set,
		exec:    p.exec,
		co:      p.co,
	}
}

func (p *Port) setAttrs(a portAttrs) {
	p.Name = a.name
	p.Access = a.access
	p.Primary = a.primary
	p.Default = a.def
	p.typeFn = a.typeFn
	p.get = a.get
	p.set = a.set
	p.exec = a.exec
	p.co = a.co
}

// transplant copies the static attributes of a fresh declaration onto p,
// keeping p's identity and connections.
func (p *Port) transplant(fresh *Port) {
	p.setAttrs(fresh.attrs())
}
