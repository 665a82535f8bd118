package graph

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vk/flowgridgo/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// Observer is notified about runtime events. It is how metrics attach to the
// graph without the graph knowing about them.
type Observer interface {
	Registered(o *NodeObject, err error)
	FlowStarted(o *NodeObject)
	Redirected(o *NodeObject, found bool)
	RoutineSpawned(label string)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) Registered(*NodeObject, error) {}
func (NopObserver) FlowStarted(*NodeObject)       {}
func (NopObserver) Redirected(*NodeObject, bool)  {}
func (NopObserver) RoutineSpawned(string)         {}

// Variable is a graph-level variable. Its type is the type of its default.
type Variable struct {
	Name    string
	Default cty.Value
}

// Type returns the declared type of the variable.
func (v *Variable) Type() cty.Type {
	if v.Default.Type() == cty.NilType {
		return cty.DynamicPseudoType
	}
	return v.Default.Type()
}

type liveEntry struct {
	object     *NodeObject
	generation uint64
}

// Graph owns the node objects, their ports and connections.
type Graph struct {
	Name string

	logger   *slog.Logger
	observer Observer
	arena    *Arena

	objects    []*NodeObject
	live       map[string]liveEntry
	generation uint64

	variables []*Variable
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger used for registration messages.
func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) { g.logger = l }
}

// WithObserver sets the runtime observer.
func WithObserver(o Observer) Option {
	return func(g *Graph) { g.observer = o }
}

// New creates an empty graph.
func New(name string, opts ...Option) *Graph {
	g := &Graph{
		Name:     name,
		logger:   slog.Default(),
		observer: NopObserver{},
		arena:    newArena(),
		live:     make(map[string]liveEntry),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Logger returns the graph logger.
func (g *Graph) Logger() *slog.Logger { return g.logger }

// Arena returns the port arena.
func (g *Graph) Arena() *Arena { return g.arena }

// Generation returns the number of successful registrations so far.
func (g *Graph) Generation() uint64 { return g.generation }

// Add creates a NodeObject for n. The object is not registered yet. An empty
// stableID gets a generated one. n may be nil for unresolved types.
func (g *Graph) Add(stableID, typeName string, n Node) (*NodeObject, error) {
	if stableID == "" {
		stableID = uuid.NewString()
	}
	if _, ok := g.Object(stableID); ok {
		return nil, fmt.Errorf("add node %q: duplicate stable id", stableID)
	}
	o := g.newObject(stableID, typeName, n)
	g.objects = append(g.objects, o)
	return o, nil
}

func (g *Graph) newObject(stableID, typeName string, n Node) *NodeObject {
	o := &NodeObject{StableID: stableID, TypeName: typeName, graph: g, node: n}
	if n != nil {
		n.base().object = o
	}
	return o
}

// Replace swaps the node behind stableID for n, the way an editor applies a
// code change: a new object is registered, connections move over to the new
// ports by id, and the old object becomes stale. Routines still running on
// the old object redirect to the new one.
//
// If the new node fails to register, the old object stays live and the
// error is returned.
func (g *Graph) Replace(stableID, typeName string, n Node) (*NodeObject, error) {
	i := g.indexOf(stableID)
	if i < 0 {
		return nil, fmt.Errorf("replace %q: %w", stableID, ErrUnknownNode)
	}
	old := g.objects[i]
	fresh := g.newObject(stableID, typeName, n)
	fresh.Position = old.Position
	fresh.Source = old.Source
	if err := fresh.Register(); err != nil {
		return nil, err
	}
	moved, dropped := 0, 0
	for _, p := range old.Ports() {
		if np, ok := fresh.Port(p.Kind, p.ID); ok {
			m, d := g.arena.Transfer(p.handle, np.handle)
			moved, dropped = moved+m, dropped+d
		}
		dropped += len(p.Connections())
		g.arena.Release(p.handle)
	}
	g.objects[i] = fresh
	g.logger.Debug("Node replaced.", "node", stableID, "type", typeName, "moved", moved, "dropped", dropped)
	return fresh, nil
}

// Remove unregisters and deletes the object with stableID.
func (g *Graph) Remove(stableID string) error {
	i := g.indexOf(stableID)
	if i < 0 {
		return fmt.Errorf("remove %q: %w", stableID, ErrUnknownNode)
	}
	g.objects[i].Unregister()
	g.objects = append(g.objects[:i], g.objects[i+1:]...)
	return nil
}

// RegisterAll registers every object. A failing object does not stop the
// others; all failures are joined into the returned error.
func (g *Graph) RegisterAll() error {
	var errs []error
	for _, o := range g.objects {
		if o.Logic() == nil {
			continue
		}
		if err := o.Register(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Object returns the current object for stableID.
func (g *Graph) Object(stableID string) (*NodeObject, bool) {
	i := g.indexOf(stableID)
	if i < 0 {
		return nil, false
	}
	return g.objects[i], true
}

// Objects returns all objects in insertion order.
func (g *Graph) Objects() []*NodeObject {
	out := make([]*NodeObject, len(g.objects))
	copy(out, g.objects)
	return out
}

func (g *Graph) indexOf(stableID string) int {
	for i, o := range g.objects {
		if o.StableID == stableID {
			return i
		}
	}
	return -1
}

// Live returns the live object for stableID if it is still valid.
func (g *Graph) Live(stableID string) *NodeObject {
	e, ok := g.live[stableID]
	if !ok || !e.object.IsValid() {
		return nil
	}
	return e.object
}

// publish records o as the live object for its stable id under a new
// generation.
func (g *Graph) publish(o *NodeObject) uint64 {
	g.generation++
	g.live[o.StableID] = liveEntry{object: o, generation: g.generation}
	return g.generation
}

// retire removes o from the live table if it is still the live object.
func (g *Graph) retire(o *NodeObject) {
	if e, ok := g.live[o.StableID]; ok && e.object == o {
		delete(g.live, o.StableID)
	}
}

// Connect connects two ports.
func (g *Graph) Connect(from, to *Port) error {
	return from.ConnectTo(to)
}

// ResolvePort finds the port addressed by a reference such as "loop.body" or
// "start.out[0]". Outputs are searched first when output is true.
func (g *Graph) ResolvePort(ref string, output bool) (*Port, error) {
	r, err := nodeid.ParsePortRef(ref)
	if err != nil {
		return nil, err
	}
	o, ok := g.Object(r.Node)
	if !ok {
		return nil, fmt.Errorf("port %q: %w", ref, ErrUnknownNode)
	}
	var p *Port
	if output {
		p, ok = o.Output(r.PortID())
	} else {
		p, ok = o.Input(r.PortID())
	}
	if !ok {
		return nil, fmt.Errorf("node %q has no port %q", r.Node, r.PortID())
	}
	return p, nil
}

// ConnectRef connects two ports addressed by reference.
func (g *Graph) ConnectRef(from, to string) error {
	out, err := g.ResolvePort(from, true)
	if err != nil {
		return err
	}
	in, err := g.ResolvePort(to, false)
	if err != nil {
		return err
	}
	return out.ConnectTo(in)
}

// DeclareVariable adds or redefines a graph variable.
func (g *Graph) DeclareVariable(name string, def cty.Value) *Variable {
	if v, ok := g.Variable(name); ok {
		v.Default = def
		return v
	}
	v := &Variable{Name: name, Default: def}
	g.variables = append(g.variables, v)
	return v
}

// Variable looks up a graph variable.
func (g *Graph) Variable(name string) (*Variable, bool) {
	for _, v := range g.variables {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// Variables returns the graph variables in declaration order.
func (g *Graph) Variables() []*Variable {
	out := make([]*Variable, len(g.variables))
	copy(out, g.variables)
	return out
}
