package graph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Updater is driven once per Instance.Tick. State machines register one
// while a state is active.
type Updater interface {
	Update(ctx context.Context) error
}

// Instance is one running copy of a Graph. It creates Flows, resolves live
// substitutes for stale nodes and owns the runtime state that outlives a
// single trigger: variables, suspended routines and updaters.
type Instance struct {
	graph    *Graph
	logger   *slog.Logger
	out      io.Writer
	spawner  Spawner
	observer Observer

	vars     map[string]cty.Value
	routines map[Handle][]*Routine
	updaters []updaterEntry
}

type updaterEntry struct {
	key any
	u   Updater
}

// InstanceOption configures an Instance.
type InstanceOption func(*Instance)

// WithOutput sets the writer print nodes write to. It defaults to stdout.
func WithOutput(w io.Writer) InstanceOption {
	return func(i *Instance) { i.out = w }
}

// WithSpawner sets the host that resumes suspended routines. Without one,
// routines are drained synchronously: their waits are ignored.
func WithSpawner(s Spawner) InstanceOption {
	return func(i *Instance) { i.spawner = s }
}

// WithInstanceLogger overrides the graph logger for this instance.
func WithInstanceLogger(l *slog.Logger) InstanceOption {
	return func(i *Instance) { i.logger = l }
}

// NewInstance creates an instance of g with variables at their defaults.
func NewInstance(g *Graph, opts ...InstanceOption) *Instance {
	inst := &Instance{
		graph:    g,
		logger:   g.logger,
		out:      os.Stdout,
		observer: g.observer,
		vars:     make(map[string]cty.Value),
		routines: make(map[Handle][]*Routine),
	}
	for _, opt := range opts {
		opt(inst)
	}
	for _, v := range g.variables {
		inst.vars[v.Name] = v.Default
	}
	return inst
}

// Graph returns the graph the instance runs.
func (i *Instance) Graph() *Graph { return i.graph }

// Output returns the writer used by print nodes.
func (i *Instance) Output() io.Writer { return i.out }

// NewFlow creates a fresh execution context logging through the instance
// logger.
func (i *Instance) NewFlow(ctx context.Context) *Flow {
	ctx = ctxlog.WithLogger(ctx, i.logger.With("graph", i.graph.Name))
	return &Flow{ctx: ctx, inst: i, slots: make(map[Handle]cty.Value)}
}

// Trigger starts the entry node with the given stable id.
func (i *Instance) Trigger(ctx context.Context, stableID string) error {
	_, err := i.Call(ctx, stableID)
	return err
}

// Call starts the entry node with the given stable id and returns the value
// of a Return reaching it, or null.
func (i *Instance) Call(ctx context.Context, stableID string) (cty.Value, error) {
	o, ok := i.graph.Object(stableID)
	if !ok {
		return cty.NilVal, fmt.Errorf("trigger %q: %w", stableID, ErrUnknownNode)
	}
	if err := o.EnsureRegistered(); err != nil {
		return cty.NilVal, err
	}
	t, ok := o.node.(Triggerer)
	if !ok {
		return cty.NilVal, fmt.Errorf("trigger %q: %s is not an entry node: %w", stableID, o.TypeName, ErrNotExecutable)
	}
	fl := i.NewFlow(ctx)
	fl.ctx = ctxlog.With(fl.ctx, "event", stableID)
	i.observer.FlowStarted(o)
	fl.Logger().Debug("Flow started.")
	j, err := t.Trigger(fl)
	if err != nil {
		return cty.NilVal, fmt.Errorf("trigger %q: %w", stableID, err)
	}
	return j.Value(), nil
}

// ValidNode returns the live object for stableID, or nil when it was removed
// or failed its last registration.
func (i *Instance) ValidNode(stableID string) *NodeObject {
	return i.graph.Live(stableID)
}

// Variable returns the current value of a graph variable.
func (i *Instance) Variable(name string) (cty.Value, error) {
	v, ok := i.vars[name]
	if !ok {
		return cty.NilVal, fmt.Errorf("%q: %w", name, ErrUnknownVariable)
	}
	return v, nil
}

// SetVariable assigns a graph variable, converting to its declared type.
func (i *Instance) SetVariable(name string, v cty.Value) error {
	decl, ok := i.graph.Variable(name)
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrUnknownVariable)
	}
	if t := decl.Type(); !t.Equals(cty.DynamicPseudoType) {
		cv, err := convert.Convert(v, t)
		if err != nil {
			return fmt.Errorf("assign variable %q: %w", name, err)
		}
		v = cv
	}
	i.vars[name] = v
	return nil
}

// spawn hands a suspended routine to the host and tracks it under origin.
func (i *Instance) spawn(origin Handle, r *Routine, w Wait) {
	i.observer.RoutineSpawned(r.Label())
	if origin != 0 {
		i.routines[origin] = append(slices.DeleteFunc(i.routines[origin], (*Routine).Done), r)
	}
	i.spawner.Spawn(r, w)
}

// Routines returns the unfinished routines started below out.
func (i *Instance) Routines(out *Port) []*Routine {
	return slices.DeleteFunc(slices.Clone(i.routines[out.handle]), (*Routine).Done)
}

// Stop cancels every routine started below out.
func (i *Instance) Stop(out *Port) {
	if out == nil {
		return
	}
	for _, r := range i.routines[out.handle] {
		r.Stop()
	}
	delete(i.routines, out.handle)
}

// AddUpdater registers u under key, replacing a previous one.
func (i *Instance) AddUpdater(key any, u Updater) {
	for n, e := range i.updaters {
		if e.key == key {
			i.updaters[n].u = u
			return
		}
	}
	i.updaters = append(i.updaters, updaterEntry{key: key, u: u})
}

// RemoveUpdater unregisters the updater under key.
func (i *Instance) RemoveUpdater(key any) {
	i.updaters = slices.DeleteFunc(i.updaters, func(e updaterEntry) bool { return e.key == key })
}

// HasUpdater reports whether an updater is registered under key.
func (i *Instance) HasUpdater(key any) bool {
	return slices.ContainsFunc(i.updaters, func(e updaterEntry) bool { return e.key == key })
}

// Updating reports whether any updater is registered.
func (i *Instance) Updating() bool { return len(i.updaters) > 0 }

// Tick runs every updater once, in registration order. Updaters added during
// the tick run on the next one.
func (i *Instance) Tick(ctx context.Context) error {
	for _, e := range slices.Clone(i.updaters) {
		if !i.HasUpdater(e.key) {
			continue
		}
		if err := e.u.Update(ctx); err != nil {
			return err
		}
	}
	return nil
}
