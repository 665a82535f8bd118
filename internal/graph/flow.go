package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/ctyconv"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Flow is the execution context of one trigger. Nodes keep no mutable call
// state of their own; loop counters and similar values live in the port
// data slots of the Flow that runs them.
type Flow struct {
	ctx    context.Context
	inst   *Instance
	slots  map[Handle]cty.Value
	origin Handle
}

// Context returns the context the flow was started with.
func (f *Flow) Context() context.Context { return f.ctx }

// Instance returns the running graph instance.
func (f *Flow) Instance() *Instance { return f.inst }

// Logger returns the logger carried by the flow's context.
func (f *Flow) Logger() *slog.Logger { return ctxlog.FromContext(f.ctx) }

// Data returns the value stored in p's slot for this flow.
func (f *Flow) Data(p *Port) (cty.Value, bool) {
	v, ok := f.slots[p.handle]
	return v, ok
}

// SetData stores v in p's slot for this flow.
func (f *Flow) SetData(p *Port, v cty.Value) {
	f.slots[p.handle] = v
}

// Value reads a value port. Inputs follow their first connection, then the
// flow slot, then the port default. Outputs call the getter declared by the
// owning node. The result is converted to the port type.
func (f *Flow) Value(p *Port) (cty.Value, error) {
	if p == nil {
		return cty.NilVal, fmt.Errorf("read value: %w", ErrUnassigned)
	}
	switch p.Kind {
	case ValueInput:
		if peers := p.Connections(); len(peers) > 0 {
			v, err := f.Value(peers[0])
			if err != nil {
				return cty.NilVal, err
			}
			return conform(p, v)
		}
		if v, ok := f.slots[p.handle]; ok {
			return conform(p, v)
		}
		return conform(p, p.Default)
	case ValueOutput:
		if !p.owner.IsValid() {
			return f.redirectValue(p)
		}
		if p.get == nil {
			if v, ok := f.slots[p.handle]; ok {
				return conform(p, v)
			}
			return cty.NullVal(p.Type()), nil
		}
		v, err := p.get(f)
		if err != nil {
			return cty.NilVal, fmt.Errorf("%s: %w", p, err)
		}
		return conform(p, v)
	}
	return cty.NilVal, fmt.Errorf("read value from %s port %s: %w", p.Kind, p, ErrIncompatible)
}

// SetValue writes through a read-write value port. A connected input writes
// to the output it reads from.
func (f *Flow) SetValue(p *Port, v cty.Value) error {
	switch p.Kind {
	case ValueInput:
		peers := p.Connections()
		if len(peers) == 0 {
			f.slots[p.handle] = v
			return nil
		}
		return f.SetValue(peers[0], v)
	case ValueOutput:
		if p.Access != ReadWrite || p.set == nil {
			return fmt.Errorf("%s: %w", p, ErrReadOnly)
		}
		if !p.owner.IsValid() {
			sub := f.substitute(p)
			if sub == nil {
				return nil
			}
			return f.SetValue(sub, v)
		}
		cv, err := conform(p, v)
		if err != nil {
			return err
		}
		return p.set(f, cv)
	}
	return fmt.Errorf("write value to %s port %s: %w", p.Kind, p, ErrIncompatible)
}

// Trigger passes control through a flow output to each connected input in
// connection order. It stops at the first pending jump or error.
func (f *Flow) Trigger(out *Port) (Jump, error) {
	if out == nil {
		return Jump{}, nil
	}
	if out.Kind != FlowOutput {
		return Jump{}, fmt.Errorf("trigger %s port %s: %w", out.Kind, out, ErrIncompatible)
	}
	for _, in := range out.Connections() {
		j, err := f.Execute(in)
		if err != nil || j.Pending() {
			return j, err
		}
	}
	return Jump{}, nil
}

// TriggerTracked triggers out and records every routine that suspends below
// it under out, so that Instance.Stop(out) can cancel them.
func (f *Flow) TriggerTracked(out *Port) (Jump, error) {
	prev := f.origin
	if out != nil {
		f.origin = out.handle
	}
	defer func() { f.origin = prev }()
	return f.Trigger(out)
}

// TriggerCoroutine starts out as a routine. The caller steps it, yielding
// each Wait to its own host, and reads the jump from Result once it is done.
// Within a coroutine body use Await.
func (f *Flow) TriggerCoroutine(out *Port) *Routine {
	if out == nil || len(out.Connections()) == 0 {
		return finished(f.label(out), Jump{}, nil)
	}
	return newRoutine(f.label(out), func(yield func(Wait) bool) (Jump, error) {
		for _, in := range out.Connections() {
			j, err := f.Await(yield, f.startRoutine(in))
			if err != nil || j.Pending() {
				return j, err
			}
		}
		return Jump{}, nil
	})
}

// Await drives r from inside a coroutine body, forwarding its waits to
// yield. If the host stops the outer routine, r is stopped too.
func (f *Flow) Await(yield func(Wait) bool, r *Routine) (Jump, error) {
	for {
		w, ok := r.Step()
		if !ok {
			return r.Result()
		}
		if !yield(w) {
			r.Stop()
			return Jump{}, ErrStopped
		}
	}
}

// Execute runs a flow input. A coroutine input is started as a routine; if
// it suspends, it is handed to the instance spawner and Execute returns no
// jump. Without a spawner the routine runs to completion, its waits are
// skipped, and its result is returned.
func (f *Flow) Execute(in *Port) (Jump, error) {
	if err := f.ctx.Err(); err != nil {
		return Jump{}, err
	}
	if in.Kind != FlowInput {
		return Jump{}, fmt.Errorf("execute %s port %s: %w", in.Kind, in, ErrIncompatible)
	}
	if !in.owner.IsValid() {
		sub := f.substitute(in)
		if sub == nil {
			return Jump{}, nil
		}
		in = sub
	}
	if in.exec != nil {
		return in.exec(f)
	}
	if in.co == nil {
		return Jump{}, fmt.Errorf("%s: %w", in, ErrNotExecutable)
	}
	r := f.startRoutine(in)
	w, ok := r.Step()
	if !ok {
		return r.Result()
	}
	if f.inst.spawner == nil {
		for ok {
			_, ok = r.Step()
		}
		return r.Result()
	}
	f.inst.spawn(f.origin, r, w)
	return Jump{}, nil
}

// startRoutine wraps a flow input into a routine. Synchronous inputs become
// routines that never suspend.
func (f *Flow) startRoutine(in *Port) *Routine {
	if !in.owner.IsValid() {
		if sub := f.substitute(in); sub != nil {
			in = sub
		} else {
			return finished(in.String(), Jump{}, nil)
		}
	}
	if in.co == nil {
		j, err := f.Execute(in)
		return finished(in.String(), j, err)
	}
	co := in.co
	return newRoutine(in.String(), func(yield func(Wait) bool) (Jump, error) {
		return co(f, yield)
	})
}

// substituteNode returns the live object replacing o, or nil.
func (f *Flow) substituteNode(o *NodeObject) *NodeObject {
	log := f.Logger().With("node", o.StableID, "generation", o.generation)
	sub := f.inst.ValidNode(o.StableID)
	if sub == nil {
		log.Warn("Stale node has no live substitute, skipping.")
		f.inst.observer.Redirected(o, false)
		return nil
	}
	log.Debug("Redirecting stale node to live substitute.", "substitute_generation", sub.generation)
	f.inst.observer.Redirected(o, true)
	return sub
}

// substitute finds the live port replacing p after p's owner was superseded.
func (f *Flow) substitute(p *Port) *Port {
	sub := f.substituteNode(p.owner)
	if sub == nil {
		return nil
	}
	sp, ok := sub.Port(p.Kind, p.ID)
	if !ok {
		f.Logger().Warn("Live substitute lacks port, skipping.", "node", sub.StableID, "port", p.ID)
		return nil
	}
	return sp
}

func (f *Flow) redirectValue(p *Port) (cty.Value, error) {
	sub := f.substitute(p)
	if sub == nil {
		return cty.NullVal(p.Type()), nil
	}
	return f.Value(sub)
}

func (f *Flow) label(p *Port) string {
	if p == nil {
		return ""
	}
	return p.String()
}

// conform converts v to the type of p. Missing values become typed nulls.
func conform(p *Port, v cty.Value) (cty.Value, error) {
	t := p.Type()
	if v.Type() == cty.NilType {
		return cty.NullVal(t), nil
	}
	if t.Equals(cty.DynamicPseudoType) || v.Type().Equals(t) {
		return v, nil
	}
	cv, err := convert.Convert(v, t)
	if err != nil {
		return cty.NilVal, fmt.Errorf("%s: value of type %s does not fit %s: %w",
			p, v.Type().FriendlyName(), t.FriendlyName(), err)
	}
	return cv, nil
}

// Required reads p like Value but treats a null result as unassigned.
func (f *Flow) Required(p *Port) (cty.Value, error) {
	v, err := f.Value(p)
	if err != nil {
		return cty.NilVal, err
	}
	if v.IsNull() {
		return cty.NilVal, fmt.Errorf("%s: %w", p, ErrUnassigned)
	}
	return v, nil
}

// Bool reads a required bool input.
func (f *Flow) Bool(p *Port) (bool, error) {
	v, err := f.Required(p)
	if err != nil {
		return false, err
	}
	if v.Type() != cty.Bool {
		return false, fmt.Errorf("%s: expected bool, got %s: %w", p, v.Type().FriendlyName(), ErrIncompatible)
	}
	return v.True(), nil
}

// Number reads a required number input as float64.
func (f *Flow) Number(p *Port) (float64, error) {
	v, err := f.Required(p)
	if err != nil {
		return 0, err
	}
	n, err := ctyconv.Float(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", p, err)
	}
	return n, nil
}
