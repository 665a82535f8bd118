package statemachine

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/flowgridgo/internal/graph"
)

// State is active from the moment its enter input runs until one of its
// transitions fires. Entering an already active state is ignored.
type State struct {
	graph.BaseFlowNode

	// Transitions lists the stable ids of the transition nodes polled, in
	// priority order.
	Transitions []string `hcl:"transitions,optional"`

	OnEnterOut, OnExitOut *graph.Port
}

func (n *State) OnRegister(d *graph.Declarer) error {
	n.DeclareEnter(d)
	n.OnEnterOut = d.PrimaryFlowOutput("on_enter")
	n.OnExitOut = d.FlowOutput("on_exit")
	return nil
}

func (n *State) Title() string { return "State " + n.Object().StableID }
func (n *State) Icon() string  { return "state" }

// References returns the transition ids, for the document reference table.
func (n *State) References() []string { return n.Transitions }

func (n *State) key() string { return "state:" + n.Object().StableID }

// Active reports whether the state is active in inst.
func (n *State) Active(inst *graph.Instance) bool {
	return inst.HasUpdater(n.key())
}

func (n *State) CheckError(a graph.Analyzer) {
	g := n.Object().Graph()
	for _, id := range n.Transitions {
		o, ok := g.Object(id)
		if !ok {
			a.Error(n.Object(), "Unknown transition", fmt.Sprintf("Transition %q does not exist.", id))
			continue
		}
		if _, ok := o.Logic().(Transition); !ok {
			a.Error(n.Object(), "Not a transition", fmt.Sprintf("Node %q (%s) can not be used as a transition.", id, o.TypeName))
		}
	}
}

// transitions resolves the live transition nodes. Ids that do not resolve
// are skipped.
func (n *State) transitions(inst *graph.Instance) []Transition {
	var out []Transition
	for _, id := range n.Transitions {
		o := inst.ValidNode(id)
		if o == nil {
			continue
		}
		if t, ok := o.Logic().(Transition); ok {
			out = append(out, t)
		}
	}
	return out
}

func (n *State) OnExecuted(fl *graph.Flow) (graph.Jump, error) {
	inst := fl.Instance()
	log := fl.Logger().With("state", n.Object().StableID)
	if n.Active(inst) {
		log.Debug("State already active, ignoring enter.")
		return graph.Jump{}, nil
	}
	log.Debug("State entered.")
	for _, t := range n.transitions(inst) {
		if err := t.OnEnter(fl); err != nil {
			return graph.Jump{}, err
		}
	}
	inst.AddUpdater(n.key(), &activation{stableID: n.Object().StableID, fl: fl})
	j, err := fl.TriggerTracked(n.OnEnterOut)
	if err != nil {
		return graph.Jump{}, err
	}
	if j.IsReturn() {
		return j, nil
	}
	return graph.Jump{}, nil
}

// Finish ends the active state in favor of t: routines started below
// on_enter are stopped, every transition's OnExit runs, on_exit is
// triggered, and finally t's exit.
func (n *State) Finish(fl *graph.Flow, t Transition) error {
	inst := fl.Instance()
	if !n.Active(inst) {
		return nil
	}
	fl.Logger().Debug("State finished.", "state", n.Object().StableID, "transition", graph.ObjectOf(t).StableID)
	inst.Stop(n.OnEnterOut)
	inst.RemoveUpdater(n.key())
	for _, other := range n.transitions(inst) {
		if err := other.OnExit(fl); err != nil {
			return err
		}
	}
	if _, err := fl.Trigger(n.OnExitOut); err != nil {
		return err
	}
	_, err := fl.TriggerTracked(t.ExitPort())
	return err
}

// activation is the updater of an active state. It resolves the state by
// stable id on every tick so that edits to the state apply immediately.
type activation struct {
	stableID string
	fl       *graph.Flow
}

func (a *activation) Update(ctx context.Context) error {
	inst := a.fl.Instance()
	o := inst.ValidNode(a.stableID)
	if o == nil {
		a.fl.Logger().Warn("Active state has no live node, deactivating.", "state", a.stableID)
		inst.RemoveUpdater("state:" + a.stableID)
		return nil
	}
	s, ok := o.Logic().(*State)
	if !ok {
		return fmt.Errorf("state %q: %w", a.stableID, graph.ErrNotExecutable)
	}
	for _, t := range s.transitions(inst) {
		fire, err := t.OnUpdate(a.fl)
		if err != nil {
			return fmt.Errorf("state %q, transition %q: %w", a.stableID, graph.ObjectOf(t).StableID, err)
		}
		if fire {
			return s.Finish(a.fl, t)
		}
	}
	return nil
}

func (n *State) GenerateFlowCode(g graph.Generator) (string, error) {
	name, err := g.Function(n.Enter, "state_"+n.Object().StableID, func() (string, error) {
		return n.generateBody(g)
	})
	if err != nil {
		return "", err
	}
	return name + "()\n", nil
}

func (n *State) generateBody(g graph.Generator) (string, error) {
	var b strings.Builder
	var ts []Transition
	gr := n.Object().Graph()
	for _, id := range n.Transitions {
		o, ok := gr.Object(id)
		if !ok {
			return "", fmt.Errorf("state %q: transition %q: %w", n.Object().StableID, id, graph.ErrUnknownNode)
		}
		t, ok := o.Logic().(Transition)
		if !ok {
			return "", fmt.Errorf("state %q: %q is not a transition", n.Object().StableID, id)
		}
		ts = append(ts, t)
		enter, err := t.GenerateEnter(g)
		if err != nil {
			return "", err
		}
		b.WriteString(enter)
	}
	onEnter, err := g.Flow(n.OnEnterOut)
	if err != nil {
		return "", err
	}
	b.WriteString(onEnter)
	if len(ts) == 0 {
		return b.String(), nil
	}
	onExit, err := g.Flow(n.OnExitOut)
	if err != nil {
		return "", err
	}
	b.WriteString("for {\n")
	for _, t := range ts {
		exit, err := g.Flow(t.ExitPort())
		if err != nil {
			return "", err
		}
		tick, err := t.GenerateTick(g, onExit+exit+"return nil\n")
		if err != nil {
			return "", err
		}
		b.WriteString(tick)
	}
	b.WriteString("}\n")
	return b.String(), nil
}
