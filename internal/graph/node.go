package graph

import (
	"fmt"

	"github.com/vk/flowgridgo/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// Node is the behavior half of a graph entity. Implementations embed one of
// the base types below, which ties them to their NodeObject.
type Node interface {
	// OnRegister declares the node's ports. It runs on every registration.
	OnRegister(d *Declarer) error
	base() *Base
}

// Optional capabilities of a Node.
type (
	Titled interface{ Title() string }
	Iconed interface{ Icon() string }

	ErrorChecker interface{ CheckError(a Analyzer) }

	// Generative nodes register their emission closures with a Generator.
	Generative interface {
		OnGeneratorInitialize(g Generator) error
	}

	ValueGetter interface {
		GetValue(fl *Flow) (cty.Value, error)
	}
	ValueSetter interface {
		SetValue(fl *Flow, v cty.Value) error
	}
	FlowExecutor interface {
		OnExecuted(fl *Flow) (Jump, error)
	}
	CoroutineExecutor interface {
		OnExecutedCoroutine(fl *Flow, yield func(Wait) bool) (Jump, error)
	}

	ValueEmitter interface {
		GenerateValueCode(g Generator) (string, error)
	}
	FlowEmitter interface {
		GenerateFlowCode(g Generator) (string, error)
	}

	// Triggerer is implemented by entry points an Instance can start.
	Triggerer interface {
		Trigger(fl *Flow) (Jump, error)
	}

	// Updatable nodes are polled by an Updater instead of being entered
	// through a flow input. OnUpdate reports whether the node fired.
	Updatable interface {
		OnUpdate(fl *Flow) (bool, error)
	}
	// TickEmitter is the emitted half of Updatable. The returned statements
	// run once per tick and execute fire when the node fires.
	TickEmitter interface {
		GenerateTick(g Generator, fire string) (string, error)
	}
)

// Base links a Node to its NodeObject.
type Base struct {
	object *NodeObject
}

func (b *Base) base() *Base { return b }

// Object returns the NodeObject owning this node.
func (b *Base) Object() *NodeObject { return b.object }

// IsValid reports whether the owning object is the live one for its stable id.
func (b *Base) IsValid() bool { return b.object.IsValid() }

// CheckAssigned reports every value input among ports that is neither
// connected nor defaulted.
func (b *Base) CheckAssigned(a Analyzer, ports ...*Port) {
	for _, p := range ports {
		if p == nil || p.Kind != ValueInput {
			continue
		}
		if !p.Connected() && p.Default.Type() == cty.NilType {
			a.Error(b.object, "Unassigned input", fmt.Sprintf("Input %q is not connected and has no default.", p.ID))
		}
	}
}

func (b *Base) logic() Node { return b.object.node }

// EntryNode marks nodes that start flows without a flow input.
type EntryNode struct {
	Base
}

// EventNode fans control out to an ordered list of outputs named out[0..N-1].
type EventNode struct {
	EntryNode
	Outputs []*Port
}

// OutputID names the i-th fan-out output.
func OutputID(i int) string { return nodeid.IndexedID("out", i) }

// DeclareOutputs declares count fan-out outputs. The first one is primary.
func (n *EventNode) DeclareOutputs(d *Declarer, count int) {
	n.Outputs = make([]*Port, 0, count)
	for i := 0; i < count; i++ {
		if i == 0 {
			n.Outputs = append(n.Outputs, d.PrimaryFlowOutput(OutputID(i)))
			continue
		}
		n.Outputs = append(n.Outputs, d.FlowOutput(OutputID(i)))
	}
}

// Trigger runs each output in order. A Return ends the event and skips the
// remaining outputs; loop jumps reaching the event are dropped.
func (n *EventNode) Trigger(fl *Flow) (Jump, error) {
	if !n.IsValid() {
		sub := fl.substituteNode(n.object)
		if sub == nil {
			return Jump{}, nil
		}
		t, ok := sub.node.(Triggerer)
		if !ok {
			return Jump{}, fmt.Errorf("%s: %w", sub.StableID, ErrNotExecutable)
		}
		return t.Trigger(fl)
	}
	for _, out := range n.Outputs {
		j, err := fl.TriggerTracked(out)
		if err != nil {
			return Jump{}, err
		}
		if j.IsReturn() {
			return j, nil
		}
		if j.Pending() {
			fl.Logger().Warn("Loop jump reached event boundary, ignoring.", "node", n.object.StableID, "output", out.ID, "jump", j.String())
		}
	}
	return Jump{}, nil
}

// Stop cancels the routines still running below any of the outputs.
func (n *EventNode) Stop(fl *Flow) {
	for _, out := range n.Outputs {
		fl.inst.Stop(out)
	}
}

// GenerateEventCode concatenates the emitted code of every output.
func (n *EventNode) GenerateEventCode(g Generator) (string, error) {
	var code string
	for _, out := range n.Outputs {
		c, err := g.Flow(out)
		if err != nil {
			return "", err
		}
		code += c
	}
	return code, nil
}

// OnGeneratorInitialize is a no-op: events are emitted as whole functions.
func (n *EventNode) OnGeneratorInitialize(Generator) error { return nil }

// BaseFlowNode has a single primary flow input and no automatic exit.
type BaseFlowNode struct {
	Base
	Enter *Port
}

// DeclareEnter declares the primary "enter" input running the node's
// OnExecuted synchronously.
func (n *BaseFlowNode) DeclareEnter(d *Declarer) *Port {
	var exec ExecFunc
	if e, ok := d.Object().node.(FlowExecutor); ok {
		exec = e.OnExecuted
	}
	n.Enter = d.PrimaryFlowInput("enter", exec)
	return n.Enter
}

// OnGeneratorInitialize registers GenerateFlowCode for the enter input.
func (n *BaseFlowNode) OnGeneratorInitialize(g Generator) error {
	e, ok := n.logic().(FlowEmitter)
	if !ok {
		return fmt.Errorf("%s: %w", n.object.TypeName, ErrNotEmittable)
	}
	g.RegisterFlow(n.Enter, func() (string, error) { return e.GenerateFlowCode(g) })
	return nil
}

// FlowNode runs its logic on "enter" and then passes control to "exit",
// unless a jump is pending or automatic exit is turned off.
//
// The enter input is always a coroutine input, so a flow node placed after a
// suspending node is resumed together with it.
type FlowNode struct {
	BaseFlowNode
	Exit *Port

	manualExit bool
}

// SetAutoExit controls whether exit fires after the node's logic.
func (n *FlowNode) SetAutoExit(auto bool) { n.manualExit = !auto }

// AutoExit reports whether exit fires after the node's logic.
func (n *FlowNode) AutoExit() bool { return !n.manualExit }

// DeclareFlow declares "enter" and "exit".
func (n *FlowNode) DeclareFlow(d *Declarer) {
	n.Enter = d.PrimaryCoroutineInput("enter", n.run(d.Object().node))
	n.Exit = d.PrimaryFlowOutput("exit")
}

func (n *FlowNode) run(logic Node) CoroutineFunc {
	return func(fl *Flow, yield func(Wait) bool) (Jump, error) {
		var (
			j   Jump
			err error
		)
		switch l := logic.(type) {
		case CoroutineExecutor:
			j, err = l.OnExecutedCoroutine(fl, yield)
		case FlowExecutor:
			j, err = l.OnExecuted(fl)
		default:
			return Jump{}, fmt.Errorf("%s: %w", n.object.StableID, ErrNotExecutable)
		}
		if err != nil || j.Pending() || n.manualExit {
			return j, err
		}
		return fl.Await(yield, fl.TriggerCoroutine(n.Exit))
	}
}

// OnGeneratorInitialize registers GenerateFlowCode followed by the exit code.
func (n *FlowNode) OnGeneratorInitialize(g Generator) error {
	e, ok := n.logic().(FlowEmitter)
	if !ok {
		return fmt.Errorf("%s: %w", n.object.TypeName, ErrNotEmittable)
	}
	g.RegisterFlow(n.Enter, func() (string, error) {
		code, err := e.GenerateFlowCode(g)
		if err != nil || n.manualExit {
			return code, err
		}
		exit, err := g.Flow(n.Exit)
		if err != nil {
			return "", err
		}
		return code + exit, nil
	})
	return nil
}

// CoroutineNode is a FlowNode whose logic implements CoroutineExecutor.
type CoroutineNode struct {
	FlowNode
}

// ValueNode exposes one primary value output computed on demand.
type ValueNode struct {
	Base
	Output *Port
}

// DeclareOutput declares the primary value output backed by the node's
// GetValue, and SetValue when the node implements it.
func (n *ValueNode) DeclareOutput(d *Declarer, id string, fn TypeFunc) *Port {
	n.Output = declareValueOutput(d, id, fn)
	return n.Output
}

// OnGeneratorInitialize registers GenerateValueCode for the primary output.
func (n *ValueNode) OnGeneratorInitialize(g Generator) error {
	return registerValueCode(g, n.object, n.Output)
}

// FlowValueNode is a FlowNode that also exposes a primary value output.
type FlowValueNode struct {
	FlowNode
	Output *Port
}

// DeclareOutput declares the primary value output.
func (n *FlowValueNode) DeclareOutput(d *Declarer, id string, fn TypeFunc) *Port {
	n.Output = declareValueOutput(d, id, fn)
	return n.Output
}

// OnGeneratorInitialize registers both the flow and the value code.
func (n *FlowValueNode) OnGeneratorInitialize(g Generator) error {
	if err := n.FlowNode.OnGeneratorInitialize(g); err != nil {
		return err
	}
	return registerValueCode(g, n.object, n.Output)
}

func declareValueOutput(d *Declarer, id string, fn TypeFunc) *Port {
	logic := d.Object().node
	var get GetFunc
	if g, ok := logic.(ValueGetter); ok {
		get = g.GetValue
	}
	p := d.PrimaryValueOutput(id, fn, get)
	if s, ok := logic.(ValueSetter); ok {
		p.WithSetter(s.SetValue)
	}
	return p
}

func registerValueCode(g Generator, o *NodeObject, out *Port) error {
	e, ok := o.node.(ValueEmitter)
	if !ok {
		return fmt.Errorf("%s: %w", o.TypeName, ErrNotEmittable)
	}
	g.RegisterValue(out, func() (string, error) { return e.GenerateValueCode(g) })
	return nil
}
