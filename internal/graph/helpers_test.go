package graph

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// Test nodes covering each base type.

type eventNode struct {
	EventNode
	count int
}

func (n *eventNode) OnRegister(d *Declarer) error {
	n.DeclareOutputs(d, n.count)
	return nil
}

type sourceNode struct {
	ValueNode
	value cty.Value
	typ   cty.Type
}

func (n *sourceNode) OnRegister(d *Declarer) error {
	n.DeclareOutput(d, "value", func() cty.Type { return n.typ })
	return nil
}

func (n *sourceNode) GetValue(*Flow) (cty.Value, error) { return n.value, nil }

type recordNode struct {
	FlowNode
	In   *Port
	name string
	log  *[]string
}

func (n *recordNode) OnRegister(d *Declarer) error {
	n.DeclareFlow(d)
	n.In = d.ValueInput("value", cty.DynamicPseudoType)
	return nil
}

func (n *recordNode) OnExecuted(fl *Flow) (Jump, error) {
	v, err := fl.Value(n.In)
	if err != nil {
		return Jump{}, err
	}
	entry := n.name
	if !v.IsNull() && v.Type() == cty.Number {
		entry += ":" + v.AsBigFloat().Text('f', -1)
	}
	*n.log = append(*n.log, entry)
	return Jump{}, nil
}

type jumpNode struct {
	BaseFlowNode
	jump Jump
}

func (n *jumpNode) OnRegister(d *Declarer) error {
	n.DeclareEnter(d)
	return nil
}

func (n *jumpNode) OnExecuted(*Flow) (Jump, error) { return n.jump, nil }

type loopNode struct {
	FlowNode
	Body, Index *Port
	count       int
}

func (n *loopNode) OnRegister(d *Declarer) error {
	n.DeclareFlow(d)
	n.Body = d.FlowOutput("body")
	n.Index = d.ValueOutput("index", cty.Number, n.index)
	return nil
}

func (n *loopNode) index(fl *Flow) (cty.Value, error) {
	if v, ok := fl.Data(n.Index); ok {
		return v, nil
	}
	return cty.Zero, nil
}

func (n *loopNode) OnExecutedCoroutine(fl *Flow, yield func(Wait) bool) (Jump, error) {
	for i := 0; i < n.count; i++ {
		fl.SetData(n.Index, cty.NumberIntVal(int64(i)))
		j, err := fl.Await(yield, fl.TriggerCoroutine(n.Body))
		if err != nil {
			return Jump{}, err
		}
		if stop, propagate := j.AtLoopBoundary(); stop {
			return propagate, nil
		}
	}
	return Jump{}, nil
}

type waitNode struct {
	CoroutineNode
	ticks int
}

func (n *waitNode) OnRegister(d *Declarer) error {
	n.DeclareFlow(d)
	return nil
}

func (n *waitNode) OnExecutedCoroutine(_ *Flow, yield func(Wait) bool) (Jump, error) {
	for i := 0; i < n.ticks; i++ {
		if !yield("tick") {
			return Jump{}, ErrStopped
		}
	}
	return Jump{}, nil
}

// portsNode declares one number input per id; used by preservation tests.
type portsNode struct {
	Base
	ids      []string
	dupe     bool
	primary2 bool
	fail     error
	def      cty.Value
	declared []*Port
}

func (n *portsNode) OnRegister(d *Declarer) error {
	n.declared = nil
	def := cty.Zero
	if n.def.Type() != cty.NilType {
		def = n.def
	}
	for _, id := range n.ids {
		n.declared = append(n.declared, d.ValueInput(id, cty.Number).WithDefault(def))
	}
	if n.dupe && len(n.ids) > 0 {
		d.ValueInput(n.ids[0], cty.Number)
	}
	if n.primary2 {
		d.PrimaryFlowOutput("a")
		d.PrimaryFlowOutput("b")
	}
	return n.fail
}

type recordingSpawner struct {
	routines []*Routine
	waits    []Wait
}

func (s *recordingSpawner) Spawn(r *Routine, w Wait) {
	s.routines = append(s.routines, r)
	s.waits = append(s.waits, w)
}

type countingObserver struct {
	registered, failed, flows, redirects, misses, spawned int
}

func (o *countingObserver) Registered(_ *NodeObject, err error) {
	if err != nil {
		o.failed++
		return
	}
	o.registered++
}
func (o *countingObserver) FlowStarted(*NodeObject) { o.flows++ }
func (o *countingObserver) Redirected(_ *NodeObject, found bool) {
	if found {
		o.redirects++
		return
	}
	o.misses++
}
func (o *countingObserver) RoutineSpawned(string) { o.spawned++ }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestGraph(t *testing.T, opts ...Option) *Graph {
	t.Helper()
	return New(t.Name(), append([]Option{WithLogger(quietLogger())}, opts...)...)
}

func mustAdd(t *testing.T, g *Graph, id string, n Node) *NodeObject {
	t.Helper()
	o, err := g.Add(id, "test", n)
	require.NoError(t, err)
	return o
}

func mustConnect(t *testing.T, g *Graph, from, to string) {
	t.Helper()
	require.NoError(t, g.ConnectRef(from, to))
}

func call(t *testing.T, inst *Instance, id string) cty.Value {
	t.Helper()
	v, err := inst.Call(context.Background(), id)
	require.NoError(t, err)
	return v
}
