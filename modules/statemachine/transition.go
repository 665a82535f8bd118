package statemachine

import (
	"fmt"

	"github.com/vk/flowgridgo/internal/graph"
	"github.com/zclconf/go-cty/cty"
)

// Transition is the behavior a State expects from the nodes listed in its
// transitions.
type Transition interface {
	graph.Node
	graph.Updatable
	graph.TickEmitter
	// OnEnter runs when the owning state becomes active.
	OnEnter(fl *graph.Flow) error
	// OnExit runs when the owning state finishes, whichever transition fired.
	OnExit(fl *graph.Flow) error
	// GenerateEnter emits the statements matching OnEnter.
	GenerateEnter(g graph.Generator) (string, error)
	// ExitPort is triggered when the transition fires.
	ExitPort() *graph.Port
}

// TransitionNode is the base of transition nodes: an entry node with a
// single exit output.
type TransitionNode struct {
	graph.EntryNode
	Exit *graph.Port
}

// DeclareExit declares the primary "exit" output.
func (n *TransitionNode) DeclareExit(d *graph.Declarer) {
	n.Exit = d.PrimaryFlowOutput("exit")
}

func (n *TransitionNode) ExitPort() *graph.Port { return n.Exit }

func (n *TransitionNode) OnEnter(*graph.Flow) error { return nil }
func (n *TransitionNode) OnExit(*graph.Flow) error  { return nil }

func (n *TransitionNode) GenerateEnter(graph.Generator) (string, error) { return "", nil }

// OnGeneratorInitialize is a no-op: the owning state pulls the transition's
// code directly.
func (n *TransitionNode) OnGeneratorInitialize(graph.Generator) error { return nil }

// Condition fires on the first tick its condition reads true.
type Condition struct {
	TransitionNode
	Cond *graph.Port
}

func (n *Condition) OnRegister(d *graph.Declarer) error {
	n.DeclareExit(d)
	n.Cond = d.ValueInput("condition", cty.Bool)
	return nil
}

func (n *Condition) Title() string { return "When" }

func (n *Condition) CheckError(a graph.Analyzer) { n.CheckAssigned(a, n.Cond) }

func (n *Condition) OnUpdate(fl *graph.Flow) (bool, error) {
	return fl.Bool(n.Cond)
}

func (n *Condition) GenerateTick(g graph.Generator, fire string) (string, error) {
	cond, err := g.Value(n.Cond)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("if %s {\n%s}\n", cond, fire), nil
}

// After fires on the Ticks-th tick after the state became active. The
// counter lives in the state's flow.
type After struct {
	TransitionNode

	Ticks int `hcl:"ticks,optional"`
}

func (n *After) OnRegister(d *graph.Declarer) error {
	if n.Ticks < 1 {
		return fmt.Errorf("after needs at least one tick, got %d", n.Ticks)
	}
	n.DeclareExit(d)
	return nil
}

func (n *After) Title() string { return fmt.Sprintf("After %d ticks", n.Ticks) }

func (n *After) OnEnter(fl *graph.Flow) error {
	fl.SetData(n.Exit, cty.Zero)
	return nil
}

func (n *After) OnUpdate(fl *graph.Flow) (bool, error) {
	var count int64
	if v, ok := fl.Data(n.Exit); ok {
		count, _ = v.AsBigFloat().Int64()
	}
	count++
	fl.SetData(n.Exit, cty.NumberIntVal(count))
	return count >= int64(n.Ticks), nil
}

func (n *After) counter(g graph.Generator) string {
	name, _ := g.Declare(n.Exit, nil, "ticks")
	return name
}

func (n *After) GenerateEnter(g graph.Generator) (string, error) {
	return n.counter(g) + " := 0\n", nil
}

func (n *After) GenerateTick(g graph.Generator, fire string) (string, error) {
	c := n.counter(g)
	return fmt.Sprintf("%s++\nif %s >= %d {\n%s}\n", c, c, n.Ticks, fire), nil
}
