package flow

import (
	"fmt"

	"github.com/vk/flowgridgo/internal/graph"
	"github.com/zclconf/go-cty/cty"
)

// If runs one of two branches. Jumps raised inside a branch propagate.
type If struct {
	graph.FlowNode
	Condition   *graph.Port
	True, False *graph.Port
}

func (n *If) OnRegister(d *graph.Declarer) error {
	n.DeclareFlow(d)
	n.Condition = d.ValueInput("condition", cty.Bool)
	n.True = d.FlowOutput("true")
	n.False = d.FlowOutput("false")
	return nil
}

func (n *If) Title() string { return "If" }
func (n *If) Icon() string  { return "branch" }

func (n *If) CheckError(a graph.Analyzer) { n.CheckAssigned(a, n.Condition) }

func (n *If) OnExecutedCoroutine(fl *graph.Flow, yield func(graph.Wait) bool) (graph.Jump, error) {
	ok, err := fl.Bool(n.Condition)
	if err != nil {
		return graph.Jump{}, err
	}
	branch := n.False
	if ok {
		branch = n.True
	}
	return fl.Await(yield, fl.TriggerCoroutine(branch))
}

func (n *If) GenerateFlowCode(g graph.Generator) (string, error) {
	cond, err := g.Value(n.Condition)
	if err != nil {
		return "", err
	}
	t, err := g.Flow(n.True)
	if err != nil {
		return "", err
	}
	f, err := g.Flow(n.False)
	if err != nil {
		return "", err
	}
	if f == "" {
		return fmt.Sprintf("if %s {\n%s}\n", cond, t), nil
	}
	return fmt.Sprintf("if %s {\n%s} else {\n%s}\n", cond, t, f), nil
}
