package flow

import (
	"errors"

	"github.com/vk/flowgridgo/internal/graph"
	"github.com/zclconf/go-cty/cty"
)

var errOutsideLoop = errors.New("jump outside of a loop")

// Break leaves the innermost loop.
type Break struct {
	graph.BaseFlowNode
}

func (n *Break) OnRegister(d *graph.Declarer) error {
	n.DeclareEnter(d)
	return nil
}

func (n *Break) Title() string { return "Break" }

func (n *Break) OnExecuted(*graph.Flow) (graph.Jump, error) { return graph.Break, nil }

func (n *Break) GenerateFlowCode(g graph.Generator) (string, error) {
	if !g.InLoop() {
		return "", errOutsideLoop
	}
	return "break\n", nil
}

// Continue skips to the next iteration of the innermost loop.
type Continue struct {
	graph.BaseFlowNode
}

func (n *Continue) OnRegister(d *graph.Declarer) error {
	n.DeclareEnter(d)
	return nil
}

func (n *Continue) Title() string { return "Continue" }

func (n *Continue) OnExecuted(*graph.Flow) (graph.Jump, error) { return graph.Continue, nil }

func (n *Continue) GenerateFlowCode(g graph.Generator) (string, error) {
	if !g.InLoop() {
		return "", errOutsideLoop
	}
	return "continue\n", nil
}

// Return ends the current event. The value input is optional.
type Return struct {
	graph.BaseFlowNode
	Value *graph.Port
}

func (n *Return) OnRegister(d *graph.Declarer) error {
	n.DeclareEnter(d)
	n.Value = d.ValueInput("value", cty.DynamicPseudoType).WithDefault(cty.NullVal(cty.DynamicPseudoType))
	return nil
}

func (n *Return) Title() string { return "Return" }

func (n *Return) OnExecuted(fl *graph.Flow) (graph.Jump, error) {
	v, err := fl.Value(n.Value)
	if err != nil {
		return graph.Jump{}, err
	}
	return graph.Return(v), nil
}

func (n *Return) GenerateFlowCode(g graph.Generator) (string, error) {
	if !n.Value.Connected() {
		return "return nil\n", nil
	}
	expr, err := g.Value(n.Value)
	if err != nil {
		return "", err
	}
	return "return " + expr + "\n", nil
}
