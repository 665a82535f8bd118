package value

import (
	"fmt"
	"strings"

	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// Gate is the n-ary AND / OR. Inputs are evaluated in order and evaluation
// stops as soon as the result is known.
type Gate struct {
	graph.ValueNode

	Inputs int `hcl:"inputs,optional"`

	or bool
	in []*graph.Port
}

func (n *Gate) OnRegister(d *graph.Declarer) error {
	if n.Inputs < 2 {
		return fmt.Errorf("%s needs at least 2 inputs, got %d", n.Title(), n.Inputs)
	}
	n.in = make([]*graph.Port, n.Inputs)
	for i := range n.in {
		n.in[i] = d.ValueInput(nodeid.IndexedID("in", i), cty.Bool)
	}
	n.DeclareOutput(d, "result", graph.StaticType(cty.Bool))
	return nil
}

func (n *Gate) Title() string {
	if n.or {
		return "OR"
	}
	return "AND"
}

func (n *Gate) CheckError(a graph.Analyzer) {
	n.CheckAssigned(a, n.in...)
}

func (n *Gate) GetValue(fl *graph.Flow) (cty.Value, error) {
	for _, p := range n.in {
		b, err := fl.Bool(p)
		if err != nil {
			return cty.NilVal, err
		}
		if b == n.or {
			return cty.BoolVal(n.or), nil
		}
	}
	return cty.BoolVal(!n.or), nil
}

func (n *Gate) GenerateValueCode(g graph.Generator) (string, error) {
	op := " && "
	if n.or {
		op = " || "
	}
	terms := make([]string, len(n.in))
	for i, p := range n.in {
		expr, err := g.Value(p)
		if err != nil {
			return "", err
		}
		terms[i] = expr
	}
	return "(" + strings.Join(terms, op) + ")", nil
}

// Not negates a bool.
type Not struct {
	graph.ValueNode
	In *graph.Port
}

func (n *Not) OnRegister(d *graph.Declarer) error {
	n.In = d.ValueInput("in", cty.Bool)
	n.DeclareOutput(d, "result", graph.StaticType(cty.Bool))
	return nil
}

func (n *Not) Title() string { return "NOT" }

func (n *Not) CheckError(a graph.Analyzer) { n.CheckAssigned(a, n.In) }

func (n *Not) GetValue(fl *graph.Flow) (cty.Value, error) {
	b, err := fl.Bool(n.In)
	if err != nil {
		return cty.NilVal, err
	}
	return cty.BoolVal(!b), nil
}

func (n *Not) GenerateValueCode(g graph.Generator) (string, error) {
	expr, err := g.Value(n.In)
	if err != nil {
		return "", err
	}
	return "!" + expr, nil
}
