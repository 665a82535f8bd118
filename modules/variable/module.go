// Package variable provides the nodes reading and writing graph variables.
package variable

import (
	"fmt"

	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the node types with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Type{
		Name:        "variable.get",
		New:         func() graph.Node { return &Get{} },
		Description: "Reads a graph variable.",
	})
	r.Register(&registry.Type{
		Name:        "variable.set",
		New:         func() graph.Node { return &Set{} },
		Description: "Assigns a graph variable and outputs the new value.",
	})
}

// typeOf resolves the declared type of a graph variable on demand.
func typeOf(b *graph.Base, name *string) graph.TypeFunc {
	return func() cty.Type {
		if o := b.Object(); o != nil {
			if v, ok := o.Graph().Variable(*name); ok {
				return v.Type()
			}
		}
		return cty.DynamicPseudoType
	}
}

func checkDeclared(a graph.Analyzer, o *graph.NodeObject, name string) {
	if _, ok := o.Graph().Variable(name); !ok {
		a.Error(o, "Unknown variable", fmt.Sprintf("Variable %q is not declared.", name))
	}
}

// Get outputs the current value of a graph variable.
type Get struct {
	graph.ValueNode

	Name string `hcl:"name"`
}

func (n *Get) OnRegister(d *graph.Declarer) error {
	n.DeclareOutput(d, "value", typeOf(&n.Base, &n.Name))
	return nil
}

func (n *Get) Title() string { return "Get " + n.Name }

func (n *Get) CheckError(a graph.Analyzer) { checkDeclared(a, n.Object(), n.Name) }

func (n *Get) GetValue(fl *graph.Flow) (cty.Value, error) {
	return fl.Instance().Variable(n.Name)
}

func (n *Get) GenerateValueCode(g graph.Generator) (string, error) {
	return g.Variable(n.Name)
}

// Set assigns a graph variable when entered. Its output reads the variable.
type Set struct {
	graph.FlowValueNode

	Name string `hcl:"name"`

	In *graph.Port
}

func (n *Set) OnRegister(d *graph.Declarer) error {
	n.DeclareFlow(d)
	n.In = d.ValueInputFunc("value", typeOf(&n.Base, &n.Name))
	n.DeclareOutput(d, "value", typeOf(&n.Base, &n.Name))
	return nil
}

func (n *Set) Title() string { return "Set " + n.Name }

func (n *Set) CheckError(a graph.Analyzer) {
	checkDeclared(a, n.Object(), n.Name)
	n.CheckAssigned(a, n.In)
}

func (n *Set) OnExecuted(fl *graph.Flow) (graph.Jump, error) {
	v, err := fl.Value(n.In)
	if err != nil {
		return graph.Jump{}, err
	}
	return graph.Jump{}, fl.Instance().SetVariable(n.Name, v)
}

func (n *Set) GetValue(fl *graph.Flow) (cty.Value, error) {
	return fl.Instance().Variable(n.Name)
}

func (n *Set) GenerateFlowCode(g graph.Generator) (string, error) {
	name, err := g.Variable(n.Name)
	if err != nil {
		return "", err
	}
	expr, err := g.Value(n.In)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s = %s\n", name, expr), nil
}

func (n *Set) GenerateValueCode(g graph.Generator) (string, error) {
	return g.Variable(n.Name)
}
