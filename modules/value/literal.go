package value

import (
	"github.com/vk/flowgridgo/internal/graph"
	"github.com/zclconf/go-cty/cty"
)

// Literal outputs its configured value. The output type is re-read from the
// value on every query, so editing the value retypes the port in place.
type Literal struct {
	graph.ValueNode

	Value cty.Value `hcl:"value,optional"`
}

func (n *Literal) OnRegister(d *graph.Declarer) error {
	n.DeclareOutput(d, "value", n.typ)
	return nil
}

func (n *Literal) Title() string { return "Literal" }

func (n *Literal) value() cty.Value {
	if n.Value.Type() == cty.NilType {
		return cty.NullVal(cty.DynamicPseudoType)
	}
	return n.Value
}

func (n *Literal) typ() cty.Type {
	return n.value().Type()
}

func (n *Literal) GetValue(*graph.Flow) (cty.Value, error) {
	return n.value(), nil
}

func (n *Literal) GenerateValueCode(g graph.Generator) (string, error) {
	return g.Literal(n.value())
}
