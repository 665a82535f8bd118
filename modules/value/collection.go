package value

import (
	"fmt"

	"github.com/vk/flowgridgo/internal/graph"
	"github.com/zclconf/go-cty/cty"
)

// ListType is the input type of collection nodes. Tuples and sets convert
// into it.
var ListType = cty.List(cty.DynamicPseudoType)

// Length outputs the number of elements of a collection.
type Length struct {
	graph.ValueNode
	Collection *graph.Port
}

func (n *Length) OnRegister(d *graph.Declarer) error {
	n.Collection = d.ValueInput("collection", ListType)
	n.DeclareOutput(d, "length", graph.StaticType(cty.Number))
	return nil
}

func (n *Length) Title() string { return "Length" }

func (n *Length) CheckError(a graph.Analyzer) { n.CheckAssigned(a, n.Collection) }

func (n *Length) GetValue(fl *graph.Flow) (cty.Value, error) {
	v, err := fl.Required(n.Collection)
	if err != nil {
		return cty.NilVal, err
	}
	if !v.CanIterateElements() {
		return cty.NilVal, fmt.Errorf("%s is not a collection", v.Type().FriendlyName())
	}
	return cty.NumberIntVal(int64(v.LengthInt())), nil
}

func (n *Length) GenerateValueCode(g graph.Generator) (string, error) {
	expr, err := g.Value(n.Collection)
	if err != nil {
		return "", err
	}
	return "float64(len(" + expr + "))", nil
}
