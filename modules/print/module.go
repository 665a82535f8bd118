package print

import (
	"fmt"

	"github.com/vk/flowgridgo/internal/ctyconv"
	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Print writes its input to the instance output, one value per line, in the
// format fmt.Println uses for the native value.
type Print struct {
	graph.FlowNode
	In *graph.Port
}

func (n *Print) OnRegister(d *graph.Declarer) error {
	n.DeclareFlow(d)
	n.In = d.ValueInput("value", cty.DynamicPseudoType)
	return nil
}

func (n *Print) Title() string { return "Print" }

func (n *Print) CheckError(a graph.Analyzer) { n.CheckAssigned(a, n.In) }

// OnExecuted is the interpreted half of the print node.
func (n *Print) OnExecuted(fl *graph.Flow) (graph.Jump, error) {
	v, err := fl.Value(n.In)
	if err != nil {
		return graph.Jump{}, err
	}
	native, err := ctyconv.ToNative(v)
	if err != nil {
		return graph.Jump{}, err
	}
	fl.Logger().Debug("Printing value.", "node", n.Object().StableID)
	if _, err := fmt.Fprintln(fl.Instance().Output(), native); err != nil {
		return graph.Jump{}, fmt.Errorf("print: %w", err)
	}
	return graph.Jump{}, nil
}

func (n *Print) GenerateFlowCode(g graph.Generator) (string, error) {
	expr, err := g.Value(n.In)
	if err != nil {
		return "", err
	}
	g.Import("fmt")
	return "fmt.Println(" + expr + ")\n", nil
}

// Register registers the node type with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Type{
		Name:        "flow.print",
		New:         func() graph.Node { return &Print{} },
		Description: "Prints a value on its own line.",
	})
}
