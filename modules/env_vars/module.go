package env_vars

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Get outputs the value of an environment variable, or the empty string.
type Get struct {
	graph.ValueNode

	Name string `hcl:"name"`
}

func (n *Get) OnRegister(d *graph.Declarer) error {
	n.DeclareOutput(d, "value", graph.StaticType(cty.String))
	return nil
}

func (n *Get) Title() string { return "$" + n.Name }

func (n *Get) CheckError(a graph.Analyzer) {
	if n.Name == "" {
		a.Error(n.Object(), "Missing variable name", "Set the name of the environment variable to read.")
	}
}

func (n *Get) GetValue(*graph.Flow) (cty.Value, error) {
	if n.Name == "" {
		return cty.NilVal, fmt.Errorf("environment variable name: %w", graph.ErrUnassigned)
	}
	return cty.StringVal(os.Getenv(n.Name)), nil
}

func (n *Get) GenerateValueCode(g graph.Generator) (string, error) {
	if n.Name == "" {
		return "", fmt.Errorf("environment variable name: %w", graph.ErrUnassigned)
	}
	g.Import("os")
	return "os.Getenv(" + strconv.Quote(n.Name) + ")", nil
}

// Register registers the node type with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Type{
		Name:        "env.get",
		New:         func() graph.Node { return &Get{} },
		Description: "Reads an environment variable.",
	})
}
