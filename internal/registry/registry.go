package registry

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/vk/flowgridgo/internal/graph"
)

// Module is the interface that all node catalogs implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Type describes one node type.
type Type struct {
	// Name is the type tag stored in documents.
	Name string
	// New returns a node with its default configuration.
	New func() graph.Node
	// Description is a one-line summary shown by tooling.
	Description string
}

// Registry holds the node types of a single application instance.
type Registry struct {
	types map[string]*Type
}

// New creates an empty Registry and registers the given modules into it.
func New(modules ...Module) *Registry {
	r := &Registry{types: make(map[string]*Type)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Register adds a node type. Registering the same name twice panics.
func (r *Registry) Register(t *Type) {
	if t == nil || t.Name == "" || t.New == nil {
		panic("node type must have a name and a constructor")
	}
	if _, exists := r.types[t.Name]; exists {
		panic(fmt.Sprintf("node type '%s' already registered", t.Name))
	}
	slog.Debug("Registering node type.", "type", t.Name)
	r.types[t.Name] = t
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (*Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// NewNode creates a node of the named type.
func (r *Registry) NewNode(name string) (graph.Node, error) {
	t, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("node type %q: %w", name, graph.ErrMissingType)
	}
	return t.New(), nil
}

// Types returns the registered type names in sorted order.
func (r *Registry) Types() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
