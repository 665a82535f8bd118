package testutil

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/flowgridgo/internal/graph"
)

// Builder assembles small graphs in code for tests.
type Builder struct {
	t *testing.T
	G *graph.Graph
}

// NewBuilder creates a builder over an empty graph with a discarding logger.
func NewBuilder(t *testing.T, opts ...graph.Option) *Builder {
	t.Helper()
	opts = append([]graph.Option{graph.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return &Builder{t: t, G: graph.New(t.Name(), opts...)}
}

// Add adds and registers n under id and returns it.
func Add[T graph.Node](b *Builder, id string, n T) T {
	b.t.Helper()
	o, err := b.G.Add(id, "test", n)
	require.NoError(b.t, err)
	require.NoError(b.t, o.Register())
	return n
}

// Connect connects two ports addressed by reference, e.g. "start.out[0]".
func (b *Builder) Connect(from, to string) *Builder {
	b.t.Helper()
	require.NoError(b.t, b.G.ConnectRef(from, to))
	return b
}

// Run triggers event on a fresh instance and returns what print nodes wrote.
func Run(t *testing.T, g *graph.Graph, event string, opts ...graph.InstanceOption) (string, error) {
	t.Helper()
	var out bytes.Buffer
	inst := graph.NewInstance(g, append([]graph.InstanceOption{graph.WithOutput(&out)}, opts...)...)
	err := inst.Trigger(context.Background(), event)
	return out.String(), err
}
