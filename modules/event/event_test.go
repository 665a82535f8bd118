package event

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/testutil"
	"github.com/vk/flowgridgo/modules/print"
	"github.com/zclconf/go-cty/cty"
)

func TestEvent_FansOutInOrder(t *testing.T) {
	b := testutil.NewBuilder(t)
	testutil.Add(b, "start", &Event{Count: 3})
	// Printers are added in reverse so that insertion order can not explain
	// the output.
	for _, id := range []string{"c", "b", "a"} {
		p := testutil.Add(b, id, &print.Print{})
		p.In.WithDefault(cty.StringVal(id))
	}
	b.Connect("start.out[0]", "a.enter").
		Connect("start.out[1]", "b.enter").
		Connect("start.out[2]", "c.enter")

	out, err := testutil.Run(t, b.G, "start")
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\n", out)
}

func TestEvent_NeedsOutputs(t *testing.T) {
	b := testutil.NewBuilder(t)
	o, err := b.G.Add("start", "event.start", &Event{})
	require.NoError(t, err)
	assert.ErrorContains(t, o.Register(), "at least one output")
	assert.Equal(t, graph.Faulted, o.State())
}

func TestEvent_TitlesFromRegistry(t *testing.T) {
	reg := registry.New(&Module{})
	testCases := []struct {
		typeName string
		name     string
		want     string
	}{
		{typeName: "event.start", want: "Start"},
		{typeName: "event.custom", want: "Custom Event"},
		{typeName: "event.custom", name: "reset", want: "reset"},
	}

	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			n, err := reg.NewNode(tc.typeName)
			require.NoError(t, err)
			ev := n.(*Event)
			ev.Name = tc.name
			assert.Equal(t, tc.want, ev.Title())
		})
	}
}

func TestTrigger_UnknownAndNonEntry(t *testing.T) {
	b := testutil.NewBuilder(t)
	testutil.Add(b, "print", &print.Print{})
	inst := graph.NewInstance(b.G)

	assert.ErrorIs(t, inst.Trigger(context.Background(), "nope"), graph.ErrUnknownNode)
	assert.ErrorIs(t, inst.Trigger(context.Background(), "print"), graph.ErrNotExecutable)
}
