package serialize

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/testutil"
	"github.com/vk/flowgridgo/modules"
	"github.com/vk/flowgridgo/modules/flow"
	"github.com/vk/flowgridgo/modules/statemachine"
	"github.com/zclconf/go-cty/cty"
)

func newCodec() *Codec {
	return NewCodec(registry.New(modules.All()...), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func countingGraph(t *testing.T, reg *registry.Registry) *graph.Graph {
	t.Helper()
	g := graph.New("counting", graph.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	add := func(id, typ string, configure func(graph.Node)) {
		n, err := reg.NewNode(typ)
		require.NoError(t, err)
		if configure != nil {
			configure(n)
		}
		o, err := g.Add(id, typ, n)
		require.NoError(t, err)
		o.Position = graph.Position{X: 1, Y: 2}
	}
	add("start", "event.start", nil)
	add("loop", "flow.for", func(n graph.Node) { n.(*flow.For).To = 3 })
	add("p", "flow.print", nil)
	add("idle", "state", func(n graph.Node) { n.(*statemachine.State).Transitions = []string{"later"} })
	add("later", "transition.after", nil)
	g.DeclareVariable("total", cty.NumberIntVal(7))
	require.NoError(t, g.RegisterAll())
	require.NoError(t, g.ConnectRef("start.out[0]", "loop.enter"))
	require.NoError(t, g.ConnectRef("loop.body", "p.enter"))
	require.NoError(t, g.ConnectRef("loop.index", "p.value"))
	return g
}

func TestCodec_RoundTrip(t *testing.T) {
	for _, f := range []Format{YAML, Msgpack} {
		t.Run(string(f), func(t *testing.T) {
			c := newCodec()
			g := countingGraph(t, c.registry)

			doc, err := c.Encode(g)
			require.NoError(t, err)
			data, err := Marshal(doc, f)
			require.NoError(t, err)
			back, err := Unmarshal(data, f)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(doc, back))

			g2, err := c.Decode(back)
			require.NoError(t, err)
			assert.False(t, g2.Check().HasErrors())

			loop, ok := g2.Object("loop")
			require.True(t, ok)
			assert.Equal(t, float64(3), loop.Logic().(*flow.For).To)
			assert.Equal(t, graph.Position{X: 1, Y: 2}, loop.Position)
			idle, _ := g2.Object("idle")
			assert.Equal(t, []string{"later"}, idle.Logic().(*statemachine.State).Transitions)
			v, ok := g2.Variable("total")
			require.True(t, ok)
			assert.True(t, v.Default.Equals(cty.NumberIntVal(7)).True())

			out, err := testutil.Run(t, g2, "start")
			require.NoError(t, err)
			assert.Equal(t, "0\n1\n2\n", out)

			again, err := c.Encode(g2)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(doc, again))
		})
	}
}

func TestCodec_RecordsReferences(t *testing.T) {
	c := newCodec()
	doc, err := c.Encode(countingGraph(t, c.registry))
	require.NoError(t, err)

	for _, rec := range doc.Nodes {
		if rec.ID == "idle" {
			assert.Equal(t, []string{"later"}, rec.Refs)
			return
		}
	}
	t.Fatal("state node not encoded")
}

func TestCodec_UnknownTypeIsKept(t *testing.T) {
	state, err := EncodeValue(cty.ObjectVal(map[string]cty.Value{"speed": cty.NumberIntVal(4)}))
	require.NoError(t, err)
	doc := &Document{
		Name: "legacy",
		Nodes: []NodeRecord{
			{ID: "old", Type: "plugin.gone", State: state},
			{ID: "start", Type: "event.start"},
			{ID: "broken", Type: "flow.print", State: Blob{Type: `"number"`, Data: []byte{0x01}}},
		},
		Connections: []ConnectionRecord{{From: "start.out[0]", To: "old.enter"}},
	}

	c := newCodec()
	g, err := c.Decode(doc)
	require.NoError(t, err)

	old, ok := g.Object("old")
	require.True(t, ok)
	assert.Nil(t, old.Logic())
	assert.NotEmpty(t, old.Opaque)
	broken, _ := g.Object("broken")
	assert.Nil(t, broken.Logic(), "state that is not an object leaves the node without logic")

	report := g.Check()
	require.True(t, report.HasErrors())

	again, err := c.Encode(g)
	require.NoError(t, err)
	require.Len(t, again.Nodes, 3)
	assert.Equal(t, state, again.Nodes[0].State)
	assert.Empty(t, again.Connections)
}

func TestState_IgnoresUnknownAttributes(t *testing.T) {
	state, err := EncodeValue(cty.ObjectVal(map[string]cty.Value{
		"to":      cty.NumberIntVal(5),
		"removed": cty.True,
	}))
	require.NoError(t, err)

	n := &flow.For{From: 1}
	require.NoError(t, DecodeState(state, n))
	assert.Equal(t, float64(1), n.From)
	assert.Equal(t, float64(5), n.To)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, YAML, FormatFor("graph.yaml"))
	assert.Equal(t, YAML, FormatFor("graph.yml"))
	assert.Equal(t, Msgpack, FormatFor("graph.fgb"))
	_, err := Marshal(&Document{}, Format("xml"))
	assert.Error(t, err)
}

func TestBlob_YAML(t *testing.T) {
	testCases := []struct {
		name   string
		data   []byte
		binary bool
	}{
		{name: "msgpack bytes", data: []byte{0x81, 0xa1, 'x', 0xcb, 0xff, 0x00}, binary: true},
		{name: "text", data: []byte("plain")},
		{name: "empty", data: []byte{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := &Document{Name: "g", Variables: []VariableRecord{{Name: "v", Default: Blob{Type: `"number"`, Data: tc.data}}}}
			out, err := Marshal(doc, YAML)
			require.NoError(t, err)
			if tc.binary {
				assert.Contains(t, string(out), "!!binary")
			}

			back, err := Unmarshal(out, YAML)
			require.NoError(t, err)
			require.Len(t, back.Variables, 1)
			assert.Equal(t, tc.data, back.Variables[0].Default.Data)
		})
	}
}
