package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, ids []string, edges [][2]string) *Graph {
	t.Helper()
	g := New()
	for _, id := range ids {
		g.AddNode(id)
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}
	return g
}

func TestAddNode(t *testing.T) {
	g := New()
	g.AddNode("a")
	g.AddNode("a")
	g.AddNode("b")
	assert.Equal(t, 2, g.Len())
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := build(t, []string{"a", "b", "c"}, [][2]string{{"a", "c"}, {"b", "c"}, {"a", "c"}})

		deps, err := g.Dependencies("c")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, deps)

		dependents, err := g.Dependents("a")
		require.NoError(t, err)
		assert.Equal(t, []string{"c"}, dependents, "duplicate edges are ignored")
	})

	t.Run("error cases", func(t *testing.T) {
		g := build(t, []string{"a", "b"}, nil)
		assert.ErrorContains(t, g.AddEdge("dne", "a"), "source node not found")
		assert.ErrorContains(t, g.AddEdge("a", "dne"), "destination node not found")
		assert.ErrorContains(t, g.AddEdge("a", "a"), "self-referential edge")

		_, err := g.Dependencies("dne")
		assert.ErrorContains(t, err, "node not found")
		_, err = g.Dependents("dne")
		assert.ErrorContains(t, err, "node not found")
	})
}

func TestCycle(t *testing.T) {
	testCases := []struct {
		name  string
		ids   []string
		edges [][2]string
		want  []string
	}{
		{name: "empty graph"},
		{name: "no edges", ids: []string{"a", "b", "c"}},
		{
			name:  "valid dag",
			ids:   []string{"a", "b", "c", "d"},
			edges: [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}, {"c", "d"}},
		},
		{
			name:  "direct cycle",
			ids:   []string{"a", "b"},
			edges: [][2]string{{"a", "b"}, {"b", "a"}},
			want:  []string{"a", "b"},
		},
		{
			name:  "longer cycle",
			ids:   []string{"a", "b", "c", "d"},
			edges: [][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "a"}},
			want:  []string{"a", "b", "c", "d"},
		},
		{
			name:  "cycle in a disjoint component",
			ids:   []string{"a", "b", "x", "y", "z"},
			edges: [][2]string{{"a", "b"}, {"x", "y"}, {"y", "z"}, {"z", "y"}},
			want:  []string{"y", "z"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := build(t, tc.ids, tc.edges)
			assert.Equal(t, tc.want, g.Cycle())
			if tc.want == nil {
				assert.NoError(t, g.DetectCycles())
				return
			}
			assert.ErrorContains(t, g.DetectCycles(), "cycle detected: ")
		})
	}
}

func TestDetectCycles_NamesPath(t *testing.T) {
	g := build(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "b"}})
	assert.EqualError(t, g.DetectCycles(), "cycle detected: b -> c -> b")
}
