package nodeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePortRef(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expectErr bool
		expected  PortRef
	}{
		{
			name:     "plain port",
			raw:      "loop.body",
			expected: PortRef{Node: "loop", Port: NewSegment("body")},
		},
		{
			name:     "indexed port",
			raw:      "start.out[0]",
			expected: PortRef{Node: "start", Port: NewIndexedSegment("out", 0)},
		},
		{
			name:     "uuid node",
			raw:      "3f1c2a9e-77d4-4c55-9a3e-0b6f7f7d1c11.exit",
			expected: PortRef{Node: "3f1c2a9e-77d4-4c55-9a3e-0b6f7f7d1c11", Port: NewSegment("exit")},
		},
		{name: "error - empty", raw: "", expectErr: true},
		{name: "error - no port", raw: "loop", expectErr: true},
		{name: "error - trailing dot", raw: "loop.", expectErr: true},
		{name: "error - leading dot", raw: ".body", expectErr: true},
		{name: "error - bad index", raw: "a.b[x]", expectErr: true},
		{name: "error - hyphen only node", raw: "-.b", expectErr: true},
		{name: "error - nested path", raw: "a.b.c", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ref, err := ParsePortRef(tc.raw)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ref)
		})
	}
}

func TestPortRef_RoundTrip(t *testing.T) {
	for _, raw := range []string{"start.out[0]", "loop.body", "and-1.in[12]"} {
		t.Run(raw, func(t *testing.T) {
			ref, err := ParsePortRef(raw)
			require.NoError(t, err)
			assert.Equal(t, raw, ref.String())

			again, err := ParsePortRef(ref.String())
			require.NoError(t, err)
			assert.Equal(t, ref, again)
		})
	}
}

func TestIndexedID(t *testing.T) {
	assert.Equal(t, "out[3]", IndexedID("out", 3))
	assert.Equal(t, "in[0]", NewIndexedSegment("in", 0).String())
	assert.Equal(t, "body", NewSegment("body").String())
	assert.False(t, NewSegment("body").HasIndex())
}
