package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindGraphFiles(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.fg.hcl", "sub/b.fg.hcl", "sub/deeper/c.fg.hcl", "notes.hcl", "sub/d.txt"} {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}
	j := func(name string) string { return filepath.Join(root, filepath.FromSlash(name)) }

	testCases := []struct {
		name    string
		pattern string
		paths   []string
		want    []string
		wantErr bool
	}{
		{
			name:  "directory with default pattern",
			paths: []string{root},
			want:  []string{j("a.fg.hcl"), j("sub/b.fg.hcl"), j("sub/deeper/c.fg.hcl")},
		},
		{
			name:    "custom pattern",
			pattern: "*.hcl",
			paths:   []string{root},
			want:    []string{j("a.fg.hcl"), j("notes.hcl")},
		},
		{
			name:  "explicit file is kept regardless of pattern",
			paths: []string{j("sub/d.txt"), j("sub/d.txt")},
			want:  []string{j("sub/d.txt")},
		},
		{
			name:  "glob path",
			paths: []string{j("sub/**/*.fg.hcl")},
			want:  []string{j("sub/b.fg.hcl"), j("sub/deeper/c.fg.hcl")},
		},
		{
			name:    "glob without matches",
			paths:   []string{j("nothing/*.fg.hcl")},
			wantErr: true,
		},
		{
			name:    "invalid pattern",
			pattern: "[",
			paths:   []string{root},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FindGraphFiles(tc.pattern, tc.paths...)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("**/*.fg.hcl", "a/b/c.fg.hcl"))
	assert.False(t, Match("*.fg.hcl", "a/c.fg.hcl"))
}
