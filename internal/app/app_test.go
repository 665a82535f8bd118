package app

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgridgo/internal/testutil"
)

const countingGraph = `
node "event.start" "start" {}

node "flow.for" "loop" {
  to = 3
}

node "flow.print" "p" {}

connect {
  from = "start.out[0]"
  to   = "loop.enter"
}

connect {
  from = "loop.body"
  to   = "p.enter"
}

connect {
  from = "loop.index"
  to   = "p.value"
}
`

func setupApp(t *testing.T, cfg Config) (*App, *testutil.SafeBuffer) {
	t.Helper()
	if cfg.LogLevel == "" {
		cfg.LogLevel = "error"
	}
	config, err := NewConfig(cfg)
	require.NoError(t, err)
	out := &testutil.SafeBuffer{}
	return NewApp(out, config), out
}

func TestApp_Run(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{"main.fg.hcl": countingGraph})
	a, out := setupApp(t, Config{GraphPaths: []string{dir}})

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, "0\n1\n2\n", out.String())
}

func TestApp_Emit(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{"main.fg.hcl": countingGraph})
	a, out := setupApp(t, Config{GraphPaths: []string{dir}, EmitPath: "-"})

	require.NoError(t, a.Run(context.Background()))
	src := out.String()
	assert.True(t, strings.HasPrefix(src, "// Code generated by flowgridgo. DO NOT EDIT."))
	assert.Contains(t, src, "package main")
	assert.Contains(t, src, "fmt.Println(")
}

func TestApp_SaveAndReload(t *testing.T) {
	for _, ext := range []string{".yaml", ".fgb", ".fg.hcl"} {
		t.Run(ext, func(t *testing.T) {
			dir := testutil.WriteFiles(t, map[string]string{"main.fg.hcl": countingGraph})
			saved := filepath.Join(t.TempDir(), "graph"+ext)
			a, _ := setupApp(t, Config{GraphPaths: []string{dir}, SavePath: saved, CheckOnly: false})
			require.NoError(t, a.Run(context.Background()))

			b, out := setupApp(t, Config{GraphPaths: []string{saved}})
			require.NoError(t, b.Run(context.Background()))
			assert.Equal(t, "0\n1\n2\n", out.String())
		})
	}
}

func TestApp_CheckFails(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{"main.fg.hcl": `node "plugin.gone" "x" {}`})
	a, out := setupApp(t, Config{GraphPaths: []string{dir}, CheckOnly: true})

	err := a.Run(context.Background())
	require.ErrorIs(t, err, ErrCheckFailed)
	assert.Contains(t, out.String(), "Missing node type")
}

func TestApp_WaitsForScheduledRoutines(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{"main.fg.hcl": `
node "event.start" "start" {
  outputs = 2
}

node "flow.wait" "w" {
  ms = 1
}

node "flow.print" "after" {
  defaults = {
    value = "after"
  }
}

node "flow.print" "first" {
  defaults = {
    value = "first"
  }
}

connect {
  from = "start.out[0]"
  to   = "w.enter"
}

connect {
  from = "w.exit"
  to   = "after.enter"
}

connect {
  from = "start.out[1]"
  to   = "first.enter"
}
`})
	a, out := setupApp(t, Config{GraphPaths: []string{dir}, TickInterval: time.Millisecond})

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, "first\nafter\n", out.String())
}

func TestApp_Handler(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{"main.fg.hcl": countingGraph})
	a, _ := setupApp(t, Config{GraphPaths: []string{dir}})
	require.NoError(t, a.Run(context.Background()))

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "OK\n", w.Body.String())

	w = httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, w.Body.String(), `flowgrid_registrations_total{result="ok",type="flow.for"} 1`)
	assert.Contains(t, w.Body.String(), `flowgrid_flows_started_total{type="event.start"} 1`)
}

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "defaults filled", cfg: Config{GraphPaths: []string{"g"}}},
		{name: "missing paths", cfg: Config{}, wantErr: "GraphPaths"},
		{name: "empty path", cfg: Config{GraphPaths: []string{""}}, wantErr: "GraphPaths[0]"},
		{name: "bad level", cfg: Config{GraphPaths: []string{"g"}, LogLevel: "loud"}, wantErr: "LogLevel"},
		{name: "bad port", cfg: Config{GraphPaths: []string{"g"}, MetricsPort: 70000}, wantErr: "MetricsPort"},
		{name: "empty event", cfg: Config{GraphPaths: []string{"g"}, Events: []string{""}}, wantErr: "Events[0]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.cfg)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 10*time.Millisecond, cfg.TickInterval)
			assert.Equal(t, "text", cfg.LogFormat)
			assert.Equal(t, "info", cfg.LogLevel)
		})
	}
}
