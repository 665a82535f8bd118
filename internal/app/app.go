package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/metrics"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/modules"
)

// App wires a node registry, metrics and logging around one run of the CLI.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	config   *Config
	metrics  *metrics.Recorder
	server   *http.Server
}

// NewApp builds an App with its own logger and registry. With no modules the
// built-in node catalog is used.
//
// A registry that fails validation is a programmer error and panics.
func NewApp(outW io.Writer, cfg *Config, mods ...registry.Module) *App {
	logger := buildLogger(cfg.LogLevel, cfg.LogFormat, outW)

	if len(mods) == 0 {
		mods = modules.All()
	}
	reg := registry.New(mods...)
	logger.Debug("Node catalog loaded.", "modules", len(mods), "types", len(reg.Types()))

	ctx := ctxlog.WithLogger(context.Background(), logger)
	if err := reg.ValidateRegistry(ctx); err != nil {
		panic(err)
	}

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		config:   cfg,
		metrics:  metrics.NewRecorder(),
	}
}

// Registry returns the node registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Metrics returns the recorder observing every graph the app loads.
func (a *App) Metrics() *metrics.Recorder {
	return a.metrics
}
