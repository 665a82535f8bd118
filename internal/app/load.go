package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/hcl_adapter"
	"github.com/vk/flowgridgo/internal/serialize"
)

// isDocument reports whether paths name a single saved document rather
// than HCL sources.
func isDocument(paths []string) bool {
	if len(paths) != 1 {
		return false
	}
	switch filepath.Ext(paths[0]) {
	case ".yaml", ".yml", ".fgb":
		return true
	}
	return false
}

// LoadGraph loads the configured graph. The app's metrics recorder observes
// the registrations.
func (a *App) LoadGraph(ctx context.Context) (*graph.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	name := filepath.Base(a.config.GraphPaths[0])

	if isDocument(a.config.GraphPaths) {
		path := a.config.GraphPaths[0]
		logger.Debug("Loading saved document.", "path", path)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		doc, err := serialize.Unmarshal(data, serialize.FormatFor(path))
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return serialize.NewCodec(a.registry, logger).Decode(doc, graph.WithObserver(a.metrics))
	}

	g, err := hcl_adapter.NewLoader(a.registry, a.config.Pattern, graph.WithObserver(a.metrics)).Load(ctx, name, a.config.GraphPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	return g, nil
}

// SaveGraph writes g as a document to path, in the format its extension
// selects: HCL for .hcl, YAML for .yaml and .yml, msgpack otherwise.
func (a *App) SaveGraph(g *graph.Graph, path string) error {
	doc, err := serialize.NewCodec(a.registry, a.logger).Encode(g)
	if err != nil {
		return err
	}
	var data []byte
	if strings.HasSuffix(path, ".hcl") {
		data, err = hcl_adapter.Write(doc)
	} else {
		data, err = serialize.Marshal(doc, serialize.FormatFor(path))
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	a.logger.Info("Graph saved.", "path", path, "nodes", len(doc.Nodes))
	return nil
}
