package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"log/slog"
	"slices"

	"github.com/vk/flowgridgo/internal/graph"
	"github.com/zclconf/go-cty/cty"
)

// EventEmitter is implemented by entry nodes that can be emitted as a whole
// function.
type EventEmitter interface {
	GenerateEventCode(g graph.Generator) (string, error)
}

// Option configures Emit.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used while emitting.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Emit produces a formatted Go program for g. main runs the given events in
// order; with no events it runs every event node in graph order.
//
// Only valid objects take part. A node failing OnGeneratorInitialize fails
// the whole emission. When formatting fails the unformatted source is
// returned together with the error.
func Emit(g *graph.Graph, events []string, opts ...Option) ([]byte, error) {
	o := options{logger: g.Logger()}
	for _, opt := range opts {
		opt(&o)
	}
	gen := newGenerator(g, o.logger)

	for _, obj := range g.Objects() {
		if !obj.IsValid() {
			o.logger.Warn("Skipping invalid node during emission.", "node", obj.StableID, "type", obj.TypeName, "state", obj.State())
			continue
		}
		gi, ok := obj.Logic().(graph.Generative)
		if !ok {
			return nil, fmt.Errorf("node %q (%s): %w", obj.StableID, obj.TypeName, graph.ErrNotEmittable)
		}
		if err := gi.OnGeneratorInitialize(gen); err != nil {
			return nil, fmt.Errorf("node %q: %w", obj.StableID, err)
		}
	}

	if len(events) == 0 {
		for _, obj := range g.Objects() {
			if _, ok := obj.Logic().(EventEmitter); ok && obj.IsValid() {
				events = append(events, obj.StableID)
			}
		}
	}

	var fns []string
	var calls []string
	for _, id := range events {
		obj, ok := g.Object(id)
		if !ok {
			return nil, fmt.Errorf("event %q: %w", id, graph.ErrUnknownNode)
		}
		ev, ok := obj.Logic().(EventEmitter)
		if !ok {
			return nil, fmt.Errorf("event %q: %s is not an event", id, obj.TypeName)
		}
		name := gen.Temp("ev_" + id)
		body, err := ev.GenerateEventCode(gen)
		if err != nil {
			return nil, fmt.Errorf("event %q: %w", id, err)
		}
		fns = append(fns, fmt.Sprintf("func %s() any {\n%sreturn nil\n}\n", name, body))
		calls = append(calls, name+"()\n")
		o.logger.Debug("Event emitted.", "event", id, "function", name)
	}

	var buf bytes.Buffer
	buf.WriteString("// Code generated by flowgridgo. DO NOT EDIT.\n\npackage main\n\n")
	if len(gen.imports) > 0 {
		paths := make([]string, 0, len(gen.imports))
		for p := range gen.imports {
			paths = append(paths, p)
		}
		slices.Sort(paths)
		buf.WriteString("import (\n")
		for _, p := range paths {
			fmt.Fprintf(&buf, "%q\n", p)
		}
		buf.WriteString(")\n\n")
	}
	for _, v := range g.Variables() {
		name, _ := gen.Variable(v.Name)
		typ := gen.TypeName(v.Type())
		if v.Default.Type() == cty.NilType || v.Default.IsNull() {
			fmt.Fprintf(&buf, "var %s %s\n", name, typ)
			continue
		}
		lit, err := gen.Literal(v.Default)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", v.Name, err)
		}
		fmt.Fprintf(&buf, "var %s %s = %s\n", name, typ, lit)
	}
	for _, decl := range gen.globals {
		buf.WriteString(decl + "\n")
	}
	buf.WriteString("\n")
	for _, fn := range fns {
		buf.WriteString(fn + "\n")
	}
	for _, fn := range gen.bodies {
		buf.WriteString(fn + "\n")
	}
	buf.WriteString("func main() {\n")
	for _, c := range calls {
		buf.WriteString(c)
	}
	buf.WriteString("}\n")

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return buf.Bytes(), fmt.Errorf("failed to format emitted code: %w", err)
	}
	return src, nil
}
