package codegen

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/vk/flowgridgo/internal/graph"
	"github.com/zclconf/go-cty/cty"
)

type producer func() (string, error)

type declaration struct {
	name  string
	local bool
}

// Generator collects the emission closures of one graph and memoises their
// results per port.
type Generator struct {
	graph  *graph.Graph
	logger *slog.Logger

	values    map[*graph.Port]producer
	flows     map[*graph.Port]producer
	valueMemo map[*graph.Port]string
	flowMemo  map[*graph.Port]string
	valueBusy map[*graph.Port]bool
	flowBusy  map[*graph.Port]int

	declared map[*graph.Port]declaration
	names    map[string]int
	imports  map[string]bool
	globals  []string
	funcs    map[*graph.Port]string
	bodies   []string
	loop     int
}

var _ graph.Generator = (*Generator)(nil)

// reserved identifiers never handed out by Temp.
var reserved = []string{"main", "fmt", "math", "os", "strconv", "time", "any", "len", "nil", "true", "false"}

func newGenerator(g *graph.Graph, logger *slog.Logger) *Generator {
	gen := &Generator{
		graph:     g,
		logger:    logger,
		values:    make(map[*graph.Port]producer),
		flows:     make(map[*graph.Port]producer),
		valueMemo: make(map[*graph.Port]string),
		flowMemo:  make(map[*graph.Port]string),
		valueBusy: make(map[*graph.Port]bool),
		flowBusy:  make(map[*graph.Port]int),
		declared:  make(map[*graph.Port]declaration),
		names:     make(map[string]int),
		imports:   make(map[string]bool),
		funcs:     make(map[*graph.Port]string),
	}
	for _, r := range reserved {
		gen.names[r] = 1
	}
	return gen
}

func (g *Generator) RegisterValue(out *graph.Port, fn func() (string, error)) {
	g.values[out] = fn
}

func (g *Generator) RegisterFlow(in *graph.Port, fn func() (string, error)) {
	g.flows[in] = fn
}

// Value returns the expression read by a value input.
func (g *Generator) Value(in *graph.Port) (string, error) {
	if in == nil || in.Kind != graph.ValueInput {
		return "", fmt.Errorf("emit value of %v: %w", in, graph.ErrIncompatible)
	}
	if peers := in.Connections(); len(peers) > 0 {
		out := peers[0]
		expr, err := g.output(out)
		if err != nil {
			return "", err
		}
		return g.convert(expr, out.Type(), in.Type())
	}
	if in.Default.Type() != cty.NilType {
		expr, err := g.Literal(in.Default)
		if err != nil {
			return "", fmt.Errorf("%s: %w", in, err)
		}
		return g.convert(expr, in.Default.Type(), in.Type())
	}
	return "", fmt.Errorf("%s: %w", in, graph.ErrUnassigned)
}

func (g *Generator) output(out *graph.Port) (string, error) {
	if expr, ok := g.valueMemo[out]; ok {
		return expr, nil
	}
	fn, ok := g.values[out]
	if !ok {
		return "", fmt.Errorf("%s: %w", out, graph.ErrNotEmittable)
	}
	if g.valueBusy[out] {
		return "", fmt.Errorf("%s: value depends on itself", out)
	}
	g.valueBusy[out] = true
	defer delete(g.valueBusy, out)
	expr, err := fn()
	if err != nil {
		return "", fmt.Errorf("%s: %w", out, err)
	}
	g.valueMemo[out] = expr
	return expr, nil
}

// Flow returns the statements of every flow input connected to out.
func (g *Generator) Flow(out *graph.Port) (string, error) {
	if out == nil {
		return "", nil
	}
	if out.Kind != graph.FlowOutput {
		return "", fmt.Errorf("emit flow of %s: %w", out, graph.ErrIncompatible)
	}
	var b strings.Builder
	for _, in := range out.Connections() {
		code, err := g.flowIn(in)
		if err != nil {
			return "", err
		}
		b.WriteString(code)
	}
	return b.String(), nil
}

// flowIn runs the producer of in. A producer may be re-entered once while
// it is running, which is how a state reaches itself through a transition;
// the second pass must resolve without recursing further.
func (g *Generator) flowIn(in *graph.Port) (string, error) {
	if code, ok := g.flowMemo[in]; ok {
		return code, nil
	}
	fn, ok := g.flows[in]
	if !ok {
		return "", fmt.Errorf("%s: %w", in, graph.ErrNotEmittable)
	}
	if g.flowBusy[in] > 1 {
		return "", fmt.Errorf("%s: flow cycle without a state", in)
	}
	g.flowBusy[in]++
	defer func() { g.flowBusy[in]-- }()
	code, err := fn()
	if err != nil {
		return "", fmt.Errorf("%s: %w", in, err)
	}
	if g.flowBusy[in] == 1 {
		g.flowMemo[in] = code
	}
	return code, nil
}

// Import records a package import.
func (g *Generator) Import(path string) { g.imports[path] = true }

func (g *Generator) EnterLoop()   { g.loop++ }
func (g *Generator) ExitLoop()    { g.loop-- }
func (g *Generator) InLoop() bool { return g.loop > 0 }

// Function emits body once as `func name() any` keyed by key.
func (g *Generator) Function(key *graph.Port, hint string, body func() (string, error)) (string, error) {
	if name, ok := g.funcs[key]; ok {
		return name, nil
	}
	name := g.Temp(hint)
	g.funcs[key] = name
	loop := g.loop
	g.loop = 0
	code, err := body()
	g.loop = loop
	if err != nil {
		return "", err
	}
	g.bodies = append(g.bodies, fmt.Sprintf("func %s() any {\n%sreturn nil\n}\n", name, code))
	return name, nil
}

// Variable returns the identifier of a graph variable.
func (g *Generator) Variable(name string) (string, error) {
	if _, ok := g.graph.Variable(name); !ok {
		return "", fmt.Errorf("%q: %w", name, graph.ErrUnknownVariable)
	}
	return "v_" + sanitize(name), nil
}
