// Package hcl_adapter loads graph documents written in HCL.
//
// A document is a flat list of blocks:
//
//	variable "count" {
//	  type    = number
//	  default = 3
//	}
//
//	node "flow.for" "loop" {
//	  position = [120, 40]
//	  to       = 3
//	}
//
//	connect {
//	  from = "start.out[0]"
//	  to   = "loop.enter"
//	}
//
// The attributes left over in a node block after position and defaults are
// decoded into the node struct through its hcl tags.
package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/fsutil"
	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/serialize"
	"github.com/zclconf/go-cty/cty"
)

var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "variable", LabelNames: []string{"name"}},
		{Type: "node", LabelNames: []string{"type", "id"}},
		{Type: "connect"},
	},
}

type nodeHeader struct {
	Position []float64 `hcl:"position,optional"`
	Defaults cty.Value `hcl:"defaults,optional"`
	Remain   hcl.Body  `hcl:",remain"`
}

type variableBlock struct {
	Type    hcl.Expression `hcl:"type,optional"`
	Default hcl.Expression `hcl:"default,optional"`
}

type connectBlock struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

type pendingDefaults struct {
	object *graph.NodeObject
	values cty.Value
	rng    hcl.Range
}

type pendingConnect struct {
	connectBlock
	rng hcl.Range
}

// Loader builds graphs from HCL documents using the node types of a registry.
type Loader struct {
	registry  *registry.Registry
	pattern   string
	graphOpts []graph.Option
}

// NewLoader creates a loader. pattern selects documents inside directories;
// an empty pattern uses fsutil.DefaultPattern. opts are applied to every
// graph the loader creates.
func NewLoader(reg *registry.Registry, pattern string, opts ...graph.Option) *Loader {
	return &Loader{registry: reg, pattern: pattern, graphOpts: opts}
}

// Load parses every document found under paths into one graph named name.
// Nodes that fail to register stay in the graph in the Faulted state and are
// reported by Graph.Check; everything else that is wrong with the documents
// is returned as hcl.Diagnostics.
func (l *Loader) Load(ctx context.Context, name string, paths ...string) (*graph.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	files, err := fsutil.FindGraphFiles(l.pattern, paths...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered graph documents.", "count", len(files))

	g := graph.New(name, append([]graph.Option{graph.WithLogger(logger)}, l.graphOpts...)...)
	parser := hclparse.NewParser()
	var diags hcl.Diagnostics
	var defaults []pendingDefaults
	var connects []pendingConnect

	for _, path := range files {
		f, d := parser.ParseHCLFile(path)
		diags = append(diags, d...)
		if d.HasErrors() {
			continue
		}
		content, d := f.Body.Content(rootSchema)
		diags = append(diags, d...)

		for _, blk := range content.Blocks {
			switch blk.Type {
			case "variable":
				diags = append(diags, l.decodeVariable(ctx, g, blk)...)
			case "node":
				pd, d := l.decodeNode(ctx, g, blk)
				diags = append(diags, d...)
				if pd != nil {
					defaults = append(defaults, *pd)
				}
			case "connect":
				var c connectBlock
				d := gohcl.DecodeBody(blk.Body, nil, &c)
				diags = append(diags, d...)
				if !d.HasErrors() {
					connects = append(connects, pendingConnect{connectBlock: c, rng: blk.DefRange})
				}
			}
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}

	if err := g.RegisterAll(); err != nil {
		logger.Warn("Some nodes failed to register.", "error", err)
	}
	for _, pd := range defaults {
		diags = append(diags, applyDefaults(pd)...)
	}
	for _, c := range connects {
		if err := g.ConnectRef(c.From, c.To); err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid connection",
				Detail:   fmt.Sprintf("Cannot connect %s to %s: %s.", c.From, c.To, err),
				Subject:  c.rng.Ptr(),
			})
		}
	}
	for _, d := range diags {
		if d.Severity == hcl.DiagWarning {
			logger.Warn(d.Summary, "detail", d.Detail)
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}
	logger.Debug("Graph loaded.", "graph", name, "nodes", len(g.Objects()), "connections", len(g.Arena().Connections()))
	return g, nil
}

func (l *Loader) decodeNode(ctx context.Context, g *graph.Graph, blk *hcl.Block) (*pendingDefaults, hcl.Diagnostics) {
	typeName, id := blk.Labels[0], blk.Labels[1]
	var hdr nodeHeader
	diags := gohcl.DecodeBody(blk.Body, nil, &hdr)
	if diags.HasErrors() {
		return nil, diags
	}

	n, err := l.registry.NewNode(typeName)
	if err != nil {
		// The object is kept so that the document round-trips; Check reports it.
		ctxlog.FromContext(ctx).Warn("Unknown node type.", "node", id, "type", typeName)
	} else {
		diags = append(diags, gohcl.DecodeBody(hdr.Remain, nil, n)...)
		if diags.HasErrors() {
			return nil, diags
		}
	}

	o, err := g.Add(id, typeName, n)
	if err != nil {
		return nil, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Duplicate node",
			Detail:   err.Error(),
			Subject:  blk.DefRange.Ptr(),
		})
	}
	o.Source = blk.DefRange
	if n == nil {
		diags = append(diags, keepOpaque(o, hdr.Remain)...)
	}
	if len(hdr.Position) > 0 {
		if len(hdr.Position) != 2 {
			return nil, append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid position",
				Detail:   "A position is a list of two numbers.",
				Subject:  blk.DefRange.Ptr(),
			})
		}
		o.Position = graph.Position{X: hdr.Position[0], Y: hdr.Position[1]}
	}
	if hdr.Defaults.IsNull() || hdr.Defaults.Type() == cty.NilType {
		return nil, diags
	}
	return &pendingDefaults{object: o, values: hdr.Defaults, rng: blk.DefRange}, diags
}

// keepOpaque stores the attributes of a node without a known type, so that
// saving the graph writes them back.
func keepOpaque(o *graph.NodeObject, body hcl.Body) hcl.Diagnostics {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() || len(attrs) == 0 {
		return diags
	}
	vals := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		v, d := attr.Expr.Value(nil)
		diags = append(diags, d...)
		if d.HasErrors() {
			return diags
		}
		vals[name] = v
	}
	data, err := serialize.OpaqueState(cty.ObjectVal(vals))
	if err != nil {
		return append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid node state",
			Detail:   fmt.Sprintf("Node %q: %s.", o.StableID, err),
		})
	}
	o.Opaque = data
	return diags
}

// applyDefaults sets the literal values of unconnected inputs.
func applyDefaults(pd pendingDefaults) hcl.Diagnostics {
	if !pd.object.IsRegistered() {
		return nil
	}
	t := pd.values.Type()
	if !t.IsObjectType() && !t.IsMapType() {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid defaults",
			Detail:   "defaults must be an object of input id to value.",
			Subject:  pd.rng.Ptr(),
		}}
	}
	var diags hcl.Diagnostics
	for it := pd.values.ElementIterator(); it.Next(); {
		k, v := it.Element()
		id := k.AsString()
		p, ok := pd.object.Port(graph.ValueInput, id)
		if !ok {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagWarning,
				Summary:  "Unknown input",
				Detail:   fmt.Sprintf("Node %q has no value input %q.", pd.object.StableID, id),
				Subject:  pd.rng.Ptr(),
			})
			continue
		}
		p.WithDefault(v)
	}
	return diags
}

func (l *Loader) decodeVariable(ctx context.Context, g *graph.Graph, blk *hcl.Block) hcl.Diagnostics {
	name := blk.Labels[0]
	var vb variableBlock
	diags := gohcl.DecodeBody(blk.Body, nil, &vb)
	if diags.HasErrors() {
		return diags
	}

	t := cty.DynamicPseudoType
	if present(ctx, vb.Type, "type") {
		var td hcl.Diagnostics
		t, td = typeexpr.TypeConstraint(vb.Type)
		if td.HasErrors() {
			return append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid variable type",
				Detail:   fmt.Sprintf("Variable %q: %s", name, td[0].Detail),
				Subject:  vb.Type.Range().Ptr(),
			})
		}
	}

	def := cty.NullVal(t)
	if present(ctx, vb.Default, "default") {
		v, d := vb.Default.Value(nil)
		diags = append(diags, d...)
		if d.HasErrors() {
			return diags
		}
		if def, d = convertDefault(name, v, t, vb.Default.Range()); d.HasErrors() {
			return append(diags, d...)
		}
	}
	g.DeclareVariable(name, def)
	return diags
}
