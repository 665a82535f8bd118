package codegen

import (
	"strconv"

	"github.com/vk/flowgridgo/internal/graph"
)

// Temp returns a fresh identifier based on hint. Numbered names are
// recorded too, so a hint that already ends in a digit can not collide
// with one of them.
func (g *Generator) Temp(hint string) string {
	hint = sanitize(hint)
	name := hint
	for g.names[name] > 0 {
		g.names[hint]++
		name = hint + strconv.Itoa(g.names[hint])
	}
	g.names[name]++
	return name
}

// Declare returns the identifier holding p's value, declaring it on first
// use. The decision between a local and a package-level variable is taken
// once per port.
func (g *Generator) Declare(p, region *graph.Port, hint string) (string, bool) {
	if d, ok := g.declared[p]; ok {
		return d.name, d.local
	}
	d := declaration{name: g.Temp(hint), local: g.CanDeclareLocal(p, region)}
	if !d.local {
		g.globals = append(g.globals, "var "+d.name+" "+g.TypeName(p.Type()))
		g.logger.Debug("Promoted value to package level.", "port", p.String(), "name", d.name)
	}
	g.declared[p] = d
	return d.name, d.local
}

// CanDeclareLocal reports whether every reader of p runs only below region.
// A nil region means the value has no readers outside its declaring code.
func (g *Generator) CanDeclareLocal(p, region *graph.Port) bool {
	if region == nil {
		return true
	}
	sites, escapes := useSites(p)
	if escapes {
		return false
	}
	inside := reach([]*graph.Port{region}, nil)
	outside := reach(g.entries(), region)
	for _, s := range sites {
		if !inside[s] || outside[s] {
			return false
		}
	}
	return true
}

// useSites returns the flow inputs whose code reads p, following pure value
// nodes through to their readers. escapes is true when a reader is neither
// a flow node nor a value node, so its code runs somewhere unknown.
func useSites(p *graph.Port) (sites []*graph.Port, escapes bool) {
	seen := map[*graph.Port]bool{}
	var walk func(out *graph.Port)
	walk = func(out *graph.Port) {
		if seen[out] {
			return
		}
		seen[out] = true
		for _, in := range out.Connections() {
			o := in.Owner()
			switch {
			case o.FlowInputs.Len() > 0:
				sites = append(sites, o.FlowInputs.All()...)
			case o.ValueOutputs.Len() > 0:
				for _, next := range o.ValueOutputs.All() {
					walk(next)
				}
			default:
				escapes = true
			}
		}
	}
	walk(p)
	return sites, escapes
}

// reach returns the flow inputs reachable from the given flow outputs,
// without passing through blocked.
func reach(starts []*graph.Port, blocked *graph.Port) map[*graph.Port]bool {
	seen := map[*graph.Port]bool{}
	queue := append([]*graph.Port(nil), starts...)
	visited := map[*graph.Port]bool{}
	for len(queue) > 0 {
		out := queue[0]
		queue = queue[1:]
		if out == blocked || visited[out] {
			continue
		}
		visited[out] = true
		for _, in := range out.Connections() {
			if seen[in] {
				continue
			}
			seen[in] = true
			queue = append(queue, in.Owner().FlowOutputs.All()...)
		}
	}
	return seen
}

// entries returns the flow outputs of every node without flow inputs.
func (g *Generator) entries() []*graph.Port {
	var out []*graph.Port
	for _, o := range g.graph.Objects() {
		if o.FlowInputs.Len() == 0 {
			out = append(out, o.FlowOutputs.All()...)
		}
	}
	return out
}
