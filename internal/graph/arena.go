package graph

import (
	"fmt"
	"slices"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Connection is an edge between an output (From) and an input (To).
type Connection struct {
	From Handle
	To   Handle
}

// Arena stores every port of a graph by handle and every connection as a
// handle pair. Handles are never reused, so a released port can not alias a
// newer one.
type Arena struct {
	// ports is indexed by handle; slot 0 is reserved and released slots are nil.
	ports []*Port
	// links keeps the peers of each handle in connection order.
	links map[Handle][]Handle
	// order keeps all connections in creation order.
	order []Connection
}

func newArena() *Arena {
	return &Arena{
		ports: make([]*Port, 1),
		links: make(map[Handle][]Handle),
	}
}

func (a *Arena) alloc(p *Port) Handle {
	h := Handle(len(a.ports))
	a.ports = append(a.ports, p)
	p.handle = h
	return h
}

// Port returns the live port for h, or nil.
func (a *Arena) Port(h Handle) *Port {
	if h <= 0 || int(h) >= len(a.ports) {
		return nil
	}
	return a.ports[h]
}

// Len returns the number of live ports.
func (a *Arena) Len() int {
	n := 0
	for _, p := range a.ports[1:] {
		if p != nil {
			n++
		}
	}
	return n
}

// Connect links two ports of opposite direction. The order of the arguments
// does not matter; the returned Connection is normalized output -> input.
// Connecting an already connected pair is a no-op.
func (a *Arena) Connect(x, y Handle) (Connection, error) {
	px, py := a.Port(x), a.Port(y)
	if px == nil || py == nil {
		return Connection{}, ErrStalePort
	}
	if px.Kind.IsInput() {
		px, py = py, px
	}
	if px.Kind.IsInput() || py.Kind != px.Kind.Opposite() {
		return Connection{}, fmt.Errorf("connect %s (%s) -> %s (%s): %w", px, px.Kind, py, py.Kind, ErrIncompatible)
	}
	if px.owner == py.owner {
		return Connection{}, fmt.Errorf("connect %s -> %s: ports of the same node: %w", px, py, ErrIncompatible)
	}
	if px.Kind == ValueOutput && !Compatible(px.Type(), py.Type()) {
		return Connection{}, fmt.Errorf("connect %s (%s) -> %s (%s): %w",
			px, px.Type().FriendlyName(), py, py.Type().FriendlyName(), ErrIncompatible)
	}
	c := Connection{From: px.handle, To: py.handle}
	if slices.Contains(a.links[c.From], c.To) {
		return c, nil
	}
	a.links[c.From] = append(a.links[c.From], c.To)
	a.links[c.To] = append(a.links[c.To], c.From)
	a.order = append(a.order, c)
	return c, nil
}

// Disconnect removes the connection between x and y, if any.
func (a *Arena) Disconnect(x, y Handle) bool {
	if !slices.Contains(a.links[x], y) {
		return false
	}
	a.unlink(x, y)
	a.unlink(y, x)
	a.order = slices.DeleteFunc(a.order, func(c Connection) bool {
		return (c.From == x && c.To == y) || (c.From == y && c.To == x)
	})
	return true
}

// DisconnectAll removes every connection of h.
func (a *Arena) DisconnectAll(h Handle) {
	for _, peer := range slices.Clone(a.links[h]) {
		a.Disconnect(h, peer)
	}
}

// Release disconnects h and frees its slot. The port object keeps its owner
// but reports itself as not live.
func (a *Arena) Release(h Handle) {
	p := a.Port(h)
	if p == nil {
		return
	}
	a.DisconnectAll(h)
	delete(a.links, h)
	a.ports[h] = nil
	p.handle = 0
}

// Transfer moves every connection of from onto to, keeping each peer's
// connection order. Connections that to can not accept are dropped.
func (a *Arena) Transfer(from, to Handle) (moved, dropped int) {
	pf, pt := a.Port(from), a.Port(to)
	if pf == nil {
		return 0, 0
	}
	for _, peer := range slices.Clone(a.links[from]) {
		pp := a.Port(peer)
		ok := pt != nil && pp != nil && pt.Kind == pf.Kind && pp.owner != pt.owner
		if ok && pt.Kind.IsValue() {
			out, in := pp, pt
			if pt.Kind == ValueOutput {
				out, in = pt, pp
			}
			ok = Compatible(out.Type(), in.Type())
		}
		if !ok || slices.Contains(a.links[to], peer) {
			a.Disconnect(from, peer)
			dropped++
			continue
		}
		i := slices.Index(a.links[peer], from)
		a.links[peer][i] = to
		a.links[to] = append(a.links[to], peer)
		for n, c := range a.order {
			if c.From == from && c.To == peer {
				a.order[n].From = to
			}
			if c.To == from && c.From == peer {
				a.order[n].To = to
			}
		}
		moved++
	}
	delete(a.links, from)
	return moved, dropped
}

// IsConnected reports whether h has at least one peer.
func (a *Arena) IsConnected(h Handle) bool {
	return len(a.links[h]) > 0
}

// Peers returns the ports connected to h in connection order.
func (a *Arena) Peers(h Handle) []*Port {
	hs := a.links[h]
	if len(hs) == 0 {
		return nil
	}
	out := make([]*Port, 0, len(hs))
	for _, peer := range hs {
		if p := a.Port(peer); p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Connections returns all connections in creation order.
func (a *Arena) Connections() []Connection {
	return slices.Clone(a.order)
}

func (a *Arena) unlink(from, to Handle) {
	a.links[from] = slices.DeleteFunc(a.links[from], func(h Handle) bool { return h == to })
	if len(a.links[from]) == 0 {
		delete(a.links, from)
	}
}

// Compatible reports whether a value of type from can flow into a port of
// type to. The dynamic pseudo-type is compatible with everything.
func Compatible(from, to cty.Type) bool {
	if from.Equals(to) || from.Equals(cty.DynamicPseudoType) || to.Equals(cty.DynamicPseudoType) {
		return true
	}
	return convert.GetConversion(from, to) != nil
}
