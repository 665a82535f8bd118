package graph

// preservation is the snapshot taken at the start of Register. Ports are
// claimed by id as the node re-declares them; whatever stays unclaimed is
// dropped on success.
type preservation struct {
	ports     [4][]*Port
	byID      [4]map[string]*Port
	attrs     map[*Port]portAttrs
	primaries [4]*Port
	claimed   map[*Port]struct{}
}

func (o *NodeObject) preserve() *preservation {
	s := &preservation{
		attrs:   make(map[*Port]portAttrs),
		claimed: make(map[*Port]struct{}),
	}
	for _, k := range allKinds {
		c := o.Collection(k)
		s.ports[k] = c.All()
		s.byID[k] = make(map[string]*Port, c.Len())
		for _, p := range c.ports {
			s.byID[k][p.ID] = p
			s.attrs[p] = p.attrs()
		}
		if pp := o.primary(k); pp != nil {
			s.primaries[k] = *pp
		}
	}
	return s
}

// claim returns the preserved port for (k, id), marking it as re-declared.
func (s *preservation) claim(k PortKind, id string) (*Port, bool) {
	p, ok := s.byID[k][id]
	if !ok || !p.Live() {
		return nil, false
	}
	s.claimed[p] = struct{}{}
	return p, true
}

// unclaimed returns the preserved ports the node did not declare again.
func (s *preservation) unclaimed() []*Port {
	var out []*Port
	for _, k := range allKinds {
		for _, p := range s.ports[k] {
			if _, ok := s.claimed[p]; !ok {
				out = append(out, p)
			}
		}
	}
	return out
}

// restore puts the snapshot back after a failed declaration.
// Claimed ports get their previous attributes again; connections were never
// touched, so the object is exactly as it was before Register.
func (o *NodeObject) restore(s *preservation) {
	for p, a := range s.attrs {
		p.setAttrs(a)
	}
	for _, k := range allKinds {
		o.Collection(k).reset(s.ports[k])
		if pp := o.primary(k); pp != nil {
			*pp = s.primaries[k]
		}
	}
}
