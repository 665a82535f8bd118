package graph

import "github.com/zclconf/go-cty/cty"

// Declarer is handed to Node.OnRegister. Its factories are the only way to
// declare ports. Each factory returns the port that ends up live: either the
// preserved port carrying the new attributes, or a freshly allocated one.
//
// Declaring a duplicate id within one collection, or a second primary port
// of one category, panics with a *DeclarationError before anything is added.
type Declarer struct {
	object   *NodeObject
	snapshot *preservation
	fresh    []*Port
}

// Object returns the NodeObject being registered.
func (d *Declarer) Object() *NodeObject { return d.object }

// ValueInput declares a value input of static type t.
func (d *Declarer) ValueInput(id string, t cty.Type) *Port {
	return d.declare(&Port{ID: id, Kind: ValueInput, typeFn: StaticType(t)}, false)
}

// ValueInputFunc declares a value input whose type is resolved on demand.
func (d *Declarer) ValueInputFunc(id string, fn TypeFunc) *Port {
	return d.declare(&Port{ID: id, Kind: ValueInput, typeFn: fn}, false)
}

// ValueOutput declares a value output backed by get.
func (d *Declarer) ValueOutput(id string, t cty.Type, get GetFunc) *Port {
	return d.declare(&Port{ID: id, Kind: ValueOutput, typeFn: StaticType(t), get: get}, false)
}

// ValueOutputFunc declares a value output whose type is resolved on demand.
func (d *Declarer) ValueOutputFunc(id string, fn TypeFunc, get GetFunc) *Port {
	return d.declare(&Port{ID: id, Kind: ValueOutput, typeFn: fn, get: get}, false)
}

// PrimaryValueOutput declares the primary value output.
func (d *Declarer) PrimaryValueOutput(id string, fn TypeFunc, get GetFunc) *Port {
	return d.declare(&Port{ID: id, Kind: ValueOutput, typeFn: fn, get: get}, true)
}

// FlowInput declares a synchronous flow input.
func (d *Declarer) FlowInput(id string, exec ExecFunc) *Port {
	return d.declare(&Port{ID: id, Kind: FlowInput, exec: exec}, false)
}

// CoroutineInput declares a flow input whose execution may suspend.
func (d *Declarer) CoroutineInput(id string, co CoroutineFunc) *Port {
	return d.declare(&Port{ID: id, Kind: FlowInput, co: co}, false)
}

// PrimaryFlowInput declares the primary flow input.
func (d *Declarer) PrimaryFlowInput(id string, exec ExecFunc) *Port {
	return d.declare(&Port{ID: id, Kind: FlowInput, exec: exec}, true)
}

// PrimaryCoroutineInput declares a primary flow input that may suspend.
func (d *Declarer) PrimaryCoroutineInput(id string, co CoroutineFunc) *Port {
	return d.declare(&Port{ID: id, Kind: FlowInput, co: co}, true)
}

// FlowOutput declares a flow output.
func (d *Declarer) FlowOutput(id string) *Port {
	return d.declare(&Port{ID: id, Kind: FlowOutput}, false)
}

// PrimaryFlowOutput declares the primary flow output.
func (d *Declarer) PrimaryFlowOutput(id string) *Port {
	return d.declare(&Port{ID: id, Kind: FlowOutput}, true)
}

func (d *Declarer) declare(p *Port, primary bool) *Port {
	o := d.object
	c := o.Collection(p.Kind)
	if p.ID == "" {
		panic(&DeclarationError{Node: o.StableID, Kind: p.Kind, Reason: "empty port id"})
	}
	if c.has(p.ID) {
		panic(&DeclarationError{Node: o.StableID, Kind: p.Kind, PortID: p.ID, Reason: "duplicate port id"})
	}
	if primary {
		pp := o.primary(p.Kind)
		if pp == nil {
			panic(&DeclarationError{Node: o.StableID, Kind: p.Kind, PortID: p.ID, Reason: "category has no primary port"})
		}
		if *pp != nil {
			panic(&DeclarationError{Node: o.StableID, Kind: p.Kind, PortID: p.ID,
				Reason: "primary port already declared as " + (*pp).ID})
		}
	}
	p.Primary = primary
	if p.Name == "" {
		p.Name = p.ID
	}
	if old, ok := d.snapshot.claim(p.Kind, p.ID); ok {
		old.transplant(p)
		p = old
	} else {
		p.owner = o
		o.graph.arena.alloc(p)
		d.fresh = append(d.fresh, p)
	}
	c.add(p)
	if primary {
		*o.primary(p.Kind) = p
	}
	return p
}

// abort releases ports allocated by a failed declaration.
func (d *Declarer) abort() {
	for _, p := range d.fresh {
		d.object.graph.arena.Release(p.handle)
	}
	d.fresh = nil
}
