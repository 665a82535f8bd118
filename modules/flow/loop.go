package flow

import (
	"fmt"

	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/modules/value"
	"github.com/zclconf/go-cty/cty"
)

// For runs body for index = from, from+1, ... while index < to. The bound is
// re-read before every iteration. After the loop the index keeps the value
// it stopped at.
type For struct {
	graph.FlowNode

	From float64 `hcl:"from,optional"`
	To   float64 `hcl:"to,optional"`

	FromIn, ToIn *graph.Port
	Body, Index  *graph.Port
}

func (n *For) OnRegister(d *graph.Declarer) error {
	n.DeclareFlow(d)
	n.FromIn = d.ValueInput("from", cty.Number).WithDefault(cty.NumberFloatVal(n.From))
	n.ToIn = d.ValueInput("to", cty.Number).WithDefault(cty.NumberFloatVal(n.To))
	n.Body = d.FlowOutput("body")
	n.Index = d.ValueOutput("index", cty.Number, func(fl *graph.Flow) (cty.Value, error) {
		return slot(fl, n.Index, cty.Zero), nil
	})
	return nil
}

func (n *For) Title() string { return "For" }
func (n *For) Icon() string  { return "loop" }

func (n *For) OnExecutedCoroutine(fl *graph.Flow, yield func(graph.Wait) bool) (graph.Jump, error) {
	i, err := fl.Number(n.FromIn)
	if err != nil {
		return graph.Jump{}, err
	}
	for {
		fl.SetData(n.Index, cty.NumberFloatVal(i))
		to, err := fl.Number(n.ToIn)
		if err != nil {
			return graph.Jump{}, err
		}
		if !(i < to) {
			return graph.Jump{}, nil
		}
		j, err := fl.Await(yield, fl.TriggerCoroutine(n.Body))
		if err != nil {
			return graph.Jump{}, err
		}
		if stop, propagate := j.AtLoopBoundary(); stop {
			return propagate, nil
		}
		i++
	}
}

func (n *For) OnGeneratorInitialize(g graph.Generator) error {
	g.RegisterValue(n.Index, func() (string, error) {
		name, _ := g.Declare(n.Index, n.Body, "i")
		return name, nil
	})
	return n.FlowNode.OnGeneratorInitialize(g)
}

func (n *For) GenerateFlowCode(g graph.Generator) (string, error) {
	from, err := g.Value(n.FromIn)
	if err != nil {
		return "", err
	}
	to, err := g.Value(n.ToIn)
	if err != nil {
		return "", err
	}
	i, local := g.Declare(n.Index, n.Body, "i")
	body, err := loopBody(g, n.Body)
	if err != nil {
		return "", err
	}
	assign := "="
	if local {
		assign = ":="
	}
	return fmt.Sprintf("for %s %s %s; %s < %s; %s++ {\n%s}\n", i, assign, from, i, to, i, body), nil
}

// ForEach runs body once per element of a collection.
type ForEach struct {
	graph.FlowNode

	Collection     *graph.Port
	Body           *graph.Port
	Element, Index *graph.Port
}

func (n *ForEach) OnRegister(d *graph.Declarer) error {
	n.DeclareFlow(d)
	n.Collection = d.ValueInput("collection", value.ListType)
	n.Body = d.FlowOutput("body")
	n.Element = d.ValueOutput("element", cty.DynamicPseudoType, func(fl *graph.Flow) (cty.Value, error) {
		return slot(fl, n.Element, cty.NullVal(cty.DynamicPseudoType)), nil
	})
	n.Index = d.ValueOutput("index", cty.Number, func(fl *graph.Flow) (cty.Value, error) {
		return slot(fl, n.Index, cty.Zero), nil
	})
	return nil
}

func (n *ForEach) Title() string { return "For Each" }
func (n *ForEach) Icon() string  { return "loop" }

func (n *ForEach) CheckError(a graph.Analyzer) { n.CheckAssigned(a, n.Collection) }

func (n *ForEach) OnExecutedCoroutine(fl *graph.Flow, yield func(graph.Wait) bool) (graph.Jump, error) {
	coll, err := fl.Required(n.Collection)
	if err != nil {
		return graph.Jump{}, err
	}
	var i int64
	it := coll.ElementIterator()
	for it.Next() {
		_, el := it.Element()
		fl.SetData(n.Index, cty.NumberIntVal(i))
		fl.SetData(n.Element, el)
		j, err := fl.Await(yield, fl.TriggerCoroutine(n.Body))
		if err != nil {
			return graph.Jump{}, err
		}
		if stop, propagate := j.AtLoopBoundary(); stop {
			return propagate, nil
		}
		i++
	}
	fl.SetData(n.Index, cty.NumberIntVal(i))
	return graph.Jump{}, nil
}

func (n *ForEach) OnGeneratorInitialize(g graph.Generator) error {
	g.RegisterValue(n.Index, func() (string, error) {
		name, _ := g.Declare(n.Index, n.Body, "idx")
		return name, nil
	})
	g.RegisterValue(n.Element, func() (string, error) {
		name, _ := g.Declare(n.Element, n.Body, "el")
		return name, nil
	})
	return n.FlowNode.OnGeneratorInitialize(g)
}

func (n *ForEach) GenerateFlowCode(g graph.Generator) (string, error) {
	coll, err := g.Value(n.Collection)
	if err != nil {
		return "", err
	}
	items := g.Temp("items")
	idx, idxLocal := g.Declare(n.Index, n.Body, "idx")
	el, elLocal := g.Declare(n.Element, n.Body, "el")
	body, err := loopBody(g, n.Body)
	if err != nil {
		return "", err
	}
	idxAssign, elAssign := "=", "="
	if idxLocal {
		idxAssign = ":="
	}
	elUse := ""
	if elLocal {
		elAssign = ":="
		elUse = fmt.Sprintf("_ = %s\n", el)
	}
	return fmt.Sprintf("{\n%s := %s\nfor %s %s 0.0; %s < float64(len(%s)); %s++ {\n%s %s %s[int(%s)]\n%s%s}\n}\n",
		items, coll,
		idx, idxAssign, idx, items, idx,
		el, elAssign, items, idx,
		elUse, body), nil
}

func loopBody(g graph.Generator, body *graph.Port) (string, error) {
	g.EnterLoop()
	defer g.ExitLoop()
	return g.Flow(body)
}

func slot(fl *graph.Flow, p *graph.Port, def cty.Value) cty.Value {
	if v, ok := fl.Data(p); ok {
		return v
	}
	return def
}
