package flow

import (
	"fmt"
	"strings"

	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/nodeid"
)

// Sequence runs then[0..Steps-1] in order and then exit. A jump raised by a
// step skips the remaining steps.
type Sequence struct {
	graph.FlowNode

	Steps int `hcl:"steps,optional"`

	Then []*graph.Port
}

func (n *Sequence) OnRegister(d *graph.Declarer) error {
	if n.Steps < 1 {
		return fmt.Errorf("sequence needs at least one step, got %d", n.Steps)
	}
	n.DeclareFlow(d)
	n.Then = make([]*graph.Port, n.Steps)
	for i := range n.Then {
		n.Then[i] = d.FlowOutput(nodeid.IndexedID("then", i))
	}
	return nil
}

func (n *Sequence) Title() string { return "Sequence" }

func (n *Sequence) OnExecutedCoroutine(fl *graph.Flow, yield func(graph.Wait) bool) (graph.Jump, error) {
	for _, out := range n.Then {
		j, err := fl.Await(yield, fl.TriggerCoroutine(out))
		if err != nil || j.Pending() {
			return j, err
		}
	}
	return graph.Jump{}, nil
}

func (n *Sequence) GenerateFlowCode(g graph.Generator) (string, error) {
	var b strings.Builder
	for _, out := range n.Then {
		code, err := g.Flow(out)
		if err != nil {
			return "", err
		}
		b.WriteString(code)
	}
	return b.String(), nil
}
