package flow

import (
	"fmt"
	"time"

	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/scheduler"
	"github.com/zclconf/go-cty/cty"
)

// Wait suspends the running flow. The host resumes it after Ms
// milliseconds; without a host the wait is skipped.
type Wait struct {
	graph.CoroutineNode

	Ms float64 `hcl:"ms,optional"`

	Duration *graph.Port
}

func (n *Wait) OnRegister(d *graph.Declarer) error {
	n.DeclareFlow(d)
	n.Duration = d.ValueInput("ms", cty.Number).WithDefault(cty.NumberFloatVal(n.Ms))
	return nil
}

func (n *Wait) Title() string { return "Wait" }
func (n *Wait) Icon() string  { return "clock" }

func (n *Wait) OnExecutedCoroutine(fl *graph.Flow, yield func(graph.Wait) bool) (graph.Jump, error) {
	ms, err := fl.Number(n.Duration)
	if err != nil {
		return graph.Jump{}, err
	}
	fl.Logger().Debug("Waiting.", "node", n.Object().StableID, "ms", ms)
	if !yield(scheduler.Duration(time.Duration(ms * float64(time.Millisecond)))) {
		return graph.Jump{}, graph.ErrStopped
	}
	return graph.Jump{}, nil
}

func (n *Wait) GenerateFlowCode(g graph.Generator) (string, error) {
	ms, err := g.Value(n.Duration)
	if err != nil {
		return "", err
	}
	g.Import("time")
	d := g.Temp("ms")
	return fmt.Sprintf("{\n%s := %s\ntime.Sleep(time.Duration(%s * float64(time.Millisecond)))\n}\n", d, ms, d), nil
}
