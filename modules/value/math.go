package value

import (
	"errors"
	"fmt"
	"math"

	"github.com/vk/flowgridgo/internal/ctyconv"
	"github.com/vk/flowgridgo/internal/graph"
	"github.com/zclconf/go-cty/cty"
)

// ErrDivisionByZero is returned by "/" and "%" with a zero divisor. Emitted
// programs panic with the same message.
var ErrDivisionByZero = errors.New("division by zero")

var compareOps = map[string]func(a, b float64) bool{
	"==": func(a, b float64) bool { return a == b },
	"!=": func(a, b float64) bool { return a != b },
	"<":  func(a, b float64) bool { return a < b },
	"<=": func(a, b float64) bool { return a <= b },
	">":  func(a, b float64) bool { return a > b },
	">=": func(a, b float64) bool { return a >= b },
}

// Compare applies Op to the numbers a and b.
type Compare struct {
	graph.ValueNode

	Op string `hcl:"op,optional"`

	A, B *graph.Port
}

func (n *Compare) OnRegister(d *graph.Declarer) error {
	n.A = d.ValueInput("a", cty.Number)
	n.B = d.ValueInput("b", cty.Number)
	n.DeclareOutput(d, "result", graph.StaticType(cty.Bool))
	return nil
}

func (n *Compare) Title() string { return "a " + n.Op + " b" }

func (n *Compare) CheckError(a graph.Analyzer) {
	if _, ok := compareOps[n.Op]; !ok {
		a.Error(n.Object(), "Unknown operator", fmt.Sprintf("Comparison operator %q is not supported.", n.Op))
	}
	n.CheckAssigned(a, n.A, n.B)
}

func (n *Compare) GetValue(fl *graph.Flow) (cty.Value, error) {
	cmp, ok := compareOps[n.Op]
	if !ok {
		return cty.NilVal, fmt.Errorf("unknown comparison operator %q", n.Op)
	}
	a, b, err := operands(fl, n.A, n.B)
	if err != nil {
		return cty.NilVal, err
	}
	return cty.BoolVal(cmp(a, b)), nil
}

func (n *Compare) GenerateValueCode(g graph.Generator) (string, error) {
	if _, ok := compareOps[n.Op]; !ok {
		return "", fmt.Errorf("unknown comparison operator %q", n.Op)
	}
	a, b, err := operandCode(g, n.A, n.B)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s %s %s)", a, n.Op, b), nil
}

var arithOps = map[string]func(a, b float64) float64{
	"+": func(a, b float64) float64 { return a + b },
	"-": func(a, b float64) float64 { return a - b },
	"*": func(a, b float64) float64 { return a * b },
	"/": func(a, b float64) float64 { return a / b },
	"%": math.Mod,
}

// Arith applies Op to the numbers a and b using float64 arithmetic. A zero
// divisor for "/" or "%" and a NaN result are errors.
type Arith struct {
	graph.ValueNode

	Op string `hcl:"op,optional"`

	A, B *graph.Port
}

func (n *Arith) OnRegister(d *graph.Declarer) error {
	n.A = d.ValueInput("a", cty.Number)
	n.B = d.ValueInput("b", cty.Number)
	n.DeclareOutput(d, "result", graph.StaticType(cty.Number))
	return nil
}

func (n *Arith) Title() string { return "a " + n.Op + " b" }

func (n *Arith) CheckError(a graph.Analyzer) {
	if _, ok := arithOps[n.Op]; !ok {
		a.Error(n.Object(), "Unknown operator", fmt.Sprintf("Arithmetic operator %q is not supported.", n.Op))
	}
	n.CheckAssigned(a, n.A, n.B)
}

func (n *Arith) GetValue(fl *graph.Flow) (cty.Value, error) {
	op, ok := arithOps[n.Op]
	if !ok {
		return cty.NilVal, fmt.Errorf("unknown arithmetic operator %q", n.Op)
	}
	a, b, err := operands(fl, n.A, n.B)
	if err != nil {
		return cty.NilVal, err
	}
	if b == 0 && divides(n.Op) {
		return cty.NilVal, ErrDivisionByZero
	}
	return ctyconv.Number(op(a, b))
}

func (n *Arith) GenerateValueCode(g graph.Generator) (string, error) {
	if _, ok := arithOps[n.Op]; !ok {
		return "", fmt.Errorf("unknown arithmetic operator %q", n.Op)
	}
	a, b, err := operandCode(g, n.A, n.B)
	if err != nil {
		return "", err
	}
	if !divides(n.Op) {
		return fmt.Sprintf("(%s %s %s)", a, n.Op, b), nil
	}
	expr := "x / y"
	if n.Op == "%" {
		g.Import("math")
		expr = "math.Mod(x, y)"
	}
	// The guard runs at run time; a constant zero divisor would not compile.
	return fmt.Sprintf("func(x, y float64) float64 {\nif y == 0 {\npanic(%q)\n}\nreturn %s\n}(%s, %s)",
		ErrDivisionByZero.Error(), expr, a, b), nil
}

func divides(op string) bool { return op == "/" || op == "%" }

func operands(fl *graph.Flow, pa, pb *graph.Port) (float64, float64, error) {
	a, err := fl.Number(pa)
	if err != nil {
		return 0, 0, err
	}
	b, err := fl.Number(pb)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func operandCode(g graph.Generator, pa, pb *graph.Port) (string, string, error) {
	a, err := g.Value(pa)
	if err != nil {
		return "", "", err
	}
	b, err := g.Value(pb)
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}
