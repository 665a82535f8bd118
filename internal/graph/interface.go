package graph

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Generator is the source emission backend seen by nodes.
//
// # Registration
//
// During OnGeneratorInitialize a node registers one closure per port it can
// emit: RegisterValue for value outputs (the closure yields an expression)
// and RegisterFlow for flow inputs (the closure yields statements). Closures
// run lazily, at most once per port; the result is memoised, so calling Value
// or Flow repeatedly for the same port is idempotent and independent of the
// order in which ports are visited.
//
// # Locals
//
// CanDeclareLocal reports whether the value of a port can live in a local
// variable scoped to the code below region, a flow output of the declaring
// node. That holds when every reader of the port is emitted only below
// region. When it can not, Declare promotes the variable to package level and
// the node must assign instead of declare.
type Generator interface {
	// RegisterValue associates an expression producer with a value output.
	RegisterValue(out *Port, fn func() (string, error))
	// RegisterFlow associates a statement producer with a flow input.
	RegisterFlow(in *Port, fn func() (string, error))

	// Value returns the expression read by a value input: the connected
	// output's expression converted to the input type, or the input's
	// default as a literal. ErrUnassigned is returned when neither exists.
	Value(in *Port) (string, error)
	// Flow returns the statements of every flow input connected to out, in
	// connection order.
	Flow(out *Port) (string, error)

	// Literal renders v as an expression.
	Literal(v cty.Value) (string, error)
	// TypeName renders the host type used for t.
	TypeName(t cty.Type) string

	// CanDeclareLocal reports whether p's value may be held in a local
	// scoped to region.
	CanDeclareLocal(p, region *Port) bool
	// Declare returns the identifier holding p's value. local is false when
	// the identifier was promoted to package level.
	Declare(p, region *Port, hint string) (name string, local bool)
	// Variable returns the identifier of a graph variable.
	Variable(name string) (string, error)
	// Temp returns a fresh identifier.
	Temp(hint string) string
	// Import records a package import.
	Import(path string)
	// Function emits body once as a package-level function keyed by key
	// and returns its name. Recursive references to the same key resolve
	// to the name without emitting twice.
	Function(key *Port, hint string, body func() (string, error)) (string, error)

	// EnterLoop and ExitLoop bracket the emission of a loop body.
	EnterLoop()
	ExitLoop()
	// InLoop reports whether emission is inside a loop body.
	InLoop() bool
}

// Analyzer collects problems found by ErrorChecker nodes.
type Analyzer interface {
	Error(o *NodeObject, summary, detail string)
	Warning(o *NodeObject, summary, detail string)
}

// Report is an Analyzer backed by hcl.Diagnostics, so that problems of
// document-loaded graphs point at their source.
type Report struct {
	Diags hcl.Diagnostics
}

func (r *Report) Error(o *NodeObject, summary, detail string) {
	r.add(hcl.DiagError, o, summary, detail)
}

func (r *Report) Warning(o *NodeObject, summary, detail string) {
	r.add(hcl.DiagWarning, o, summary, detail)
}

func (r *Report) add(sev hcl.DiagnosticSeverity, o *NodeObject, summary, detail string) {
	d := &hcl.Diagnostic{Severity: sev, Summary: summary, Detail: detail}
	if o != nil {
		d.Detail = fmt.Sprintf("node %q (%s): %s", o.StableID, o.TypeName, detail)
		if o.Source.Filename != "" {
			src := o.Source
			d.Subject = &src
		}
	}
	r.Diags = append(r.Diags, d)
}

// HasErrors reports whether any error-level problem was found.
func (r *Report) HasErrors() bool { return r.Diags.HasErrors() }

// Err returns the diagnostics as an error, or nil without errors.
func (r *Report) Err() error {
	if !r.Diags.HasErrors() {
		return nil
	}
	return r.Diags
}

// Check analyzes every object: missing types, failed registrations and the
// node's own CheckError. Cycles between pure value nodes are reported once.
func (g *Graph) Check() *Report {
	r := &Report{}
	for _, o := range g.objects {
		switch {
		case o.node == nil:
			r.Error(o, "Missing node type", fmt.Sprintf("%v: %q", ErrMissingType, o.TypeName))
			continue
		case o.state == Faulted:
			r.Error(o, "Registration failed", o.err.Error())
			continue
		case o.state != Registered:
			r.Warning(o, "Node not registered", "The node has not been registered yet.")
			continue
		}
		if c, ok := o.node.(ErrorChecker); ok {
			c.CheckError(r)
		}
	}
	g.checkValueCycles(r)
	return r
}
