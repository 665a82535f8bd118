package graph

import (
	"github.com/zclconf/go-cty/cty"
)

type jumpKind uint8

const (
	jumpNone jumpKind = iota
	jumpContinue
	jumpBreak
	jumpReturn
)

// Jump is the control signal returned by every execution callback. The zero
// value means "no jump": execution continues normally.
type Jump struct {
	kind  jumpKind
	value cty.Value
}

var (
	// Continue skips to the next iteration of the innermost loop.
	Continue = Jump{kind: jumpContinue}
	// Break leaves the innermost loop.
	Break = Jump{kind: jumpBreak}
)

// Return leaves the current event or function with v.
func Return(v cty.Value) Jump {
	return Jump{kind: jumpReturn, value: v}
}

// Pending reports whether a jump is in progress.
func (j Jump) Pending() bool { return j.kind != jumpNone }

func (j Jump) IsContinue() bool { return j.kind == jumpContinue }
func (j Jump) IsBreak() bool    { return j.kind == jumpBreak }
func (j Jump) IsReturn() bool   { return j.kind == jumpReturn }

// Value returns the value carried by a Return jump.
func (j Jump) Value() cty.Value {
	if j.kind != jumpReturn || j.value.Type() == cty.NilType {
		return cty.NullVal(cty.DynamicPseudoType)
	}
	return j.value
}

// AtLoopBoundary applies loop semantics to a jump coming out of a loop body:
// Continue is consumed, Break is consumed and ends the loop, Return ends the
// loop and propagates.
func (j Jump) AtLoopBoundary() (stop bool, propagate Jump) {
	switch j.kind {
	case jumpContinue:
		return false, Jump{}
	case jumpBreak:
		return true, Jump{}
	case jumpReturn:
		return true, j
	}
	return false, Jump{}
}

func (j Jump) String() string {
	switch j.kind {
	case jumpContinue:
		return "continue"
	case jumpBreak:
		return "break"
	case jumpReturn:
		return "return"
	}
	return "none"
}
