package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompatible is returned when two ports can not be connected.
	ErrIncompatible = errors.New("incompatible ports")
	// ErrStalePort is returned when a released port is used.
	ErrStalePort = errors.New("port is no longer live")
	// ErrReadOnly is returned when writing to a read-only value port.
	ErrReadOnly = errors.New("port is read-only")
	// ErrUnassigned is returned by emission hooks when a required input is
	// not connected.
	ErrUnassigned = errors.New("target is unassigned")
	// ErrStopped is returned from a routine body after its host stopped it.
	ErrStopped = errors.New("routine stopped")
	// ErrNotExecutable is returned when a node lacks the callback its port
	// requires.
	ErrNotExecutable = errors.New("node does not implement the required contract")
	// ErrNotEmittable is returned when a node lacks an emission hook.
	ErrNotEmittable = errors.New("node does not implement code emission")
	// ErrUnknownNode is returned when a stable id has no object.
	ErrUnknownNode = errors.New("unknown node")
	// ErrUnknownVariable is returned for undeclared graph variables.
	ErrUnknownVariable = errors.New("unknown variable")
	// ErrMissingType marks a NodeObject whose Node could not be constructed.
	ErrMissingType = errors.New("missing node type")
)

// DeclarationError is raised (as a panic) by the Declarer when a node
// declares an invalid port set. NodeObject.Register recovers it.
type DeclarationError struct {
	Node   string
	Kind   PortKind
	PortID string
	Reason string
}

func (e *DeclarationError) Error() string {
	return fmt.Sprintf("node %q: %s port %q: %s", e.Node, e.Kind, e.PortID, e.Reason)
}

// RegistrationError records why a NodeObject is Faulted.
type RegistrationError struct {
	Node string
	Type string
	Err  error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register node %q (%s): %v", e.Node, e.Type, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// recovered converts a value recovered from a panic into an error.
func recovered(r any) error {
	switch v := r.(type) {
	case error:
		return v
	default:
		return fmt.Errorf("panic during declaration: %v", v)
	}
}
