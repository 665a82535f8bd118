// Package registry maps node type tags (e.g. "flow.for") to constructors.
//
// A Registry is an explicit value created at startup and passed to whatever
// needs to build nodes: the document loaders and the serializer. Modules
// (the built-in node catalog, the state machine package) add their types by
// implementing Module.
//
// ValidateRegistry checks that every registered type honors both execution
// paths: a node that can be interpreted must also be emittable, and its
// configuration fields must map onto cty types.
package registry
