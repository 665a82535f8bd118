// Package graph implements the node/port runtime shared by the interpreter and
// the source emitter.
//
// # Entities
//
//   - **Port** (port.go): a typed endpoint. Value ports carry cty values,
//     flow ports carry control. Every port of a Graph lives in one Arena and
//     is addressed by a Handle.
//   - **Connection** (arena.go): an index pair of handles. The arena owns all
//     connections, so ports never point at each other.
//   - **NodeObject** (object.go): the container entity. It owns one Node and
//     the four port collections, and drives registration.
//   - **Node** (node.go): the behavior. Concrete node types embed one of the
//     base types (EventNode, FlowNode, ValueNode, ...) and implement both the
//     interpreted contract (GetValue, OnExecuted, ...) and the emission
//     contract (GenerateValueCode, GenerateFlowCode).
//   - **Flow** (flow.go): the per-trigger execution context. It stores
//     port-local data slots and threads Jump signals as return values.
//   - **Instance** (instance.go): one running copy of a Graph.
//
// # Live Editing
//
// NodeObject.Register asks the Node to declare its ports again. Ports whose
// (kind, id) pair survives keep their identity and their connections; the
// new declaration only transplants static attributes onto the old object.
// If declaration fails, the previous collections are put back untouched and
// the object is marked Faulted.
//
// Every Register bumps the graph generation and records the object in the
// live table (stable id -> current object). Callbacks of a superseded object
// redirect to the live substitute with the same stable id, or become logged
// no-ops when none exists.
//
// # Concurrency
//
// The package performs no locking. Registration and execution are expected to
// happen on one logical thread; suspension happens only through Routines
// handed to the host Spawner.
package graph
