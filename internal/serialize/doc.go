// Package serialize persists graphs as documents.
//
// The state of each node is an opaque blob: the node's hcl-tagged fields as
// one cty object, encoded with cty's msgpack format, next to the object type
// encoded as cty JSON. A document holds the blobs together with stable ids,
// type tags, positions, a reference table and the connections, and is
// written as YAML or msgpack.
//
// Loading never fails because a node type is unknown. Such nodes are added
// to the graph without logic and keep their blob in NodeObject.Opaque, so
// saving the graph again writes it back unchanged.
package serialize
