package dag

// Graph is a set of nodes and directed dependency edges. Nodes keep their
// insertion order so that cycle reports are deterministic.
type Graph struct {
	nodes map[string]*node
	order []*node
}

type node struct {
	id string
	// deps holds the nodes this node depends on (predecessors).
	deps map[string]*node
	// dependents holds the nodes depending on this node (successors), in
	// the order the edges were added.
	dependents []*node
}
