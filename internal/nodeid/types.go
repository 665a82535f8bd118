package nodeid

import "fmt"

// Segment is one component of a reference, e.g. `name` or `name[index]`.
type Segment struct {
	Name  string
	Index int // -1 indicates no index is present.
}

// NewSegment creates a segment without an index.
func NewSegment(name string) Segment {
	return Segment{Name: name, Index: -1}
}

// NewIndexedSegment creates a segment with an index.
func NewIndexedSegment(name string, index int) Segment {
	return Segment{Name: name, Index: index}
}

// HasIndex returns true if the segment has an explicit index.
func (s Segment) HasIndex() bool {
	return s.Index != -1
}

func (s Segment) String() string {
	if !s.HasIndex() {
		return s.Name
	}
	return fmt.Sprintf("%s[%d]", s.Name, s.Index)
}

// PortRef addresses one port of one node.
type PortRef struct {
	Node string
	Port Segment
}

// PortID returns the port id as declared by the node, index included.
func (r PortRef) PortID() string { return r.Port.String() }

func (r PortRef) String() string {
	return r.Node + "." + r.Port.String()
}

// IndexedID formats the id of the i-th port of an indexed family.
func IndexedID(name string, i int) string {
	return NewIndexedSegment(name, i).String()
}
