package graph

import "slices"

// Collection is an ordered set of ports with unique ids.
type Collection struct {
	ports []*Port
	index map[string]int
}

// Len returns the number of ports.
func (c *Collection) Len() int { return len(c.ports) }

// At returns the i-th port in declaration order.
func (c *Collection) At(i int) *Port { return c.ports[i] }

// Get looks a port up by id.
func (c *Collection) Get(id string) (*Port, bool) {
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return c.ports[i], true
}

// All returns the ports in declaration order.
func (c *Collection) All() []*Port { return slices.Clone(c.ports) }

// IDs returns the port ids in declaration order.
func (c *Collection) IDs() []string {
	ids := make([]string, len(c.ports))
	for i, p := range c.ports {
		ids[i] = p.ID
	}
	return ids
}

func (c *Collection) has(id string) bool {
	_, ok := c.index[id]
	return ok
}

func (c *Collection) add(p *Port) {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	c.index[p.ID] = len(c.ports)
	c.ports = append(c.ports, p)
}

func (c *Collection) reset(ports []*Port) {
	c.ports = nil
	c.index = nil
	for _, p := range ports {
		c.add(p)
	}
}
