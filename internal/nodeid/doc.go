/*
Package nodeid parses and formats port references, the textual addresses
documents use to wire ports together.

A reference is a node stable id and a port id joined by a dot, where the port
id may carry an index:

	start.out[0]
	loop.body
	cmp.a

Indexed port ids are how nodes with a variable number of ports name them
(event fan-out outputs, logic inputs, sequence steps).
*/
package nodeid
