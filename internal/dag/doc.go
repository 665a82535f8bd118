// Package dag is a small directed graph keyed by string ids. The graph
// package uses it to find dependency cycles between pure value nodes, which
// would otherwise recurse forever when read.
package dag
