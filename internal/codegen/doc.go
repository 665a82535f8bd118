// Package codegen is the Go emission backend. It implements
// graph.Generator and assembles the fragments produced by the nodes of a
// graph into a formatted `package main` program.
//
// Every graph variable becomes a package-level variable, every event a
// function `func ev_<id>() any`, and main calls the requested events in
// order. Values use the host types float64, string, bool, []any,
// map[string]any and any.
package codegen
