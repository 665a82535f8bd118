// Package ctyconv converts between cty values and the native Go values the
// emitted programs work with: float64, string, bool, []any and
// map[string]any.
package ctyconv
