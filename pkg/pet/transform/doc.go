// Package transform prepares a PET graph for pattern detection.
//
// # Overview
//
// Graphs built from instrumentation output contain placeholder units and
// carry only per-unit attributes. Detectors expect the placeholders gone and
// per-function aggregates present. This package provides both steps; each
// mutates the graph in place.
//
// # Dummy Elision
//
// [Normalize] walks the graph and collects every Dummy unit reachable over a
// Child or Calls edge, then removes the collected units and their incident
// edges in a single pass:
//
//	removed := transform.Normalize(g, transform.NormalizeOptions{RemoveDummies: true})
//
// With RestrictToLoops set only edges leaving Loop units are inspected.
// Dummy units are never used as walk sources, so a dummy reachable only from
// another dummy survives. Normalize is idempotent.
//
// # Function Metadata
//
// [ComputeFunctionMetadata] recomputes, for every Function unit, the variable
// sets declared in its body and the set of body units that call the function
// again:
//
//	transform.ComputeFunctionMetadata(g)
//
// The previous values are discarded first, so repeated calls yield the same
// result.
package transform
