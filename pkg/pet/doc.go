// Package pet provides the program graph (PET graph) of computational units
// that pattern detection runs on.
//
// # Overview
//
// A computational unit (CU) is a region of source code - a block, a function
// body or a loop body - identified by the composite key "<file>:<node>". The
// [Graph] is a directed, typed multigraph over those units with four edge
// types:
//
//   - [EdgeChild]: structural containment, parent span encloses child
//   - [EdgeSuccessor]: control-flow order
//   - [EdgeData]: a profiled data dependency carrying variable and direction
//   - [EdgeCalls]: a call site referencing the called function
//
// Several edges may connect the same ordered pair, e.g. one Data edge per
// variable.
//
// # Construction
//
// [Build] creates the graph from an [Input] bundle. It is lenient about
// references: a child, successor, call or dependency endpoint that names no
// unit still gets its edge, and a warning is logged and kept in
// [Graph.Warnings]. Dereferencing such an edge later with [Graph.NodeAt]
// returns a [*NodeNotFoundError]. Malformed ids abort construction with a
// [*MalformedIDError].
//
//	g, err := pet.Build(input, logger)
//	loop, err := g.NodeAt(pet.MustParseID("0:1"))
//	for _, e := range g.OutEdges(loop.ID, pet.EdgeChild) {
//	    // ...
//	}
//
// # Node Kinds
//
// Unit kinds are [KindBasic], [KindFunction], [KindLoop] and [KindDummy].
// Kind-specific attributes live in [Node.Func] and [Node.Loop], which are
// non-nil exactly for function and loop units.
//
// # Detector Access
//
// Detectors receive the graph as a [View]: they may read everything and set
// [Flags] on nodes, but cannot add or remove nodes or edges. Structural
// changes (dummy elision) happen in the transform subpackage before
// detection starts.
//
// # Concurrency
//
// Graph instances are not safe for concurrent use.
package pet
