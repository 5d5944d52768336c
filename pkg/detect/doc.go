// Package detect finds parallelization patterns in a PET graph.
//
// # Overview
//
// Each pattern kind has a [Detector]. A detector receives a [Context] with a
// read-only view of the normalized graph and returns one [Result] per
// occurrence. Detectors never add or remove nodes or edges; the only writes
// they perform are the analysis [pet.Flags] and loop attributes that later
// detectors read as exclusion criteria.
//
// # Run Order
//
// [Order] fixes the sequence in which detectors must run:
//
//	reduction → do-all → pipeline → geometric-decomposition → task
//
// Reduction must precede do-all: a loop claimed as a reduction carries the
// Reduction flag, and do-all skips flagged loops, so no loop is reported as
// both. [Detectors] returns the built-in detectors in this order.
//
// # Loop-Carried Dependencies
//
// Several detectors share one notion. A RAW data edge s→t (s reads what t
// writes) is loop-carried for loop L when both ends lie in L's Child subtree,
// the variable is neither a local nor an index variable of L, and either the
// profiler marked it inter-iteration, s and t are the same unit, or t starts
// after s (the read sees a value written by an earlier iteration).
//
// # Results
//
// All results embed a sequential id assigned by the [Session] of the run.
// Reduction and do-all results implement [fmt.Stringer]; every result can
// describe itself against the graph with Describe. Use [Of] to select results
// of one concrete type:
//
//	for _, r := range detect.Of[*detect.ReductionInfo](results) {
//	    fmt.Println(r.Pragma())
//	}
package detect
