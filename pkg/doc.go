// Package pkg provides the libraries behind pardetect, a detector of
// parallelization opportunities in program execution trees.
//
// # Overview
//
// A profiler records a program as computational units (basic blocks,
// loops and functions) linked by containment, control flow, calls and data
// dependencies. pardetect builds that program execution tree (PET) and
// reports where it can run in parallel. The pkg directory is organized as:
//
//  1. [pet] - The graph model, its builder and normalization transforms
//  2. [detect] - One detector per pattern kind
//  3. [pipeline] - Orchestration (build → normalize → detect → aggregate)
//  4. [io], [render] - Input formats and graph drawing
//  5. [cache], [store], [export/neo4j], [api] - Infrastructure
//
// # Architecture
//
// The typical data flow through pardetect:
//
//	Profiler output (Data.xml, *_dep.txt, loop counters, reductions)
//	         ↓
//	    [io] package (load bundle or native files)
//	         ↓
//	    [pet] package (build graph, elide dummies)
//	         ↓
//	    [detect] package (reduction → do-all → pipeline → geometric → task)
//	         ↓
//	    text/JSON report, DOT/SVG graph, Neo4j, MongoDB
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/pardetect/pkg/io"
//	    "github.com/matzehuels/pardetect/pkg/pipeline"
//	)
//
//	in, _ := io.Load(context.Background(), "./profile")
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, _ := runner.Detect(context.Background(), in, pipeline.Options{})
//	fmt.Print(res)
//
// Detected patterns are reported in a fixed order, and each result carries a
// session-unique id that is stable across text and JSON output.
package pkg
