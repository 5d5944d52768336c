// Package io reads program graph inputs and writes them back out.
//
// # Bundles
//
// A bundle is one document holding everything needed to build a graph:
//
//	{
//	  "units": {
//	    "1:1": {"type": 2, "startsAtLine": "1:5", "endsAtLine": "1:9", "childrenNodes": ["1:2"]},
//	    "1:2": {"type": 0, "startsAtLine": "1:6", "endsAtLine": "1:8"}
//	  },
//	  "dependencies": [{"sink": "1:2", "source": "1:2", "type": "RAW", "var": "sum"}],
//	  "loops": {"1:1": {"iterations": 100}},
//	  "reduction_vars": [{"loop_line": "1:5", "name": "sum", "operation": "+"}]
//	}
//
// The same keys work in YAML and TOML. [ImportBundle] and [ExportBundle]
// pick the encoding from the file extension; [ReadBundle] and
// [WriteBundle] take it explicitly.
//
// # Native Output
//
// The instrumentation front end writes a directory of files instead:
// Data.xml with the unit descriptions, a "*_dep.txt" dependency list keyed
// by source line, loop_counter_output.txt and reduction.txt. [ReadNative]
// converts such a set into a bundle, resolving line-keyed facts to the
// innermost unit covering the line via [LineIndex].
//
// # Loading
//
// [Load] accepts a path or URL and goes through [github.com/viant/afs],
// so inputs may live on local disk, in memory or in object storage. A
// directory is read as native output, anything else as a bundle.
//
//	in, err := io.Load(ctx, "s3://bucket/runs/42/bundle.json")
package io
