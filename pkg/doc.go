// Package pkg provides the core libraries for descript print-job compilation.
//
// # Overview
//
// Descript compiles hierarchical GDSII layouts into flat Nanoscribe print
// jobs: every placement of a print cell becomes one stage position in a
// generated GWL script. The pkg directory is organized around the pipeline:
//
//  1. [gds] + [layout] - Read the layout and resolve print targets
//  2. [stl] + [recipe] + [slicer] - Bind meshes and slice them through DeScribe
//  3. [gwl] + [assemble] - Model GWL instructions and emit the job script
//  4. [pipeline] - Orchestration (resolve → associate → plan → slice → assemble)
//
// # Architecture
//
// The typical data flow through descript:
//
//	layout.gds + cell meshes (.stl)
//	         ↓
//	    [gds] package (binary GDSII → layout.Library)
//	         ↓
//	    [layout] package (label print cells, flatten placements)
//	         ↓
//	    [slicer] package (DeScribe runs, one per distinct recipe)
//	         ↓
//	    [assemble] package (job script with stage moves + includes)
//	         ↓
//	    <library>_job.gwl + manifest.json
//
// # Quick Start
//
// Compile a layout programmatically:
//
//	import (
//	    "context"
//
//	    "github.com/nanofab/descript/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	defer runner.Close()
//
//	result, err := runner.Execute(context.Background(), pipeline.Options{
//	    LayoutPath: "chip.gds",
//	    OutDir:     "out",
//	})
//
// # Main Packages
//
// [gds] - Binary GDSII reader producing the in-memory cell hierarchy.
//
// [layout] - Cell/reference/repetition model, print-cell labeling, the
// breadth-first placement resolver and the Graphviz hierarchy export.
// [layout/match] holds the target matchers (layer, layerdatatype, printzone).
//
// [transform] - 2D affine placement algebra shared by the resolver and the
// recipe stamping.
//
// [stl] - Mesh discovery and cell-name association.
//
// [recipe] - The typed DeScribe parameter set: canonical keys, file IO,
// per-mesh stamping and content fingerprinting.
//
// [slicer] - DeScribe invocation with per-recipe artifact directories, a
// within-run memo and a cross-run artifact cache.
//
// [gwl] - GWL instruction catalog, parser and document model.
//
// [assemble] - Job script assembly: fixed header blocks plus one stage
// move and include per print target.
//
// [pipeline] - The staged runner used by the CLI: caching, stats, manifest.
//
// [cache] - File, Redis and null cache backends keyed by content hashes.
//
// [preview] - Read-only HTTP view of a completed run directory.
//
// [config] - TOML tool configuration with recipe overrides.
//
// [errors] - Coded errors shared across the packages.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/gwl/...      # Specific package
//
// [gds]: https://pkg.go.dev/github.com/nanofab/descript/pkg/gds
// [layout]: https://pkg.go.dev/github.com/nanofab/descript/pkg/layout
// [layout/match]: https://pkg.go.dev/github.com/nanofab/descript/pkg/layout/match
// [transform]: https://pkg.go.dev/github.com/nanofab/descript/pkg/transform
// [stl]: https://pkg.go.dev/github.com/nanofab/descript/pkg/stl
// [recipe]: https://pkg.go.dev/github.com/nanofab/descript/pkg/recipe
// [slicer]: https://pkg.go.dev/github.com/nanofab/descript/pkg/slicer
// [gwl]: https://pkg.go.dev/github.com/nanofab/descript/pkg/gwl
// [assemble]: https://pkg.go.dev/github.com/nanofab/descript/pkg/assemble
// [pipeline]: https://pkg.go.dev/github.com/nanofab/descript/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/nanofab/descript/pkg/cache
// [preview]: https://pkg.go.dev/github.com/nanofab/descript/pkg/preview
// [config]: https://pkg.go.dev/github.com/nanofab/descript/pkg/config
// [errors]: https://pkg.go.dev/github.com/nanofab/descript/pkg/errors
package pkg
