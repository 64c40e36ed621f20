// Package pkg provides the core libraries of bricklayers.
//
// # Overview
//
// Bricklayers post-processes sliced G-code for stronger prints. The walls of
// every other layer are raised by half a layer height so that wall lines
// interlock like the bricks of a wall, sparse infill can follow a sine wave
// in Z, and wall loops can be reordered. The pkg directory is organized
// into three areas:
//
//  1. G-code model ([gcode], [layer], [feature])
//  2. Transformers ([transform])
//  3. Orchestration and infrastructure ([pipeline], [cache], [io])
//
// # Architecture
//
// The typical data flow through bricklayers:
//
//	G-code file
//	     ↓
//	[gcode] package (parse lines, trace machine state)
//	     ↓
//	[layer] + [feature] packages (split into layers, tag moves)
//	     ↓
//	[transform] package (reorder → brick-shift → non-planar → settle)
//	     ↓
//	[gcode] package (flatten, rebase extrusion, emit)
//	     ↓
//	G-code file
//
// # Quick Start
//
//	import "github.com/matzehuels/bricklayers/pkg/pipeline"
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Transform.LayerHeight = 0.2
//	result, err := runner.Execute(ctx, data, opts)
//	// result.Output holds the rewritten file
//
// # Main Packages
//
// ## G-code Model
//
// [gcode] - Line-preserving parser and emitter. Every line is kept as
// written; only the fields a transformer touches are re-rendered. Slicer
// dialects (Bambu/Orca, Prusa/SuperSlicer, generic) are detected from the
// file header.
//
// [layer] - Splits a program into layers and marks the first and last
// layers, which are never transformed.
//
// [feature] - Tags every move as outer wall, inner wall, infill, travel or
// other, from slicer comments or, failing those, from geometry.
//
// ## Transformers
//
// [transform] - Wall reordering, brick-shift, non-planar infill and the
// settle pass that restores the nominal height between layers.
//
// ## Orchestration
//
// [pipeline] - The parse → transform → emit pipeline used by the command
// line. Handles caching, the processed-file marker and restore.
//
// [cache] - File and null caches with TTLs, keyed by content hash.
//
// [io] - Reading G-code, atomic replacement of files and report export.
//
// [errors] - Error codes and warnings.
//
// [observability] - Hooks for pipeline and cache events.
//
// [buildinfo] - Version information set at build time.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                 # All tests
//	go test ./pkg/transform/...       # Specific package
//	go test ./pkg/gcode -update       # Regenerate golden files
//
// [gcode]: https://pkg.go.dev/github.com/matzehuels/bricklayers/pkg/gcode
// [layer]: https://pkg.go.dev/github.com/matzehuels/bricklayers/pkg/layer
// [feature]: https://pkg.go.dev/github.com/matzehuels/bricklayers/pkg/feature
// [transform]: https://pkg.go.dev/github.com/matzehuels/bricklayers/pkg/transform
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/bricklayers/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/bricklayers/pkg/cache
// [io]: https://pkg.go.dev/github.com/matzehuels/bricklayers/pkg/io
// [errors]: https://pkg.go.dev/github.com/matzehuels/bricklayers/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/bricklayers/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/bricklayers/pkg/buildinfo
package pkg
