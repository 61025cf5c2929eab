// Package pkg provides the core libraries for the Musicore engraving engine.
//
// # Overview
//
// Musicore transforms score documents (instruments, staves, voices, notes)
// into complete spatial layouts with SMuFL glyph positions, ready for
// rendering by any front end. The pkg directory is organized into four main
// areas:
//
//  1. [score] - The score document model and parser
//  2. [engrave] - The layout engine (metrics, spacing, breaking, positioning)
//  3. [pipeline] - Orchestration (parse → layout) with caching
//  4. [api], [store], [cache] - Serving and persistence infrastructure
//
// # Architecture
//
// The typical data flow through Musicore:
//
//	score.json document
//	         ↓
//	    [score] package (parse + validate)
//	         ↓
//	    [engrave] package (measure → space → break → position → beam)
//	         ↓
//	    [pipeline] package (caching, stats, serialization)
//	         ↓
//	    layout.json output (CLI file or API response)
//
// # Quick Start
//
// Parse a score and compute its layout:
//
//	import (
//	    "github.com/aylabs/musicore/pkg/engrave"
//	    "github.com/aylabs/musicore/pkg/score"
//	)
//
//	// 1. Parse the score document
//	sc, _ := score.ReadFile("prelude.json")
//
//	// 2. Compute the layout
//	layout, _ := engrave.ComputeLayout(sc, engrave.DefaultLayoutConfig())
//
//	// 3. Walk the result
//	for _, system := range layout.Systems {
//	    fmt.Println("system", system.Index, "measures", system.MeasureNumber)
//	}
//
// # Main Packages
//
// ## Domain
//
// [score] - The score document model: instruments, staves, voices, notes,
// clefs, time signatures, and beam annotations. Ticks are the time unit
// (960 per quarter note). Parse validates all structural invariants.
//
// [engrave] - The layout engine. Internally a fixed pass order: glyph
// metrics, horizontal spacing, greedy line breaking, vertical positioning,
// and beam/stem geometry. The output is deterministic: the same score and
// config always produce byte-identical layout JSON.
//
// [inspect] - Graphviz diagrams of the score hierarchy, for debugging
// imported documents before engraving them.
//
// ## Orchestration
//
// [pipeline] - The parse → layout pipeline used by CLI and API. Ensures
// consistent behavior and shared caching across all entry points.
//
// ## Infrastructure
//
// [cache] - Layout result caching keyed by score content hash plus layout
// options. FileCache for CLI, RedisCache for the API server, NullCache for
// tests.
//
// [store] - Score document persistence. MemoryStore for tests,
// FileStore for the CLI library (~/.config/musicore/scores/), MongoStore
// for the API server.
//
// [httputil] - Fetching remote score documents with caching and retry.
//
// [api] - The chi-based HTTP API: inline and stored-score layout
// computation plus score CRUD.
//
// [errors] - Structured error codes shared by CLI and API.
//
// [observability] - Optional instrumentation hooks for pipeline, cache,
// and HTTP events.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/engrave/...    # Layout engine only
//
// [score]: https://pkg.go.dev/github.com/aylabs/musicore/pkg/score
// [engrave]: https://pkg.go.dev/github.com/aylabs/musicore/pkg/engrave
// [inspect]: https://pkg.go.dev/github.com/aylabs/musicore/pkg/inspect
// [pipeline]: https://pkg.go.dev/github.com/aylabs/musicore/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/aylabs/musicore/pkg/cache
// [store]: https://pkg.go.dev/github.com/aylabs/musicore/pkg/store
// [httputil]: https://pkg.go.dev/github.com/aylabs/musicore/pkg/httputil
// [api]: https://pkg.go.dev/github.com/aylabs/musicore/pkg/api
// [errors]: https://pkg.go.dev/github.com/aylabs/musicore/pkg/errors
// [observability]: https://pkg.go.dev/github.com/aylabs/musicore/pkg/observability
package pkg
