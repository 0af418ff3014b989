// Package pkg provides the core libraries for tokendeck.
//
// # Overview
//
// Tokendeck sends figure images to a vision model, collects the text tokens
// found in each figure, and lays them out on a fixed grid with one slide per
// figure. The pkg directory is organized into four main areas:
//
//  1. Domain logic: [layout], [deck] and [pptx]
//  2. Extraction: [imageset], [extract] and [integrations]
//  3. Persistence: [cache] and [history]
//  4. Orchestration: [pipeline] and [server]
//
// # Architecture
//
// The typical data flow:
//
//	Images (.png, .jpg)
//	         ↓
//	    [imageset] package (collect, dedupe, downscale)
//	         ↓
//	    [extract] package (upload, generate, parse groups; cached)
//	         ↓
//	    [layout] package (grid placement per group)
//	         ↓
//	    [deck] package (slides) → [deck/sink] (PPTX, JSON, text)
//
// # Quick Start
//
// Lay out token groups and write a deck:
//
//	import (
//	    "github.com/matzehuels/tokendeck/pkg/deck"
//	    "github.com/matzehuels/tokendeck/pkg/deck/sink"
//	    "github.com/matzehuels/tokendeck/pkg/layout"
//	)
//
//	groups := []layout.TokenGroup{
//	    {Name: "A", Tokens: []string{"alpha", "beta"}},
//	}
//	d, _ := deck.Build(groups, deck.WithTitle("summary"))
//	data, _ := sink.Render(sink.FormatPPTX, d)
//
// The [pipeline] package wraps these steps, plus extraction and run
// recording, for the CLI and the HTTP server.
//
// # Main Packages
//
// [layout] - Grid placement. Each token gets a box sized from its length,
// clamped to the minimum size and the column width, and placed column by
// column below the heading.
//
// [deck] - Slide model built from layout results, with output naming.
//
// [pptx] - Minimal PresentationML writer and a text reader for inspection.
//
// [extract] - Vision extraction through the Gemini Files and generateContent
// APIs, with a cache decorator.
//
// [cache] - Extraction cache backends: file, Redis and null.
//
// [history] - Run records in SQLite (CLI) or MongoDB (server).
//
// [config] - TOML configuration with environment overrides.
//
// [errors] - Coded errors shared by every package.
//
// [observability] - Hooks for pipeline, cache and HTTP events.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/layout/...             # Specific package
//	go test -tags integration ./pkg/...  # Include Redis and MongoDB tests
//
// [layout]: https://pkg.go.dev/github.com/matzehuels/tokendeck/pkg/layout
// [deck]: https://pkg.go.dev/github.com/matzehuels/tokendeck/pkg/deck
// [deck/sink]: https://pkg.go.dev/github.com/matzehuels/tokendeck/pkg/deck/sink
// [pptx]: https://pkg.go.dev/github.com/matzehuels/tokendeck/pkg/pptx
// [imageset]: https://pkg.go.dev/github.com/matzehuels/tokendeck/pkg/imageset
// [extract]: https://pkg.go.dev/github.com/matzehuels/tokendeck/pkg/extract
// [integrations]: https://pkg.go.dev/github.com/matzehuels/tokendeck/pkg/integrations
// [cache]: https://pkg.go.dev/github.com/matzehuels/tokendeck/pkg/cache
// [history]: https://pkg.go.dev/github.com/matzehuels/tokendeck/pkg/history
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/tokendeck/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/tokendeck/pkg/server
// [config]: https://pkg.go.dev/github.com/matzehuels/tokendeck/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/tokendeck/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/tokendeck/pkg/observability
package pkg
