// Package sink provides output format renderers for slide decks.
//
// # Overview
//
// A "sink" transforms a built [deck.Deck] into a final output format.
// This package provides renderers for:
//
//   - PPTX: PowerPoint presentation, one slide per token group
//   - JSON: Placement data export for external tools
//   - TXT: Plain text outline (heading then tokens, per slide)
//
// Basic usage:
//
//	data, err := sink.RenderPPTX(d, sink.WithCreated(time.Now()))
//
// [Render] dispatches on a [Format] name, which is how the CLI and HTTP
// server select output:
//
//	data, err := sink.Render(sink.FormatJSON, d)
//
// All renderers are pure functions of the deck and safe to call concurrently.
//
// [deck.Deck]: github.com/matzehuels/tokendeck/pkg/deck.Deck
package sink
