// Package io provides JSON import and export for token groups.
//
// # Overview
//
// Token groups are the hand-off between extraction and layout. Saving them
// as JSON lets a run be re-rendered without calling the vision API again,
// and lets groups produced by other tools be laid out.
//
// # JSON Format
//
// The format is the extraction response itself, an array of objects:
//
//	[
//	  {"figure_name": "P1", "token": ["A", "BB", "CCC"]},
//	  {"figure_name": "P2", "token": []}
//	]
//
// An object wrapping the array under "groups" is also accepted, which is the
// request body shape of the HTTP service:
//
//	{"groups": [{"figure_name": "P1", "token": ["A"]}]}
//
// # Lenient Decoding
//
// Model output is not always well formed. [ReadGroups] therefore:
//
//   - Skips entries with a missing or blank figure_name (counted in [ReadStats])
//   - Treats a missing or null token field as an empty group
//   - Keeps numeric and boolean tokens as their JSON text
//   - Drops null tokens
//
// Anything that is not JSON at all is an INVALID_FORMAT error.
//
// # Export
//
// [WriteGroups] and [ExportGroups] write the array form with two-space
// indentation. Output re-imports identically.
package io
