// Package layout computes text box placements for token slides.
//
// # Overview
//
// Each [TokenGroup] (one named cluster of extracted tokens, typically one
// source image) becomes one slide. This package computes where each token's
// text box goes on that slide and how large it is. The result is a
// [Result] holding one heading [Placement] plus one token [Placement] per
// token, in input order:
//
//   - Heading spanning the printable width above the grid
//   - Token boxes packed row-major into a fixed-column grid
//   - Cell dimensions and row count used for the computation
//
// # Grid
//
// The printable region is the page minus its margins and the heading band
// (plus a fixed 0.1in gap). It is split into [GridConfig.Columns] columns
// and ceil(n/columns) rows, never fewer than one row, so an empty group
// still yields a valid heading and no division by zero.
//
// # Box Sizing
//
// Sizing is estimate-then-reconcile. Width comes first from a character
// count heuristic:
//
//	natural = CharWidth*len(token) + WrapPadding
//	width   = clamp(natural, MinBoxWidth, cellWidth)
//
// The wrapped line count is then recomputed against the chosen width, and
// the height follows from it:
//
//	maxChars = max(1, floor((width-WrapPadding)/CharWidth))
//	lines    = max(1, ceil(len(token)/maxChars))
//	height   = clamp(lines*1.3*FontSize/72, MinBoxHeight, 0.9*cellHeight)
//
// Token length is counted in runes. Every box is offset 0.05in into its
// cell. When a cell is smaller than the minimum box the cell bound wins.
//
// # Usage
//
//	res, err := layout.Layout(group, layout.DefaultPage(), layout.DefaultGrid())
//	if err != nil {
//	    return err
//	}
//	for _, p := range res.Tokens {
//	    fmt.Println(p.Text, p.Left, p.Top, p.Width, p.Height)
//	}
//
// [Layout] is pure: identical inputs yield identical output, it performs no
// I/O and never logs. Invalid geometry is reported as an error with code
// INVALID_LAYOUT from [github.com/matzehuels/tokendeck/pkg/errors].
package layout
