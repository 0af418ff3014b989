// Package deck turns extracted token groups into a slide deck model.
//
// A [Deck] holds one [Slide] per token group, in group order, with the
// placements computed by [layout.Layout]. Sinks in [deck/sink] encode a
// deck as .pptx, JSON or plain text.
//
//	d, err := deck.Build(groups, deck.WithTitle("Panels"))
//	data, err := sink.RenderPPTX(d)
//
// [deck/sink]: github.com/matzehuels/tokendeck/pkg/deck/sink
package deck

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/tokendeck/pkg/errors"
	"github.com/matzehuels/tokendeck/pkg/layout"
)

// Extension is the file extension of rendered decks.
const Extension = ".pptx"

// Deck is a laid-out presentation ready for rendering.
type Deck struct {
	Title  string              `json:"title,omitempty"`
	Page   layout.PageGeometry `json:"page"`
	Grid   layout.GridConfig   `json:"grid"`
	Slides []Slide             `json:"slides"`
}

// Slide is the layout of one token group.
type Slide struct {
	Group   string             `json:"group"`
	Heading layout.Placement   `json:"heading"`
	Tokens  []layout.Placement `json:"tokens"`
}

// TokenCount returns the number of token boxes across all slides.
func (d *Deck) TokenCount() int {
	n := 0
	for _, s := range d.Slides {
		n += len(s.Tokens)
	}
	return n
}

// Option configures [Build].
type Option func(*builder)

type builder struct {
	title string
	page  layout.PageGeometry
	grid  layout.GridConfig
}

// WithPage sets the page geometry (default [layout.DefaultPage]).
func WithPage(p layout.PageGeometry) Option { return func(b *builder) { b.page = p } }

// WithGrid sets the grid configuration (default [layout.DefaultGrid]).
func WithGrid(g layout.GridConfig) Option { return func(b *builder) { b.grid = g } }

// WithTitle sets the deck title stored in document properties.
func WithTitle(title string) Option { return func(b *builder) { b.title = title } }

// Build lays out each group onto its own slide.
func Build(groups []layout.TokenGroup, opts ...Option) (*Deck, error) {
	b := builder{page: layout.DefaultPage(), grid: layout.DefaultGrid()}
	for _, opt := range opts {
		opt(&b)
	}

	results, err := layout.LayoutAll(groups, b.page, b.grid)
	if err != nil {
		return nil, err
	}

	d := &Deck{
		Title:  b.title,
		Page:   b.page,
		Grid:   b.grid,
		Slides: make([]Slide, len(results)),
	}
	for i, r := range results {
		d.Slides[i] = Slide{Group: r.Group, Heading: r.Heading, Tokens: r.Tokens}
	}
	return d, nil
}

// OutputName derives the deck file name from a user-supplied name.
// An empty name yields output_YYYYMMDD_HHMMSS.pptx from now. Otherwise the
// name is reduced to its base file name and .pptx is appended when missing.
// Traversal attempts, control characters and hidden names are rejected.
func OutputName(name string, now time.Time) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "output_" + now.Format("20060102_150405") + Extension, nil
	}
	base, err := errors.SanitizeFilename(name)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(filepath.Ext(base), Extension) {
		base += Extension
	}
	return base, nil
}
