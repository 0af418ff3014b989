package sink

import (
	"encoding/json"

	"github.com/matzehuels/tokendeck/pkg/deck"
	"github.com/matzehuels/tokendeck/pkg/layout"
)

type jsonOutput struct {
	Title  string              `json:"title,omitempty"`
	Page   layout.PageGeometry `json:"page"`
	Grid   layout.GridConfig   `json:"grid"`
	Slides []jsonSlide         `json:"slides"`
}

type jsonSlide struct {
	Index      int                `json:"index"`
	Group      string             `json:"group"`
	Placements []layout.Placement `json:"placements"`
}

// RenderJSON exports the deck as a pretty-printed JSON document listing
// every placement per slide, heading first. The page and grid parameters
// are included so the layout can be reproduced.
func RenderJSON(d *deck.Deck) ([]byte, error) {
	out := jsonOutput{
		Title:  d.Title,
		Page:   d.Page,
		Grid:   d.Grid,
		Slides: make([]jsonSlide, len(d.Slides)),
	}
	for i, s := range d.Slides {
		pl := make([]layout.Placement, 0, len(s.Tokens)+1)
		pl = append(pl, s.Heading)
		pl = append(pl, s.Tokens...)
		out.Slides[i] = jsonSlide{Index: i + 1, Group: s.Group, Placements: pl}
	}
	return json.MarshalIndent(out, "", "  ")
}
