package layout

import (
	"encoding/json"
	"fmt"
)

// TokenGroup is one named cluster of extracted text tokens.
// The JSON shape matches the extraction response.
type TokenGroup struct {
	Name   string   `json:"figure_name"`
	Tokens []string `json:"token"`
}

// PageGeometry describes the slide canvas. All values are inches.
type PageGeometry struct {
	Width         float64 `json:"width_in"`
	Height        float64 `json:"height_in"`
	MarginLeft    float64 `json:"margin_left_in"`
	MarginRight   float64 `json:"margin_right_in"`
	MarginTop     float64 `json:"margin_top_in"`
	MarginBottom  float64 `json:"margin_bottom_in"`
	HeadingHeight float64 `json:"heading_height_in"`
}

// GridConfig controls the token grid and the text metrics used to size boxes.
type GridConfig struct {
	Columns      int     `json:"columns"`
	FontSize     float64 `json:"font_size_pt"`
	FontName     string  `json:"font_name"`
	CharWidth    float64 `json:"char_width_in"`
	MinBoxWidth  float64 `json:"min_box_width_in"`
	MinBoxHeight float64 `json:"min_box_height_in"`
	WrapPadding  float64 `json:"wrap_padding_in"`
}

// LineHeight returns the height of one line of text in inches.
func (g GridConfig) LineHeight() float64 {
	return lineSpacing * g.FontSize / pointsPerInch
}

// Role distinguishes the heading box from token boxes.
type Role int

const (
	RoleToken Role = iota
	RoleHeading
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleHeading:
		return "heading"
	case RoleToken:
		return "token"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// MarshalJSON encodes the role as its name.
func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a role name.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "heading":
		*r = RoleHeading
	case "token":
		*r = RoleToken
	default:
		return fmt.Errorf("unknown placement role %q", s)
	}
	return nil
}

// Placement is the computed position and size of one text box, in inches
// from the top-left corner of the page.
type Placement struct {
	Text   string  `json:"text"`
	Left   float64 `json:"left_in"`
	Top    float64 `json:"top_in"`
	Width  float64 `json:"width_in"`
	Height float64 `json:"height_in"`
	Role   Role    `json:"role"`
}

// Right returns the right edge of the box.
func (p Placement) Right() float64 { return p.Left + p.Width }

// Bottom returns the bottom edge of the box.
func (p Placement) Bottom() float64 { return p.Top + p.Height }

// Result is the layout of one token group.
type Result struct {
	Group      string      `json:"group"`
	Heading    Placement   `json:"heading"`
	Tokens     []Placement `json:"tokens"`
	Rows       int         `json:"rows"`
	CellWidth  float64     `json:"cell_width_in"`
	CellHeight float64     `json:"cell_height_in"`
}

// Placements returns the heading followed by the token boxes.
func (r Result) Placements() []Placement {
	out := make([]Placement, 0, len(r.Tokens)+1)
	out = append(out, r.Heading)
	return append(out, r.Tokens...)
}
