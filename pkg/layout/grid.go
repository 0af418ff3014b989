package layout

import (
	"math"
	"unicode/utf8"

	"github.com/matzehuels/tokendeck/pkg/errors"
)

const (
	// headingGap separates the heading band from the grid.
	headingGap = 0.1
	// headingLift raises the heading above the top margin.
	headingLift = 0.1
	// cellInset offsets each box from its cell's top-left corner.
	cellInset = 0.05
	// rowFill caps a box at this fraction of its cell height.
	rowFill = 0.9

	lineSpacing   = 1.3
	pointsPerInch = 72.0
)

// HeadingText returns the heading shown above a group's tokens.
func HeadingText(name string) string {
	return "Tokens from panel " + name
}

// Region is the printable area of a page, below the heading band.
type Region struct {
	Left, Top, Width, Height float64
}

// Region returns the printable grid area of the page.
func (p PageGeometry) Region() Region {
	top := p.MarginTop + p.HeadingHeight + headingGap
	return Region{
		Left:   p.MarginLeft,
		Top:    top,
		Width:  p.Width - p.MarginLeft - p.MarginRight,
		Height: p.Height - top - p.MarginBottom,
	}
}

// Validate reports whether the page yields a usable printable region.
func (p PageGeometry) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidLayout, "page size must be positive, got %gx%g", p.Width, p.Height)
	}
	if p.MarginLeft < 0 || p.MarginRight < 0 || p.MarginTop < 0 || p.MarginBottom < 0 {
		return errors.New(errors.ErrCodeInvalidLayout, "margins must not be negative")
	}
	if p.HeadingHeight < 0 {
		return errors.New(errors.ErrCodeInvalidLayout, "heading height must not be negative, got %g", p.HeadingHeight)
	}
	r := p.Region()
	if r.Width <= 0 {
		return errors.New(errors.ErrCodeInvalidLayout, "printable width is %g: margins consume the page width", r.Width)
	}
	if r.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidLayout, "printable height is %g: margins and heading consume the page height", r.Height)
	}
	return nil
}

// Validate reports whether the grid parameters are usable.
func (g GridConfig) Validate() error {
	if g.Columns < 1 {
		return errors.New(errors.ErrCodeInvalidLayout, "columns must be >= 1, got %d", g.Columns)
	}
	if g.FontSize <= 0 {
		return errors.New(errors.ErrCodeInvalidLayout, "font size must be positive, got %g", g.FontSize)
	}
	if g.CharWidth <= 0 {
		return errors.New(errors.ErrCodeInvalidLayout, "char width must be positive, got %g", g.CharWidth)
	}
	if g.MinBoxWidth <= 0 || g.MinBoxHeight <= 0 {
		return errors.New(errors.ErrCodeInvalidLayout, "minimum box size must be positive, got %gx%g", g.MinBoxWidth, g.MinBoxHeight)
	}
	if g.WrapPadding <= 0 {
		return errors.New(errors.ErrCodeInvalidLayout, "wrap padding must be positive, got %g", g.WrapPadding)
	}
	return nil
}

func validate(page PageGeometry, grid GridConfig) error {
	if err := page.Validate(); err != nil {
		return err
	}
	if err := grid.Validate(); err != nil {
		return err
	}
	if grid.MinBoxWidth > page.Width || grid.MinBoxHeight > page.Height {
		return errors.New(errors.ErrCodeInvalidLayout,
			"minimum box %gx%g exceeds page %gx%g", grid.MinBoxWidth, grid.MinBoxHeight, page.Width, page.Height)
	}
	return nil
}

// Layout places the heading and tokens of group on a page.
// Token placements follow the order of group.Tokens.
func Layout(group TokenGroup, page PageGeometry, grid GridConfig) (Result, error) {
	if err := validate(page, grid); err != nil {
		return Result{}, err
	}

	region := page.Region()
	n := len(group.Tokens)
	rows := max(1, (n+grid.Columns-1)/grid.Columns)
	cellW := region.Width / float64(grid.Columns)
	cellH := region.Height / float64(rows)
	lineH := grid.LineHeight()

	res := Result{
		Group: group.Name,
		Heading: Placement{
			Text:   HeadingText(group.Name),
			Left:   page.MarginLeft,
			Top:    page.MarginTop - headingLift,
			Width:  region.Width,
			Height: page.HeadingHeight,
			Role:   RoleHeading,
		},
		Tokens:     make([]Placement, n),
		Rows:       rows,
		CellWidth:  cellW,
		CellHeight: cellH,
	}

	for i, text := range group.Tokens {
		row, col := i/grid.Columns, i%grid.Columns
		length := utf8.RuneCountInString(text)

		// Width is fixed before the line count is derived from it.
		width := clamp(grid.CharWidth*float64(length)+grid.WrapPadding, grid.MinBoxWidth, cellW)
		maxChars := max(1, int(math.Floor((width-grid.WrapPadding)/grid.CharWidth)))
		lines := max(1, (length+maxChars-1)/maxChars)
		height := clamp(float64(lines)*lineH, grid.MinBoxHeight, rowFill*cellH)

		res.Tokens[i] = Placement{
			Text:   text,
			Left:   region.Left + float64(col)*cellW + cellInset,
			Top:    region.Top + float64(row)*cellH + cellInset,
			Width:  width,
			Height: height,
			Role:   RoleToken,
		}
	}
	return res, nil
}

// LayoutAll lays out each group in order, stopping at the first error.
func LayoutAll(groups []TokenGroup, page PageGeometry, grid GridConfig) ([]Result, error) {
	if err := validate(page, grid); err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(groups))
	for _, g := range groups {
		res, err := Layout(g, page, grid)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidLayout, err, "layout group %q", g.Name)
		}
		out = append(out, res)
	}
	return out, nil
}

// clamp bounds v to [lo, hi]. When lo > hi the upper bound wins.
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}
