package sink

import (
	"strconv"
	"time"

	"github.com/matzehuels/tokendeck/pkg/deck"
	"github.com/matzehuels/tokendeck/pkg/layout"
	"github.com/matzehuels/tokendeck/pkg/pptx"
)

// DefaultHeadingFontSize is the heading size in points.
const DefaultHeadingFontSize = 20.0

// PPTXOption configures PPTX rendering via [RenderPPTX].
type PPTXOption func(*pptxRenderer)

type pptxRenderer struct {
	created     time.Time
	headingSize float64
}

// WithCreated records the creation time in the document properties.
// Without it the package carries no timestamps and is byte-for-byte reproducible.
func WithCreated(t time.Time) PPTXOption { return func(r *pptxRenderer) { r.created = t } }

// WithHeadingFontSize overrides the heading font size in points.
func WithHeadingFontSize(pt float64) PPTXOption {
	return func(r *pptxRenderer) { r.headingSize = pt }
}

// RenderPPTX encodes the deck as a .pptx package. Each placement becomes a
// word-wrapped text box in the grid font; headings are bold.
func RenderPPTX(d *deck.Deck, opts ...PPTXOption) ([]byte, error) {
	r := pptxRenderer{headingSize: DefaultHeadingFontSize}
	for _, opt := range opts {
		opt(&r)
	}

	p := &pptx.Presentation{
		Title:   d.Title,
		Created: r.created,
		Width:   d.Page.Width,
		Height:  d.Page.Height,
		Slides:  make([]pptx.Slide, len(d.Slides)),
	}
	for i, s := range d.Slides {
		shapes := make([]pptx.TextBox, 0, len(s.Tokens)+1)
		shapes = append(shapes, textBox(s.Heading, "Heading", r.headingSize, d.Grid.FontName))
		for j, tok := range s.Tokens {
			shapes = append(shapes, textBox(tok, tokenShapeName(j), d.Grid.FontSize, d.Grid.FontName))
		}
		p.Slides[i] = pptx.Slide{Shapes: shapes}
	}
	return p.Bytes()
}

func textBox(pl layout.Placement, name string, size float64, font string) pptx.TextBox {
	return pptx.TextBox{
		Name:     name,
		Text:     pl.Text,
		Left:     pl.Left,
		Top:      pl.Top,
		Width:    pl.Width,
		Height:   pl.Height,
		FontSize: size,
		FontName: font,
		Bold:     pl.Role == layout.RoleHeading,
		WordWrap: true,
	}
}

func tokenShapeName(i int) string {
	return "Token " + strconv.Itoa(i+1)
}
