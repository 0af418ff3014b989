package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strings"
	"time"
)

// EMUPerInch is the number of English Metric Units in one inch.
const EMUPerInch = 914400

// Presentation is an in-memory slide deck.
type Presentation struct {
	Title   string
	Created time.Time
	Width   float64 // inches
	Height  float64 // inches
	Slides  []Slide
}

// Slide is one slide of absolutely positioned text boxes.
type Slide struct {
	Shapes []TextBox
}

// TextBox is a rectangular text shape. Geometry is in inches.
type TextBox struct {
	Name     string
	Text     string
	Left     float64
	Top      float64
	Width    float64
	Height   float64
	FontSize float64 // points
	FontName string
	Bold     bool
	WordWrap bool
}

// EMU converts inches to English Metric Units.
func EMU(inches float64) int64 {
	return int64(math.Round(inches * EMUPerInch))
}

type part struct {
	name string
	data []byte
}

// WriteTo writes the presentation as a .pptx package.
func (p *Presentation) WriteTo(w io.Writer) (int64, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return 0, fmt.Errorf("pptx: slide size must be positive, got %gx%g", p.Width, p.Height)
	}

	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	for _, pt := range p.parts() {
		hdr := &zip.FileHeader{Name: pt.name, Method: zip.Deflate}
		if !p.Created.IsZero() {
			hdr.Modified = p.Created
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return cw.n, fmt.Errorf("pptx: create %s: %w", pt.name, err)
		}
		if _, err := fw.Write(pt.data); err != nil {
			return cw.n, fmt.Errorf("pptx: write %s: %w", pt.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("pptx: close package: %w", err)
	}
	return cw.n, nil
}

// Bytes returns the encoded package.
func (p *Presentation) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := p.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *Presentation) parts() []part {
	n := len(p.Slides)
	parts := []part{
		{"[Content_Types].xml", contentTypes(n)},
		{"_rels/.rels", []byte(xmlHeader + rootRels)},
		{"docProps/app.xml", appProps(n)},
		{"docProps/core.xml", coreProps(p.Title, p.Created)},
		{"ppt/presentation.xml", presentationXML(n, EMU(p.Width), EMU(p.Height))},
		{"ppt/_rels/presentation.xml.rels", presentationRels(n)},
		{"ppt/slideMasters/slideMaster1.xml", []byte(xmlHeader + slideMaster)},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", []byte(xmlHeader + slideMasterRels)},
		{"ppt/slideLayouts/slideLayout1.xml", []byte(xmlHeader + slideLayout)},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", []byte(xmlHeader + slideLayoutRels)},
		{"ppt/theme/theme1.xml", []byte(xmlHeader + theme)},
	}
	for i, s := range p.Slides {
		parts = append(parts,
			part{fmt.Sprintf("ppt/slides/slide%d.xml", i+1), slideXML(s)},
			part{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), []byte(xmlHeader + slideRels)},
		)
	}
	return parts
}

func slideXML(s Slide) []byte {
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	buf.WriteString(`<p:sld ` + nsDecl + `><p:cSld><p:spTree>`)
	buf.WriteString(groupShapeProps)
	for i, tb := range s.Shapes {
		writeTextBox(&buf, i+2, tb)
	}
	buf.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return buf.Bytes()
}

func writeTextBox(buf *bytes.Buffer, id int, tb TextBox) {
	name := tb.Name
	if name == "" {
		name = fmt.Sprintf("TextBox %d", id-1)
	}
	wrap := "none"
	if tb.WordWrap {
		wrap = "square"
	}

	fmt.Fprintf(buf, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, escape(name))
	fmt.Fprintf(buf, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`,
		EMU(tb.Left), EMU(tb.Top), EMU(tb.Width), EMU(tb.Height))
	buf.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>`)
	fmt.Fprintf(buf, `<p:txBody><a:bodyPr wrap="%s" rtlCol="0"><a:normAutofit/></a:bodyPr><a:lstStyle/>`, wrap)

	var attrs strings.Builder
	attrs.WriteString(`lang="en-US"`)
	if tb.FontSize > 0 {
		fmt.Fprintf(&attrs, ` sz="%d"`, int(math.Round(tb.FontSize*100)))
	}
	if tb.Bold {
		attrs.WriteString(` b="1"`)
	}
	font := ""
	if tb.FontName != "" {
		font = fmt.Sprintf(`<a:latin typeface="%s"/><a:ea typeface="%s"/>`, escape(tb.FontName), escape(tb.FontName))
	}

	for _, line := range strings.Split(tb.Text, "\n") {
		fmt.Fprintf(buf, `<a:p><a:r><a:rPr %s dirty="0">%s</a:rPr><a:t>%s</a:t></a:r></a:p>`, attrs.String(), font, escape(line))
	}
	buf.WriteString(`</p:txBody></p:sp>`)
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
