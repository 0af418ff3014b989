// Package pptx writes and reads minimal PresentationML (.pptx) packages.
//
// # Writing
//
// A [Presentation] is a list of slides, each holding absolutely positioned
// [TextBox] shapes. Geometry is given in inches and converted to EMU
// (914400 per inch); font sizes are in points.
//
//	p := &pptx.Presentation{Width: 10, Height: 7.5}
//	p.Slides = append(p.Slides, pptx.Slide{Shapes: []pptx.TextBox{
//	    {Text: "hello", Left: 1, Top: 1, Width: 2, Height: 0.5, FontSize: 14, FontName: "Arial"},
//	}})
//	_, err := p.WriteTo(f)
//
// The package contains a single slide master, a blank layout and a theme,
// which is the smallest set PowerPoint, Keynote and LibreOffice all open.
//
// # Reading
//
// [ReadText] extracts the text of each slide in order. It is used to
// inspect generated decks and works on any .pptx file.
package pptx
