package layout

// Default slide and grid parameters. The page is a 4:3 slide.
const (
	DefaultColumns      = 4
	DefaultFontSize     = 14.0
	DefaultFontName     = "Arial"
	DefaultCharWidth    = 0.097
	DefaultMinBoxWidth  = 0.45
	DefaultMinBoxHeight = 0.30
	DefaultWrapPadding  = 0.20

	DefaultPageWidth     = 10.0
	DefaultPageHeight    = 7.5
	DefaultMarginLeft    = 0.4
	DefaultMarginRight   = 0.4
	DefaultMarginTop     = 0.5
	DefaultMarginBottom  = 0.4
	DefaultHeadingHeight = 0.4
)

// DefaultPage returns the standard 10x7.5in slide geometry.
func DefaultPage() PageGeometry {
	return PageGeometry{
		Width:         DefaultPageWidth,
		Height:        DefaultPageHeight,
		MarginLeft:    DefaultMarginLeft,
		MarginRight:   DefaultMarginRight,
		MarginTop:     DefaultMarginTop,
		MarginBottom:  DefaultMarginBottom,
		HeadingHeight: DefaultHeadingHeight,
	}
}

// DefaultGrid returns the standard four-column grid at 14pt Arial.
func DefaultGrid() GridConfig {
	return GridConfig{
		Columns:      DefaultColumns,
		FontSize:     DefaultFontSize,
		FontName:     DefaultFontName,
		CharWidth:    DefaultCharWidth,
		MinBoxWidth:  DefaultMinBoxWidth,
		MinBoxHeight: DefaultMinBoxHeight,
		WrapPadding:  DefaultWrapPadding,
	}
}
