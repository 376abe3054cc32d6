package terminal

import "github.com/gdamore/tcell/v2"

// TCell converts c to a tcell color.
func (c Color) TCell() tcell.Color {
	switch c.Kind {
	case ColorIndexed, ColorPalette:
		return tcell.PaletteColor(int(c.Index))
	case ColorRGB:
		return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
	default:
		return tcell.ColorDefault
	}
}

// Style converts the cell's colors and attributes to a tcell style.
// Hidden cells are drawn with the foreground set to the background.
func (c Cell) Style() tcell.Style {
	style := tcell.StyleDefault.
		Foreground(c.Fg.TCell()).
		Background(c.Bg.TCell())

	if c.Attrs.Has(AttrHidden) {
		style = style.Foreground(c.Bg.TCell())
	}
	if c.Attrs.Has(AttrBold) {
		style = style.Bold(true)
	}
	if c.Attrs.Has(AttrDim) {
		style = style.Dim(true)
	}
	if c.Attrs.Has(AttrItalic) {
		style = style.Italic(true)
	}
	if c.Attrs.Has(AttrUnderline) {
		style = style.Underline(true)
	}
	if c.Attrs.Has(AttrBlink) {
		style = style.Blink(true)
	}
	if c.Attrs.Has(AttrReverse) {
		style = style.Reverse(true)
	}
	if c.Attrs.Has(AttrStrike) {
		style = style.StrikeThrough(true)
	}

	return style
}
