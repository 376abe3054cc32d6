package terminal

import "fmt"

// ColorKind identifies how a Color is resolved.
type ColorKind uint8

const (
	// ColorDefault means the renderer's default foreground or background.
	ColorDefault ColorKind = iota
	// ColorIndexed is one of the 16 ANSI colors (SGR 30-37, 90-97).
	ColorIndexed
	// ColorPalette is an entry of the 256-color palette (SGR 38;5;n).
	ColorPalette
	// ColorRGB is a 24-bit color (SGR 38;2;r;g;b).
	ColorRGB
)

// Color represents a terminal color.
// The zero value is the default color.
type Color struct {
	Kind    ColorKind
	Index   uint8
	R, G, B uint8
}

// DefaultColor is the default foreground/background color.
var DefaultColor = Color{}

// Standard ANSI colors (indices 0-15).
var (
	ColorBlack         = IndexedColor(0)
	ColorRed           = IndexedColor(1)
	ColorGreen         = IndexedColor(2)
	ColorYellow        = IndexedColor(3)
	ColorBlue          = IndexedColor(4)
	ColorMagenta       = IndexedColor(5)
	ColorCyan          = IndexedColor(6)
	ColorWhite         = IndexedColor(7)
	ColorBrightBlack   = IndexedColor(8)
	ColorBrightRed     = IndexedColor(9)
	ColorBrightGreen   = IndexedColor(10)
	ColorBrightYellow  = IndexedColor(11)
	ColorBrightBlue    = IndexedColor(12)
	ColorBrightMagenta = IndexedColor(13)
	ColorBrightCyan    = IndexedColor(14)
	ColorBrightWhite   = IndexedColor(15)
)

// ansiPalette holds the xterm RGB values of the 16 ANSI colors.
var ansiPalette = [16][3]uint8{
	{0, 0, 0},
	{205, 0, 0},
	{0, 205, 0},
	{205, 205, 0},
	{0, 0, 238},
	{205, 0, 205},
	{0, 205, 205},
	{229, 229, 229},
	{127, 127, 127},
	{255, 0, 0},
	{0, 255, 0},
	{255, 255, 0},
	{92, 92, 255},
	{255, 0, 255},
	{0, 255, 255},
	{255, 255, 255},
}

// IndexedColor returns one of the 16 ANSI colors.
// Indices above 15 are returned as palette colors.
func IndexedColor(index uint8) Color {
	if index > 15 {
		return PaletteColor(index)
	}
	return Color{Kind: ColorIndexed, Index: index}
}

// PaletteColor returns an entry of the 256-color palette.
func PaletteColor(index uint8) Color {
	return Color{Kind: ColorPalette, Index: index}
}

// RGBColor returns a 24-bit color.
func RGBColor(r, g, b uint8) Color {
	return Color{Kind: ColorRGB, R: r, G: g, B: b}
}

// IsDefault reports whether c is the default color.
func (c Color) IsDefault() bool {
	return c.Kind == ColorDefault
}

// RGB resolves c to a 24-bit value using the xterm palette.
// ok is false for the default color, whose value is up to the renderer.
func (c Color) RGB() (r, g, b uint8, ok bool) {
	switch c.Kind {
	case ColorIndexed, ColorPalette:
		r, g, b = paletteRGB(c.Index)
		return r, g, b, true
	case ColorRGB:
		return c.R, c.G, c.B, true
	default:
		return 0, 0, 0, false
	}
}

// String returns a compact description of the color.
func (c Color) String() string {
	switch c.Kind {
	case ColorIndexed:
		return fmt.Sprintf("indexed(%d)", c.Index)
	case ColorPalette:
		return fmt.Sprintf("palette(%d)", c.Index)
	case ColorRGB:
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	default:
		return "default"
	}
}

// paletteRGB resolves a 256-color index.
func paletteRGB(index uint8) (r, g, b uint8) {
	if index < 16 {
		c := ansiPalette[index]
		return c[0], c[1], c[2]
	}

	// 216-color cube (indices 16-231)
	if index < 232 {
		i := int(index) - 16
		return cubeLevel(i / 36), cubeLevel((i / 6) % 6), cubeLevel(i % 6)
	}

	// Grayscale (indices 232-255)
	gray := uint8((int(index)-232)*10 + 8)
	return gray, gray, gray
}

func cubeLevel(n int) uint8 {
	if n == 0 {
		return 0
	}
	return uint8(55 + n*40)
}

// CellAttributes represents text attributes for a cell.
type CellAttributes uint16

const (
	AttrNone      CellAttributes = 0
	AttrBold      CellAttributes = 1 << 0
	AttrDim       CellAttributes = 1 << 1
	AttrItalic    CellAttributes = 1 << 2
	AttrUnderline CellAttributes = 1 << 3
	AttrBlink     CellAttributes = 1 << 4
	AttrReverse   CellAttributes = 1 << 5
	AttrHidden    CellAttributes = 1 << 6
	AttrStrike    CellAttributes = 1 << 7
)

// Has returns true if the attribute is set.
func (a CellAttributes) Has(attr CellAttributes) bool {
	return a&attr != 0
}

// Cell represents a single character cell in the terminal.
type Cell struct {
	Char rune
	// Width is 1 for normal cells, 2 for the leading half of a wide
	// character and 0 for the trailing half.
	Width int
	Fg    Color
	Bg    Color
	Attrs CellAttributes
}

// EmptyCell returns a blank, unstyled cell.
func EmptyCell() Cell {
	return Cell{Char: ' ', Width: 1}
}

// Bold reports whether the cell is bold.
func (c Cell) Bold() bool { return c.Attrs.Has(AttrBold) }

// Underline reports whether the cell is underlined.
func (c Cell) Underline() bool { return c.Attrs.Has(AttrUnderline) }

// Reverse reports whether the cell has reverse video.
func (c Cell) Reverse() bool { return c.Attrs.Has(AttrReverse) }

// IsContinuation reports whether the cell is the trailing half of a wide character.
func (c Cell) IsContinuation() bool { return c.Width == 0 }

// Line represents a single line in the terminal.
type Line struct {
	Cells   []Cell
	Wrapped bool // True if this line wraps to the next
}

// NewLine creates a new line with the given width.
func NewLine(width int) *Line {
	cells := make([]Cell, width)
	for i := range cells {
		cells[i] = EmptyCell()
	}
	return &Line{Cells: cells}
}

// Clear clears the line with empty cells.
func (l *Line) Clear() {
	for i := range l.Cells {
		l.Cells[i] = EmptyCell()
	}
	l.Wrapped = false
}

// ClearRange clears cells in the range [start, end).
func (l *Line) ClearRange(start, end int) {
	if start < 0 {
		start = 0
	}
	if end > len(l.Cells) {
		end = len(l.Cells)
	}
	for i := start; i < end; i++ {
		l.Cells[i] = EmptyCell()
	}
}

// String returns the line text with trailing blanks removed.
func (l *Line) String() string {
	runes := make([]rune, 0, len(l.Cells))
	end := 0
	for _, c := range l.Cells {
		if c.IsContinuation() {
			continue
		}
		r := c.Char
		if r == 0 {
			r = ' '
		}
		runes = append(runes, r)
		if r != ' ' {
			end = len(runes)
		}
	}
	return string(runes[:end])
}

func (l *Line) clone() Line {
	cells := make([]Cell, len(l.Cells))
	copy(cells, l.Cells)
	return Line{Cells: cells, Wrapped: l.Wrapped}
}

// resized returns l adjusted to width cells, padding with blanks or
// truncating. A wide character cut in half is blanked.
func (l *Line) resized(width int) *Line {
	if len(l.Cells) == width {
		return l
	}
	out := NewLine(width)
	copy(out.Cells, l.Cells)
	if width > 0 && width < len(l.Cells) && out.Cells[width-1].Width == 2 {
		out.Cells[width-1] = EmptyCell()
	}
	out.Wrapped = l.Wrapped && width >= len(l.Cells)
	return out
}
