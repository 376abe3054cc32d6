package terminal

import "strings"

// DefaultScrollback is the default number of scrollback lines.
const DefaultScrollback = 10000

// Scrollback stores lines that scrolled off the top of the screen.
type Scrollback struct {
	lines    []*Line
	maxLines int
}

// NewScrollback creates a scrollback buffer holding at most maxLines lines.
func NewScrollback(maxLines int) *Scrollback {
	if maxLines <= 0 {
		maxLines = DefaultScrollback
	}
	return &Scrollback{
		lines:    make([]*Line, 0, min(maxLines, 256)),
		maxLines: maxLines,
	}
}

// push takes ownership of line. The oldest line is dropped once the
// buffer is full.
func (h *Scrollback) push(line *Line) {
	h.lines = append(h.lines, line)

	// Trim if exceeds max
	if len(h.lines) > h.maxLines {
		drop := len(h.lines) - h.maxLines
		clear(h.lines[:drop])
		h.lines = h.lines[drop:]
	}
}

// Line returns a copy of a line from scrollback (0 = oldest).
func (h *Scrollback) Line(index int) (Line, bool) {
	if index < 0 || index >= len(h.lines) {
		return Line{}, false
	}
	return h.lines[index].clone(), true
}

// Len returns the number of lines in scrollback.
func (h *Scrollback) Len() int {
	return len(h.lines)
}

// Max returns the capacity of the buffer.
func (h *Scrollback) Max() int {
	return h.maxLines
}

// Clear clears the scrollback.
func (h *Scrollback) Clear() {
	clear(h.lines)
	h.lines = h.lines[:0]
}

// Text returns all scrollback as text, joining wrapped lines.
func (h *Scrollback) Text() string {
	var b strings.Builder
	for i, line := range h.lines {
		b.WriteString(line.String())
		if i < len(h.lines)-1 && !line.Wrapped {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
