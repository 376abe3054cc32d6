package terminal

import (
	"encoding/base64"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/ansi/parser"
	"github.com/mattn/go-runewidth"
)

// maxSequenceData bounds the payload buffered for a single OSC or DCS
// sequence. Longer payloads are truncated by the parser.
const maxSequenceData = 1 << 20

// CursorStyle represents the cursor appearance.
type CursorStyle int

const (
	CursorBlock CursorStyle = iota
	CursorUnderline
	CursorBar
)

// MouseMode is the mouse tracking mode requested by the application.
type MouseMode int

const (
	MouseNone        MouseMode = iota
	MouseX10                   // ?9 and ?1000
	MouseButtonEvent           // ?1002
	MouseAnyEvent              // ?1003
)

// String returns the mode name.
func (m MouseMode) String() string {
	switch m {
	case MouseX10:
		return "x10"
	case MouseButtonEvent:
		return "button-event"
	case MouseAnyEvent:
		return "any-event"
	default:
		return "none"
	}
}

// MouseEncoding is the wire encoding for mouse reports.
type MouseEncoding int

const (
	MouseEncodingDefault MouseEncoding = iota
	MouseEncodingSGR                   // ?1006
)

// String returns the encoding name.
func (e MouseEncoding) String() string {
	if e == MouseEncodingSGR {
		return "sgr"
	}
	return "default"
}

// Region is an inclusive range of grid rows.
type Region struct {
	Top, Bottom int
}

// ClipboardRequest is an OSC 52 clipboard write issued by the application.
type ClipboardRequest struct {
	// Selection is the raw selection parameter ("c", "p", "s", ...).
	Selection string
	// Data is the base64 payload as sent.
	Data string
}

// Decoded returns the clipboard contents.
func (r ClipboardRequest) Decoded() ([]byte, error) {
	return base64.StdEncoding.DecodeString(r.Data)
}

type cursorPos struct {
	row, col int
}

// primaryState holds the main buffer while the alternate screen is active.
type primaryState struct {
	lines       []*Line
	scrollback  *Scrollback
	savedCursor *cursorPos
}

// Screen is the terminal screen model: a cell grid with scrollback, cursor,
// pen attributes, scroll region, alternate screen and mode state. It is
// driven by Process, which interprets a VT/xterm byte stream.
//
// Screen is not safe for concurrent use. Exactly one goroutine may call
// Process and Resize; readers on other goroutines must be serialized by the
// owner.
type Screen struct {
	rows int
	cols int

	lines      []*Line
	scrollback *Scrollback
	maxLines   int

	// primary is non-nil exactly while the alternate screen is active.
	primary *primaryState

	// Cursor position (0-indexed). cursorCol may equal cols after a print
	// in the last column; the next print wraps.
	cursorRow   int
	cursorCol   int
	savedCursor *cursorPos

	// Current cell attributes for new characters
	fg    Color
	bg    Color
	attrs CellAttributes

	// region is nil when the whole screen scrolls.
	region *Region

	cursorVisible  bool
	cursorStyle    CursorStyle
	autoWrap       bool
	appCursorKeys  bool
	bracketedPaste bool
	mouseMode      MouseMode
	mouseEncoding  MouseEncoding

	title     string
	iconName  string
	cwd       string
	clipboard *ClipboardRequest
	prompt    PromptState
	bells     int
	replies   []byte

	parser *ansi.Parser
}

// Option configures a Screen.
type Option func(*Screen)

// WithScrollback sets the maximum number of scrollback lines.
func WithScrollback(lines int) Option {
	return func(s *Screen) {
		if lines > 0 {
			s.maxLines = lines
		}
	}
}

// NewScreen creates a screen with the given dimensions.
// Dimensions below 1 are raised to 1.
func NewScreen(rows, cols int, opts ...Option) *Screen {
	rows = max(rows, 1)
	cols = max(cols, 1)

	s := &Screen{
		rows:          rows,
		cols:          cols,
		maxLines:      DefaultScrollback,
		cursorVisible: true,
		cursorStyle:   CursorBlock,
		autoWrap:      true,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.lines = newLines(rows, cols)
	s.scrollback = NewScrollback(s.maxLines)

	s.parser = ansi.NewParser()
	s.parser.SetParamsSize(parser.MaxParamsSize)
	s.parser.SetDataSize(maxSequenceData)
	s.parser.SetHandler(ansi.Handler{
		Print:     s.print,
		Execute:   s.execute,
		HandleCsi: s.handleCSI,
		HandleEsc: s.handleESC,
		HandleOsc: s.handleOSC,
		HandleDcs: func(ansi.Cmd, ansi.Params, []byte) {},
		HandleApc: func([]byte) {},
		HandlePm:  func([]byte) {},
		HandleSos: func([]byte) {},
	})

	return s
}

func newLines(rows, cols int) []*Line {
	lines := make([]*Line, rows)
	for i := range lines {
		lines[i] = NewLine(cols)
	}
	return lines
}

// Process interprets data as terminal output. Sequences split across calls
// are resumed on the next call. Malformed input is ignored.
func (s *Screen) Process(data []byte) {
	for _, b := range data {
		s.parser.Advance(b)
	}
}

// ProcessString is Process for string input.
func (s *Screen) ProcessString(str string) {
	s.Process([]byte(str))
}

// Size returns the screen dimensions.
func (s *Screen) Size() (rows, cols int) {
	return s.rows, s.cols
}

// CursorPosition returns the cursor row and column.
func (s *Screen) CursorPosition() (row, col int) {
	return s.cursorRow, s.cursorCol
}

// CursorVisible returns whether the cursor is visible (DECTCEM).
func (s *Screen) CursorVisible() bool {
	return s.cursorVisible
}

// CursorStyle returns the cursor shape requested with DECSCUSR.
func (s *Screen) CursorStyle() CursorStyle {
	return s.cursorStyle
}

// MouseMode returns the active mouse tracking mode.
func (s *Screen) MouseMode() MouseMode {
	return s.mouseMode
}

// MouseEncoding returns the active mouse report encoding.
func (s *Screen) MouseEncoding() MouseEncoding {
	return s.mouseEncoding
}

// ApplicationCursorKeys reports whether DECCKM is set.
func (s *Screen) ApplicationCursorKeys() bool {
	return s.appCursorKeys
}

// BracketedPaste reports whether bracketed paste mode is set.
func (s *Screen) BracketedPaste() bool {
	return s.bracketedPaste
}

// AutoWrap reports whether DECAWM is set.
func (s *Screen) AutoWrap() bool {
	return s.autoWrap
}

// IsAlternateScreen reports whether the alternate screen is active.
func (s *Screen) IsAlternateScreen() bool {
	return s.primary != nil
}

// ScrollRegion returns the scroll region set with DECSTBM.
// ok is false when the whole screen scrolls.
func (s *Screen) ScrollRegion() (top, bottom int, ok bool) {
	if s.region == nil {
		return 0, s.rows - 1, false
	}
	return s.region.Top, s.region.Bottom, true
}

// Title returns the window title set with OSC 0 or 2.
func (s *Screen) Title() string {
	return s.title
}

// IconName returns the icon name set with OSC 0 or 1.
func (s *Screen) IconName() string {
	return s.iconName
}

// ShellCwd returns the working directory reported by the shell (OSC 7).
func (s *Screen) ShellCwd() string {
	return s.cwd
}

// ClipboardRequest returns the pending OSC 52 clipboard write, if any.
func (s *Screen) ClipboardRequest() (ClipboardRequest, bool) {
	if s.clipboard == nil {
		return ClipboardRequest{}, false
	}
	return *s.clipboard, true
}

// ClearClipboardRequest marks the pending clipboard write as consumed.
func (s *Screen) ClearClipboardRequest() {
	s.clipboard = nil
}

// Prompt returns the shell integration state reported with OSC 133.
func (s *Screen) Prompt() PromptState {
	return s.prompt
}

// Bells returns the number of BEL characters received.
func (s *Screen) Bells() int {
	return s.bells
}

// TakeReplies returns and clears the bytes the terminal must send back to
// the application (device status and attribute reports).
func (s *Screen) TakeReplies() []byte {
	out := s.replies
	s.replies = nil
	return out
}

// Cell returns the cell at the given position.
// Returns an empty cell if out of bounds.
func (s *Screen) Cell(row, col int) Cell {
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		return EmptyCell()
	}
	return s.lines[row].Cells[col]
}

// Lines returns a copy of the visible grid.
func (s *Screen) Lines() []Line {
	out := make([]Line, len(s.lines))
	for i, l := range s.lines {
		out[i] = l.clone()
	}
	return out
}

// AllLines returns a copy of the scrollback followed by the visible grid,
// oldest first.
func (s *Screen) AllLines() []Line {
	out := make([]Line, 0, s.scrollback.Len()+len(s.lines))
	for _, l := range s.scrollback.lines {
		out = append(out, l.clone())
	}
	for _, l := range s.lines {
		out = append(out, l.clone())
	}
	return out
}

// ScrollbackLen returns the number of lines in scrollback.
func (s *Screen) ScrollbackLen() int {
	return s.scrollback.Len()
}

// ScrollbackLine returns a line from scrollback (0 = oldest).
func (s *Screen) ScrollbackLine(index int) (Line, bool) {
	return s.scrollback.Line(index)
}

// ScrollbackText returns the scrollback as text.
func (s *Screen) ScrollbackText() string {
	return s.scrollback.Text()
}

// Text returns the visible grid as text with trailing blanks and trailing
// empty lines removed.
func (s *Screen) Text() string {
	rows := make([]string, len(s.lines))
	for i, l := range s.lines {
		rows[i] = l.String()
	}
	return strings.TrimRight(strings.Join(rows, "\n"), "\n")
}

// Resize changes the screen dimensions. Shrinking the row count pushes the
// top lines into scrollback; growing adds blank lines and never pulls lines
// back out of scrollback.
func (s *Screen) Resize(rows, cols int) {
	rows = max(rows, 1)
	cols = max(cols, 1)
	if rows == s.rows && cols == s.cols {
		return
	}

	var shift int
	s.lines, shift = resizeLines(s.lines, s.scrollback, rows, cols)
	s.cursorRow = max(s.cursorRow-shift, 0)
	if s.savedCursor != nil {
		s.savedCursor.row = max(s.savedCursor.row-shift, 0)
	}

	if p := s.primary; p != nil {
		p.lines, shift = resizeLines(p.lines, p.scrollback, rows, cols)
		if p.savedCursor != nil {
			p.savedCursor.row = max(p.savedCursor.row-shift, 0)
			p.savedCursor = clampCursor(p.savedCursor, rows, cols)
		}
	}

	s.rows = rows
	s.cols = cols
	s.region = nil

	s.cursorRow = min(s.cursorRow, rows-1)
	s.cursorCol = min(s.cursorCol, cols-1)
	s.savedCursor = clampCursor(s.savedCursor, rows, cols)
}

func resizeLines(lines []*Line, sb *Scrollback, rows, cols int) ([]*Line, int) {
	shift := 0
	if excess := len(lines) - rows; excess > 0 {
		for _, l := range lines[:excess] {
			sb.push(l)
		}
		lines = lines[excess:]
		shift = excess
	}

	out := make([]*Line, rows)
	for y := range out {
		if y < len(lines) {
			out[y] = lines[y].resized(cols)
		} else {
			out[y] = NewLine(cols)
		}
	}
	return out, shift
}

func clampCursor(c *cursorPos, rows, cols int) *cursorPos {
	if c == nil {
		return nil
	}
	return &cursorPos{row: min(c.row, rows-1), col: min(c.col, cols-1)}
}

// Reset returns the screen to its initial state (RIS). Scrollback and the
// OSC-reported fields are kept.
func (s *Screen) Reset() {
	s.leaveAlternate(false)
	for _, l := range s.lines {
		l.Clear()
	}

	s.cursorRow, s.cursorCol = 0, 0
	s.savedCursor = nil
	s.resetPen()
	s.region = nil
	s.cursorVisible = true
	s.cursorStyle = CursorBlock
	s.autoWrap = true
	s.appCursorKeys = false
	s.bracketedPaste = false
	s.mouseMode = MouseNone
	s.mouseEncoding = MouseEncodingDefault
}

// print writes r at the cursor with the current pen, wrapping first when
// the cursor sits past the last column.
func (s *Screen) print(r rune) {
	w := runewidth.RuneWidth(r)
	if w == 0 {
		return
	}
	if w > s.cols {
		w = 1
	}

	if s.cursorCol+w > s.cols {
		if s.autoWrap {
			s.lines[s.cursorRow].Wrapped = true
			s.cursorCol = 0
			s.lineFeed()
		} else {
			s.cursorCol = s.cols - w
		}
	}

	line := s.lines[s.cursorRow]
	s.clearWide(line, s.cursorCol)
	if w == 2 {
		s.clearWide(line, s.cursorCol+1)
	}

	line.Cells[s.cursorCol] = Cell{Char: r, Width: w, Fg: s.fg, Bg: s.bg, Attrs: s.attrs}
	if w == 2 {
		line.Cells[s.cursorCol+1] = Cell{Width: 0, Fg: s.fg, Bg: s.bg, Attrs: s.attrs}
	}
	s.cursorCol += w
}

// clearWide blanks the other half of a wide character at col before the
// cell is overwritten.
func (s *Screen) clearWide(line *Line, col int) {
	switch line.Cells[col].Width {
	case 0:
		if col > 0 {
			line.Cells[col-1] = EmptyCell()
		}
	case 2:
		if col+1 < len(line.Cells) {
			line.Cells[col+1] = EmptyCell()
		}
	}
}

// execute handles a C0 control character.
func (s *Screen) execute(b byte) {
	switch b {
	case ansi.BEL:
		s.bells++
	case ansi.BS:
		if s.cursorCol > 0 {
			s.cursorCol = min(s.cursorCol, s.cols) - 1
		}
	case ansi.HT:
		s.tab()
	case ansi.LF, ansi.VT, ansi.FF:
		s.lineFeed()
	case ansi.CR:
		s.cursorCol = 0
	}
}

func (s *Screen) tab() {
	// Move to next tab stop (every 8 columns)
	next := (s.cursorCol/8 + 1) * 8
	s.cursorCol = min(next, s.cols-1)
}

func (s *Screen) regionBounds() (top, bottom int) {
	if s.region != nil {
		return s.region.Top, s.region.Bottom
	}
	return 0, s.rows - 1
}

// lineFeed moves the cursor down one line, scrolling the region when the
// cursor is on its bottom line.
func (s *Screen) lineFeed() {
	_, bottom := s.regionBounds()
	switch {
	case s.cursorRow == bottom:
		s.ScrollUp(1)
	case s.cursorRow < s.rows-1:
		s.cursorRow++
	}
}

// reverseIndex moves the cursor up one line, scrolling the region down when
// the cursor is on its top line.
func (s *Screen) reverseIndex() {
	top, _ := s.regionBounds()
	switch {
	case s.cursorRow == top:
		s.ScrollDown(1)
	case s.cursorRow > 0:
		s.cursorRow--
	}
}

// ScrollUp scrolls the scroll region up by n lines. Lines leaving the top
// enter scrollback only when the region starts at row 0.
func (s *Screen) ScrollUp(n int) {
	top, bottom := s.regionBounds()
	s.scrollLinesUp(top, bottom, n, top == 0)
}

// ScrollDown scrolls the scroll region down by n lines.
func (s *Screen) ScrollDown(n int) {
	top, bottom := s.regionBounds()
	s.scrollLinesDown(top, bottom, n)
}

func (s *Screen) scrollLinesUp(top, bottom, n int, keep bool) {
	if top < 0 || bottom >= len(s.lines) || top > bottom || n <= 0 {
		return
	}

	// Clamp n to scroll region size
	n = min(n, bottom-top+1)

	if keep {
		for _, l := range s.lines[top : top+n] {
			s.scrollback.push(l)
		}
	}

	copy(s.lines[top:bottom+1-n], s.lines[top+n:bottom+1])
	for y := bottom + 1 - n; y <= bottom; y++ {
		s.lines[y] = NewLine(s.cols)
	}
}

func (s *Screen) scrollLinesDown(top, bottom, n int) {
	if top < 0 || bottom >= len(s.lines) || top > bottom || n <= 0 {
		return
	}

	n = min(n, bottom-top+1)

	copy(s.lines[top+n:bottom+1], s.lines[top:bottom+1-n])
	for y := top; y < top+n; y++ {
		s.lines[y] = NewLine(s.cols)
	}
}

func (s *Screen) cursorUp(n int) {
	top, _ := s.regionBounds()
	if s.cursorRow < top {
		top = 0
	}
	s.cursorRow = max(s.cursorRow-n, top)
}

func (s *Screen) cursorDown(n int) {
	_, bottom := s.regionBounds()
	if s.cursorRow > bottom {
		bottom = s.rows - 1
	}
	s.cursorRow = min(s.cursorRow+n, bottom)
}

func (s *Screen) cursorForward(n int) {
	s.cursorCol = min(s.cursorCol+n, s.cols-1)
}

func (s *Screen) cursorBackward(n int) {
	s.cursorCol = max(min(s.cursorCol, s.cols-1)-n, 0)
}

// moveCursor moves to an absolute 0-indexed position, clamped to the grid.
func (s *Screen) moveCursor(row, col int) {
	s.cursorRow = max(min(row, s.rows-1), 0)
	s.cursorCol = max(min(col, s.cols-1), 0)
}

func (s *Screen) saveCursor() {
	s.savedCursor = &cursorPos{row: s.cursorRow, col: s.cursorCol}
}

func (s *Screen) restoreCursor() {
	if s.savedCursor == nil {
		s.cursorRow, s.cursorCol = 0, 0
		return
	}
	// The column may equal cols: a pending wrap is restored as saved.
	s.cursorRow = max(min(s.savedCursor.row, s.rows-1), 0)
	s.cursorCol = max(min(s.savedCursor.col, s.cols), 0)
}

// eraseDisplay implements ED.
func (s *Screen) eraseDisplay(mode int) {
	col := min(s.cursorCol, s.cols-1)
	switch mode {
	case 0:
		s.lines[s.cursorRow].ClearRange(col, s.cols)
		for y := s.cursorRow + 1; y < s.rows; y++ {
			s.lines[y].Clear()
		}
	case 1:
		for y := 0; y < s.cursorRow; y++ {
			s.lines[y].Clear()
		}
		s.lines[s.cursorRow].ClearRange(0, col+1)
	case 2:
		for _, l := range s.lines {
			l.Clear()
		}
	case 3:
		for _, l := range s.lines {
			l.Clear()
		}
		s.scrollback.Clear()
	}
}

// eraseLine implements EL.
func (s *Screen) eraseLine(mode int) {
	line := s.lines[s.cursorRow]
	col := min(s.cursorCol, s.cols-1)
	switch mode {
	case 0:
		line.ClearRange(col, s.cols)
	case 1:
		line.ClearRange(0, col+1)
	case 2:
		line.Clear()
	}
}

// insertLines inserts n blank lines at the cursor within the scroll region.
func (s *Screen) insertLines(n int) {
	top, bottom := s.regionBounds()
	if s.cursorRow < top || s.cursorRow > bottom {
		return
	}
	s.scrollLinesDown(s.cursorRow, bottom, n)
	s.cursorCol = 0
}

// deleteLines deletes n lines at the cursor within the scroll region.
func (s *Screen) deleteLines(n int) {
	top, bottom := s.regionBounds()
	if s.cursorRow < top || s.cursorRow > bottom {
		return
	}
	s.scrollLinesUp(s.cursorRow, bottom, n, false)
	s.cursorCol = 0
}

// insertChars inserts n blank characters at cursor.
func (s *Screen) insertChars(n int) {
	if s.cursorCol >= s.cols {
		return
	}
	line := s.lines[s.cursorRow]
	n = min(n, s.cols-s.cursorCol)

	copy(line.Cells[s.cursorCol+n:], line.Cells[s.cursorCol:s.cols-n])
	line.ClearRange(s.cursorCol, s.cursorCol+n)
}

// deleteChars deletes n characters at cursor, shifting left.
func (s *Screen) deleteChars(n int) {
	if s.cursorCol >= s.cols {
		return
	}
	line := s.lines[s.cursorRow]
	n = min(n, s.cols-s.cursorCol)

	copy(line.Cells[s.cursorCol:], line.Cells[s.cursorCol+n:])
	line.ClearRange(s.cols-n, s.cols)
}

// eraseChars erases n characters at cursor (replace with blanks).
func (s *Screen) eraseChars(n int) {
	if s.cursorCol >= s.cols {
		return
	}
	s.lines[s.cursorRow].ClearRange(s.cursorCol, s.cursorCol+n)
}

// setScrollRegion implements DECSTBM with 0-indexed bounds.
func (s *Screen) setScrollRegion(top, bottom int) {
	top = max(top, 0)
	bottom = min(bottom, s.rows-1)
	if top >= bottom {
		return
	}

	if top == 0 && bottom == s.rows-1 {
		s.region = nil
	} else {
		s.region = &Region{Top: top, Bottom: bottom}
	}
	s.cursorRow, s.cursorCol = 0, 0
}

func (s *Screen) resetPen() {
	s.fg = DefaultColor
	s.bg = DefaultColor
	s.attrs = AttrNone
}

// enterAlternate switches to a blank alternate buffer, snapshotting the
// primary one. It is a no-op when already on the alternate screen.
func (s *Screen) enterAlternate(saveCursor bool) {
	if s.primary != nil {
		return
	}
	if saveCursor {
		s.saveCursor()
	}

	s.primary = &primaryState{
		lines:       s.lines,
		scrollback:  s.scrollback,
		savedCursor: s.savedCursor,
	}
	s.lines = newLines(s.rows, s.cols)
	s.scrollback = NewScrollback(s.maxLines)
	s.savedCursor = nil
	s.cursorRow, s.cursorCol = 0, 0
	s.region = nil
}

// leaveAlternate restores the primary buffer. It is a no-op when already on
// the primary screen.
func (s *Screen) leaveAlternate(restoreCursor bool) {
	p := s.primary
	if p == nil {
		return
	}

	s.lines = p.lines
	s.scrollback = p.scrollback
	s.savedCursor = p.savedCursor
	s.primary = nil
	s.region = nil

	if restoreCursor {
		s.restoreCursor()
		return
	}
	s.cursorRow = min(s.cursorRow, s.rows-1)
	s.cursorCol = min(s.cursorCol, s.cols-1)
}
