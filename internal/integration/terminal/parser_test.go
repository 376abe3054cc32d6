package terminal

import (
	"testing"
)

func TestParserPlainText(t *testing.T) {
	s := NewScreen(24, 80)
	s.ProcessString("Hello")

	if got := s.Lines()[0].String(); got != "Hello" {
		t.Errorf("expected 'Hello', got '%s'", got)
	}
	row, col := s.CursorPosition()
	if row != 0 || col != 5 {
		t.Errorf("expected cursor at (0,5), got (%d,%d)", row, col)
	}
}

func TestParserClearAndHome(t *testing.T) {
	s := NewScreen(24, 80)
	s.ProcessString("garbage\r\nmore garbage")
	s.ProcessString("\x1b[2J\x1b[HHello")

	if got := s.Lines()[0].String(); got != "Hello" {
		t.Errorf("expected row 0 'Hello', got '%s'", got)
	}
	if got := s.Lines()[1].String(); got != "" {
		t.Errorf("expected row 1 empty, got '%s'", got)
	}
	row, col := s.CursorPosition()
	if row != 0 || col != 5 {
		t.Errorf("expected cursor at (0,5), got (%d,%d)", row, col)
	}
}

func TestParserNewline(t *testing.T) {
	s := NewScreen(24, 80)

	// LF only moves the cursor down, not to column 0
	s.ProcessString("A\nB")

	if c := s.Cell(0, 0); c.Char != 'A' {
		t.Errorf("expected 'A' at (0,0), got %q", c.Char)
	}
	if c := s.Cell(1, 1); c.Char != 'B' {
		t.Errorf("expected 'B' at (1,1), got %q", c.Char)
	}
}

func TestParserCarriageReturn(t *testing.T) {
	s := NewScreen(24, 80)
	s.ProcessString("ABC\rX")

	if got := s.Lines()[0].String(); got != "XBC" {
		t.Errorf("expected 'XBC', got '%s'", got)
	}
}

func TestParserTab(t *testing.T) {
	s := NewScreen(24, 80)
	s.ProcessString("A\tB")

	if c := s.Cell(0, 8); c.Char != 'B' {
		t.Errorf("expected 'B' at column 8, got %q", c.Char)
	}

	s = NewScreen(2, 10)
	s.ProcessString("\t\t\t")
	if _, col := s.CursorPosition(); col != 9 {
		t.Errorf("expected tab to clamp at column 9, got %d", col)
	}
}

func TestParserBackspace(t *testing.T) {
	s := NewScreen(24, 80)
	s.ProcessString("AB\bX")

	if got := s.Lines()[0].String(); got != "AX" {
		t.Errorf("expected 'AX', got '%s'", got)
	}

	s.ProcessString("\r\b\b")
	if _, col := s.CursorPosition(); col != 0 {
		t.Errorf("expected backspace to stop at column 0, got %d", col)
	}
}

func TestParserBell(t *testing.T) {
	s := NewScreen(24, 80)
	s.ProcessString("a\x07b\x07")

	if s.Bells() != 2 {
		t.Errorf("expected 2 bells, got %d", s.Bells())
	}
	if got := s.Lines()[0].String(); got != "ab" {
		t.Errorf("expected 'ab', got '%s'", got)
	}
}

func TestParserCursorMovement(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantRow int
		wantCol int
	}{
		{"position", "\x1b[5;10H", 4, 9},
		{"position default", "\x1b[5;10H\x1b[H", 0, 0},
		{"hvp", "\x1b[3;4f", 2, 3},
		{"position clamped", "\x1b[100;200H", 23, 79},
		{"up", "\x1b[5;10H\x1b[2A", 2, 9},
		{"up default", "\x1b[5;10H\x1b[A", 3, 9},
		{"up zero", "\x1b[5;10H\x1b[0A", 3, 9},
		{"up clamped", "\x1b[5;10H\x1b[50A", 0, 9},
		{"down", "\x1b[3B", 3, 0},
		{"down clamped", "\x1b[99B", 23, 0},
		{"forward", "\x1b[5C", 0, 5},
		{"forward clamped", "\x1b[500C", 0, 79},
		{"backward", "\x1b[1;10H\x1b[3D", 0, 6},
		{"backward clamped", "\x1b[1;10H\x1b[30D", 0, 0},
		{"next line", "\x1b[5;10H\x1b[2E", 6, 0},
		{"previous line", "\x1b[5;10H\x1b[2F", 2, 0},
		{"column absolute", "\x1b[5;10H\x1b[20G", 4, 19},
		{"row absolute", "\x1b[5;10H\x1b[8d", 7, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScreen(24, 80)
			s.ProcessString(tt.input)

			row, col := s.CursorPosition()
			if row != tt.wantRow || col != tt.wantCol {
				t.Errorf("expected cursor at (%d,%d), got (%d,%d)", tt.wantRow, tt.wantCol, row, col)
			}
		})
	}
}

func TestParserCursorClampedToRegion(t *testing.T) {
	s := NewScreen(10, 20)
	s.ProcessString("\x1b[3;6r")
	s.ProcessString("\x1b[4;1H\x1b[10A")

	if row, _ := s.CursorPosition(); row != 2 {
		t.Errorf("expected cursor up to stop at region top 2, got %d", row)
	}

	s.ProcessString("\x1b[10B")
	if row, _ := s.CursorPosition(); row != 5 {
		t.Errorf("expected cursor down to stop at region bottom 5, got %d", row)
	}

	// Outside the region the grid bounds apply
	s.ProcessString("\x1b[8;1H\x1b[20B")
	if row, _ := s.CursorPosition(); row != 9 {
		t.Errorf("expected cursor down to stop at row 9, got %d", row)
	}
}

func TestParserEraseDisplay(t *testing.T) {
	fill := "AAAAA\r\nBBBBB\r\nCCCCC\x1b[2;3H"

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"below", "\x1b[J", []string{"AAAAA", "BB", ""}},
		{"below explicit", "\x1b[0J", []string{"AAAAA", "BB", ""}},
		{"above", "\x1b[1J", []string{"", "   BB", "CCCCC"}},
		{"all", "\x1b[2J", []string{"", "", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScreen(3, 5)
			s.ProcessString(fill + tt.input)

			lines := s.Lines()
			for i, want := range tt.want {
				if got := lines[i].String(); got != want {
					t.Errorf("row %d: expected '%s', got '%s'", i, want, got)
				}
			}
		})
	}
}

func TestParserEraseDisplayScrollback(t *testing.T) {
	s := NewScreen(2, 10)
	s.ProcessString("1\r\n2\r\n3\r\n4")

	if s.ScrollbackLen() != 2 {
		t.Fatalf("expected 2 scrollback lines, got %d", s.ScrollbackLen())
	}

	s.ProcessString("\x1b[2J")
	if s.ScrollbackLen() != 2 {
		t.Errorf("ED 2 should keep scrollback, got %d lines", s.ScrollbackLen())
	}

	s.ProcessString("\x1b[3J")
	if s.ScrollbackLen() != 0 {
		t.Errorf("ED 3 should clear scrollback, got %d lines", s.ScrollbackLen())
	}
	if s.Text() != "" {
		t.Errorf("expected empty screen, got %q", s.Text())
	}
}

func TestParserEraseLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"right", "\x1b[K", "ABCD"},
		{"right explicit", "\x1b[0K", "ABCD"},
		{"left", "\x1b[1K", "     FGHIJ"},
		{"all", "\x1b[2K", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScreen(3, 10)
			s.ProcessString("ABCDEFGHIJ\x1b[1;5H" + tt.input)

			if got := s.Lines()[0].String(); got != tt.want {
				t.Errorf("expected '%s', got '%s'", tt.want, got)
			}
		})
	}
}

func TestParserSGR(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantFg    Color
		wantBg    Color
		wantAttrs CellAttributes
	}{
		{"bold", "\x1b[1m", DefaultColor, DefaultColor, AttrBold},
		{"dim", "\x1b[2m", DefaultColor, DefaultColor, AttrDim},
		{"italic", "\x1b[3m", DefaultColor, DefaultColor, AttrItalic},
		{"underline", "\x1b[4m", DefaultColor, DefaultColor, AttrUnderline},
		{"blink", "\x1b[5m", DefaultColor, DefaultColor, AttrBlink},
		{"reverse", "\x1b[7m", DefaultColor, DefaultColor, AttrReverse},
		{"hidden", "\x1b[8m", DefaultColor, DefaultColor, AttrHidden},
		{"strike", "\x1b[9m", DefaultColor, DefaultColor, AttrStrike},
		{"multiple", "\x1b[1;4;7m", DefaultColor, DefaultColor, AttrBold | AttrUnderline | AttrReverse},
		{"normal intensity", "\x1b[1;2m\x1b[22m", DefaultColor, DefaultColor, AttrNone},
		{"not underline", "\x1b[4;3m\x1b[24m", DefaultColor, DefaultColor, AttrItalic},
		{"not reverse", "\x1b[7m\x1b[27m", DefaultColor, DefaultColor, AttrNone},
		{"not italic blink hidden strike", "\x1b[3;5;8;9m\x1b[23;25;28;29m", DefaultColor, DefaultColor, AttrNone},
		{"foreground", "\x1b[31m", ColorRed, DefaultColor, AttrNone},
		{"background", "\x1b[44m", DefaultColor, ColorBlue, AttrNone},
		{"bright foreground", "\x1b[92m", ColorBrightGreen, DefaultColor, AttrNone},
		{"bright background", "\x1b[104m", DefaultColor, ColorBrightBlue, AttrNone},
		{"default foreground", "\x1b[31m\x1b[39m", DefaultColor, DefaultColor, AttrNone},
		{"default background", "\x1b[41m\x1b[49m", DefaultColor, DefaultColor, AttrNone},
		{"256 foreground", "\x1b[38;5;196m", PaletteColor(196), DefaultColor, AttrNone},
		{"256 background", "\x1b[48;5;17m", DefaultColor, PaletteColor(17), AttrNone},
		{"rgb foreground", "\x1b[38;2;10;20;30m", RGBColor(10, 20, 30), DefaultColor, AttrNone},
		{"rgb background", "\x1b[48;2;1;2;3m", DefaultColor, RGBColor(1, 2, 3), AttrNone},
		{"rgb clamped", "\x1b[38;2;300;20;30m", RGBColor(255, 20, 30), DefaultColor, AttrNone},
		{"rgb then bold", "\x1b[38;2;10;20;30;1m", RGBColor(10, 20, 30), DefaultColor, AttrBold},
		{"colon 256", "\x1b[38:5:100m", PaletteColor(100), DefaultColor, AttrNone},
		{"colon rgb with colorspace", "\x1b[38:2::10:20:30m", RGBColor(10, 20, 30), DefaultColor, AttrNone},
		{"colon rgb", "\x1b[48:2:10:20:30m", DefaultColor, RGBColor(10, 20, 30), AttrNone},
		{"truncated 256", "\x1b[38;5m", DefaultColor, DefaultColor, AttrNone},
		{"truncated rgb", "\x1b[38;2;10m", DefaultColor, DefaultColor, AttrNone},
		{"reset", "\x1b[1;31;42m\x1b[0m", DefaultColor, DefaultColor, AttrNone},
		{"empty reset", "\x1b[1;31;42m\x1b[m", DefaultColor, DefaultColor, AttrNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScreen(5, 20)
			s.ProcessString(tt.input + "X")

			c := s.Cell(0, 0)
			if c.Char != 'X' {
				t.Fatalf("expected 'X' at (0,0), got %q", c.Char)
			}
			if c.Fg != tt.wantFg {
				t.Errorf("expected fg %v, got %v", tt.wantFg, c.Fg)
			}
			if c.Bg != tt.wantBg {
				t.Errorf("expected bg %v, got %v", tt.wantBg, c.Bg)
			}
			if c.Attrs != tt.wantAttrs {
				t.Errorf("expected attrs %b, got %b", tt.wantAttrs, c.Attrs)
			}
		})
	}
}

func TestParserSGRPenPersists(t *testing.T) {
	s := NewScreen(5, 20)
	s.ProcessString("\x1b[1;31mAB\x1b[0mC")

	for col, wantBold := range []bool{true, true, false} {
		c := s.Cell(0, col)
		if c.Bold() != wantBold {
			t.Errorf("col %d: expected bold=%v", col, wantBold)
		}
	}
	if s.Cell(0, 1).Fg != ColorRed {
		t.Errorf("expected red foreground on second cell, got %v", s.Cell(0, 1).Fg)
	}
}

func TestParserAutoWrap(t *testing.T) {
	s := NewScreen(3, 5)
	s.ProcessString("ABCDEFG")

	lines := s.Lines()
	if got := lines[0].String(); got != "ABCDE" {
		t.Errorf("expected row 0 'ABCDE', got '%s'", got)
	}
	if !lines[0].Wrapped {
		t.Error("expected row 0 to be marked wrapped")
	}
	if got := lines[1].String(); got != "FG" {
		t.Errorf("expected row 1 'FG', got '%s'", got)
	}
	row, col := s.CursorPosition()
	if row != 1 || col != 2 {
		t.Errorf("expected cursor at (1,2), got (%d,%d)", row, col)
	}
}

func TestParserAutoWrapPending(t *testing.T) {
	s := NewScreen(3, 5)
	s.ProcessString("ABCDE")

	// The cursor waits past the last column until the next print.
	row, col := s.CursorPosition()
	if row != 0 || col != 5 {
		t.Errorf("expected cursor at (0,5), got (%d,%d)", row, col)
	}

	s.ProcessString("\r\n")
	if row, _ := s.CursorPosition(); row != 1 {
		t.Errorf("expected CRLF to move to row 1, got %d", row)
	}
}

func TestParserAutoWrapDisabled(t *testing.T) {
	s := NewScreen(3, 5)
	s.ProcessString("\x1b[?7lABCDEFG")

	if s.AutoWrap() {
		t.Error("expected autowrap off")
	}
	if got := s.Lines()[0].String(); got != "ABCDG" {
		t.Errorf("expected 'ABCDG', got '%s'", got)
	}
	if got := s.Lines()[1].String(); got != "" {
		t.Errorf("expected row 1 empty, got '%s'", got)
	}
}

func TestParserWideCharacters(t *testing.T) {
	s := NewScreen(3, 10)
	s.ProcessString("中a")

	lead := s.Cell(0, 0)
	if lead.Char != '中' || lead.Width != 2 {
		t.Errorf("expected wide lead cell, got %q width %d", lead.Char, lead.Width)
	}
	if !s.Cell(0, 1).IsContinuation() {
		t.Error("expected continuation cell at column 1")
	}
	if c := s.Cell(0, 2); c.Char != 'a' {
		t.Errorf("expected 'a' at column 2, got %q", c.Char)
	}
	if got := s.Lines()[0].String(); got != "中a" {
		t.Errorf("expected '中a', got '%s'", got)
	}
}

func TestParserWideCharacterWrapsEarly(t *testing.T) {
	s := NewScreen(3, 3)
	s.ProcessString("AB中")

	if got := s.Lines()[0].String(); got != "AB" {
		t.Errorf("expected row 0 'AB', got '%s'", got)
	}
	if c := s.Cell(1, 0); c.Char != '中' {
		t.Errorf("expected wide char on row 1, got %q", c.Char)
	}
	row, col := s.CursorPosition()
	if row != 1 || col != 2 {
		t.Errorf("expected cursor at (1,2), got (%d,%d)", row, col)
	}
}

func TestParserWideCharacterOverwrite(t *testing.T) {
	s := NewScreen(3, 10)
	s.ProcessString("中\x1b[1;2Hx")

	if c := s.Cell(0, 0); c.Char != ' ' || c.Width != 1 {
		t.Errorf("expected orphaned lead to be blanked, got %q width %d", c.Char, c.Width)
	}
	if c := s.Cell(0, 1); c.Char != 'x' {
		t.Errorf("expected 'x' at column 1, got %q", c.Char)
	}
}

func TestParserZeroWidthDropped(t *testing.T) {
	s := NewScreen(3, 10)
	s.ProcessString("e\u0301x")

	if _, col := s.CursorPosition(); col != 2 {
		t.Errorf("expected combining mark to take no cell, cursor at %d", col)
	}
}

func TestParserLineFeedScrolls(t *testing.T) {
	s := NewScreen(3, 10)
	s.ProcessString("1\r\n2\r\n3\r\n4")

	if s.ScrollbackLen() != 1 {
		t.Fatalf("expected 1 scrollback line, got %d", s.ScrollbackLen())
	}
	if line, _ := s.ScrollbackLine(0); line.String() != "1" {
		t.Errorf("expected scrollback '1', got '%s'", line.String())
	}
	if got := s.Text(); got != "2\n3\n4" {
		t.Errorf("expected grid '2\\n3\\n4', got %q", got)
	}
}

func TestParserScrollRegion(t *testing.T) {
	s := NewScreen(5, 10)
	s.ProcessString("a\r\nb\r\nc\r\nd\r\ne")
	s.ProcessString("\x1b[2;4r")

	top, bottom, ok := s.ScrollRegion()
	if !ok || top != 1 || bottom != 3 {
		t.Fatalf("expected region (1,3), got (%d,%d,%v)", top, bottom, ok)
	}
	if row, col := s.CursorPosition(); row != 0 || col != 0 {
		t.Errorf("expected DECSTBM to home the cursor, got (%d,%d)", row, col)
	}

	s.ProcessString("\x1b[4;1H\n")

	want := []string{"a", "c", "d", "", "e"}
	for i, line := range s.Lines() {
		if got := line.String(); got != want[i] {
			t.Errorf("row %d: expected '%s', got '%s'", i, want[i], got)
		}
	}
	if s.ScrollbackLen() != 0 {
		t.Errorf("region below row 0 should not feed scrollback, got %d", s.ScrollbackLen())
	}
}

func TestParserScrollRegionInvalid(t *testing.T) {
	s := NewScreen(5, 10)
	s.ProcessString("\x1b[3;3H\x1b[3;3r")

	if _, _, ok := s.ScrollRegion(); ok {
		t.Error("expected top >= bottom to be ignored")
	}
	if row, col := s.CursorPosition(); row != 2 || col != 2 {
		t.Errorf("expected cursor unchanged at (2,2), got (%d,%d)", row, col)
	}

	s.ProcessString("\x1b[2;4r\x1b[r")
	if _, _, ok := s.ScrollRegion(); ok {
		t.Error("expected bare DECSTBM to reset the region")
	}
}

func TestParserScrollUpDown(t *testing.T) {
	s := NewScreen(3, 10)
	s.ProcessString("a\r\nb\r\nc")

	s.ProcessString("\x1b[S")
	if got := s.Text(); got != "b\nc" {
		t.Errorf("after SU expected 'b\\nc', got %q", got)
	}
	if s.ScrollbackLen() != 1 {
		t.Errorf("expected SU to feed scrollback, got %d", s.ScrollbackLen())
	}

	s.ProcessString("\x1b[2T")
	if got := s.Text(); got != "\n\nb" {
		t.Errorf("after SD expected '\\n\\nb', got %q", got)
	}
}

func TestParserInsertDeleteLines(t *testing.T) {
	s := NewScreen(4, 10)
	s.ProcessString("a\r\nb\r\nc\r\nd")

	s.ProcessString("\x1b[2;3H\x1b[L")
	want := []string{"a", "", "b", "c"}
	for i, line := range s.Lines() {
		if got := line.String(); got != want[i] {
			t.Errorf("IL row %d: expected '%s', got '%s'", i, want[i], got)
		}
	}
	if _, col := s.CursorPosition(); col != 0 {
		t.Errorf("expected IL to move to column 0, got %d", col)
	}

	s.ProcessString("\x1b[1;1H\x1b[2M")
	want = []string{"b", "c", "", ""}
	for i, line := range s.Lines() {
		if got := line.String(); got != want[i] {
			t.Errorf("DL row %d: expected '%s', got '%s'", i, want[i], got)
		}
	}
	if s.ScrollbackLen() != 0 {
		t.Errorf("DL should not feed scrollback, got %d", s.ScrollbackLen())
	}
}

func TestParserInsertDeleteChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"insert", "\x1b[1;3H\x1b[2@", "AB  CDEFGH"},
		{"delete", "\x1b[1;3H\x1b[2P", "ABEFGHIJ"},
		{"erase", "\x1b[1;3H\x1b[2X", "AB  EFGHIJ"},
		{"delete past end", "\x1b[1;9H\x1b[10P", "ABCDEFGH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScreen(2, 10)
			s.ProcessString("ABCDEFGHIJ" + tt.input)

			if got := s.Lines()[0].String(); got != tt.want {
				t.Errorf("expected '%s', got '%s'", tt.want, got)
			}
		})
	}
}

func TestParserSaveRestoreCursor(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"csi", "\x1b[5;10H\x1b[s\x1b[1;1H\x1b[u"},
		{"esc", "\x1b[5;10H\x1b7\x1b[1;1H\x1b8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScreen(24, 80)
			s.ProcessString(tt.input)

			row, col := s.CursorPosition()
			if row != 4 || col != 9 {
				t.Errorf("expected restored cursor at (4,9), got (%d,%d)", row, col)
			}
		})
	}
}

func TestParserRestoreWithoutSave(t *testing.T) {
	s := NewScreen(24, 80)
	s.ProcessString("\x1b[5;10H\x1b[u")

	if row, col := s.CursorPosition(); row != 0 || col != 0 {
		t.Errorf("expected restore without save to home, got (%d,%d)", row, col)
	}
}

func TestParserReverseIndex(t *testing.T) {
	s := NewScreen(3, 10)
	s.ProcessString("a\r\nb\r\nc\x1b[1;1H\x1bM")

	if got := s.Text(); got != "\na\nb" {
		t.Errorf("expected RI at top to scroll down, got %q", got)
	}

	s.ProcessString("\x1b[3;1H\x1bM")
	if row, _ := s.CursorPosition(); row != 1 {
		t.Errorf("expected RI to move up to row 1, got %d", row)
	}
}

func TestParserIndexAndNextLine(t *testing.T) {
	s := NewScreen(3, 10)
	s.ProcessString("ab\x1bD")

	if row, col := s.CursorPosition(); row != 1 || col != 2 {
		t.Errorf("expected IND to keep column, got (%d,%d)", row, col)
	}

	s.ProcessString("\x1bE")
	if row, col := s.CursorPosition(); row != 2 || col != 0 {
		t.Errorf("expected NEL to move to (2,0), got (%d,%d)", row, col)
	}
}

func TestParserReset(t *testing.T) {
	s := NewScreen(3, 10)
	s.ProcessString("\x1b]2;kept\x07")
	s.ProcessString("1\r\n2\r\n3\r\n4")
	s.ProcessString("\x1b[1;31m\x1b[?25l\x1b[?1000h\x1b[2;3r\x1b[?1049h")
	s.ProcessString("\x1bc")

	if s.IsAlternateScreen() {
		t.Error("expected RIS to leave the alternate screen")
	}
	if s.Text() != "" {
		t.Errorf("expected blank screen, got %q", s.Text())
	}
	if !s.CursorVisible() {
		t.Error("expected cursor visible")
	}
	if s.MouseMode() != MouseNone {
		t.Errorf("expected mouse mode none, got %v", s.MouseMode())
	}
	if _, _, ok := s.ScrollRegion(); ok {
		t.Error("expected region reset")
	}
	if s.Title() != "kept" {
		t.Errorf("expected title to survive reset, got '%s'", s.Title())
	}
	if s.ScrollbackLen() != 1 {
		t.Errorf("expected scrollback to survive reset, got %d", s.ScrollbackLen())
	}

	s.ProcessString("X")
	if c := s.Cell(0, 0); c.Fg != DefaultColor || c.Attrs != AttrNone {
		t.Errorf("expected pen reset, got fg %v attrs %b", c.Fg, c.Attrs)
	}
}

func TestParserCursorVisibility(t *testing.T) {
	s := NewScreen(24, 80)

	s.ProcessString("\x1b[?25l")
	if s.CursorVisible() {
		t.Error("expected cursor hidden")
	}

	s.ProcessString("\x1b[?25h")
	if !s.CursorVisible() {
		t.Error("expected cursor visible")
	}
}

func TestParserCursorStyle(t *testing.T) {
	tests := []struct {
		input string
		want  CursorStyle
	}{
		{"\x1b[0 q", CursorBlock},
		{"\x1b[2 q", CursorBlock},
		{"\x1b[4 q", CursorUnderline},
		{"\x1b[5 q", CursorBar},
		{"\x1b[6 q", CursorBar},
	}

	for _, tt := range tests {
		s := NewScreen(24, 80)
		s.ProcessString("\x1b[3 q" + tt.input)
		if s.CursorStyle() != tt.want {
			t.Errorf("%q: expected style %d, got %d", tt.input, tt.want, s.CursorStyle())
		}
	}
}

func TestParserMouseModes(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantMode     MouseMode
		wantEncoding MouseEncoding
	}{
		{"x10", "\x1b[?9h", MouseX10, MouseEncodingDefault},
		{"normal", "\x1b[?1000h", MouseX10, MouseEncodingDefault},
		{"button event", "\x1b[?1002h", MouseButtonEvent, MouseEncodingDefault},
		{"any event", "\x1b[?1003h", MouseAnyEvent, MouseEncodingDefault},
		{"reset other mode", "\x1b[?1003h\x1b[?1000l", MouseNone, MouseEncodingDefault},
		{"sgr only", "\x1b[?1006h", MouseNone, MouseEncodingSGR},
		{"sgr with tracking", "\x1b[?1002h\x1b[?1006h", MouseButtonEvent, MouseEncodingSGR},
		{"encoding reset keeps mode", "\x1b[?1002h\x1b[?1006h\x1b[?1006l", MouseButtonEvent, MouseEncodingDefault},
		{"mode reset keeps encoding", "\x1b[?1006h\x1b[?1003h\x1b[?1003l", MouseNone, MouseEncodingSGR},
		{"combined params", "\x1b[?1000;1006h", MouseX10, MouseEncodingSGR},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScreen(24, 80)
			s.ProcessString(tt.input)

			if s.MouseMode() != tt.wantMode {
				t.Errorf("expected mode %v, got %v", tt.wantMode, s.MouseMode())
			}
			if s.MouseEncoding() != tt.wantEncoding {
				t.Errorf("expected encoding %v, got %v", tt.wantEncoding, s.MouseEncoding())
			}
		})
	}
}

func TestParserOtherModes(t *testing.T) {
	s := NewScreen(24, 80)
	s.ProcessString("\x1b[?1h\x1b[?2004h")

	if !s.ApplicationCursorKeys() {
		t.Error("expected application cursor keys")
	}
	if !s.BracketedPaste() {
		t.Error("expected bracketed paste")
	}

	s.ProcessString("\x1b[?1l\x1b[?2004l")
	if s.ApplicationCursorKeys() || s.BracketedPaste() {
		t.Error("expected modes reset")
	}
}

func TestParserOSCTitle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantIcon string
		want     string
	}{
		{"title and icon", "\x1b]0;both\x07", "both", "both"},
		{"icon only", "\x1b]1;icon\x07", "icon", ""},
		{"title only", "\x1b]2;title\x07", "", "title"},
		{"string terminator", "\x1b]2;st title\x1b\\", "", "st title"},
		{"empty", "\x1b]2;\x07", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScreen(24, 80)
			s.ProcessString(tt.input)

			if s.Title() != tt.want {
				t.Errorf("expected title '%s', got '%s'", tt.want, s.Title())
			}
			if s.IconName() != tt.wantIcon {
				t.Errorf("expected icon '%s', got '%s'", tt.wantIcon, s.IconName())
			}
		})
	}
}

func TestParserOSCWorkingDirectory(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"with host", "\x1b]7;file://myhost/home/user\x07", "/home/user"},
		{"without host", "\x1b]7;file:///tmp/x\x07", "/tmp/x"},
		{"percent encoded", "\x1b]7;file://h/home/my%20dir\x07", "/home/my dir"},
		{"not a file url", "\x1b]7;http://h/home\x07", ""},
		{"garbage", "\x1b]7;%zz\x07", ""},
		{"iterm", "\x1b]1337;CurrentDir=/srv/app\x07", "/srv/app"},
		{"iterm other key", "\x1b]1337;SetMark\x07", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScreen(24, 80)
			s.ProcessString(tt.input)

			if s.ShellCwd() != tt.want {
				t.Errorf("expected cwd '%s', got '%s'", tt.want, s.ShellCwd())
			}
		})
	}
}

func TestParserOSCClipboard(t *testing.T) {
	s := NewScreen(24, 80)
	s.ProcessString("\x1b]52;c;aGVsbG8=\x07")

	req, ok := s.ClipboardRequest()
	if !ok {
		t.Fatal("expected clipboard request")
	}
	if req.Selection != "c" || req.Data != "aGVsbG8=" {
		t.Errorf("unexpected request %+v", req)
	}
	if text, err := req.Decoded(); err != nil || string(text) != "hello" {
		t.Errorf("expected decoded 'hello', got %q (%v)", text, err)
	}

	s.ClearClipboardRequest()
	if _, ok := s.ClipboardRequest(); ok {
		t.Error("expected request to be cleared")
	}

	s.ProcessString("\x1b]52;c;?\x07")
	if _, ok := s.ClipboardRequest(); ok {
		t.Error("expected query to be ignored")
	}

	s.ProcessString("\x1b]52;nodata\x07")
	if _, ok := s.ClipboardRequest(); ok {
		t.Error("expected payload without data to be ignored")
	}
}

func TestParserOSCPrompt(t *testing.T) {
	s := NewScreen(24, 80)

	steps := []struct {
		input     string
		wantPhase PromptPhase
	}{
		{"\x1b]133;A\x07", PromptStart},
		{"\x1b]133;B\x07", PromptInput},
		{"\x1b]133;C\x07", PromptOutput},
		{"\x1b]133;D;2\x07", PromptFinished},
	}
	for _, step := range steps {
		s.ProcessString(step.input)
		if s.Prompt().Phase != step.wantPhase {
			t.Errorf("%q: expected phase %v, got %v", step.input, step.wantPhase, s.Prompt().Phase)
		}
	}

	p := s.Prompt()
	if !p.HasExitCode || p.ExitCode != 2 {
		t.Errorf("expected exit code 2, got %+v", p)
	}
	if p.Commands != 1 {
		t.Errorf("expected 1 command, got %d", p.Commands)
	}

	s.ProcessString("\x1b]133;D\x07")
	if s.Prompt().HasExitCode {
		t.Error("expected D without status to clear the exit code")
	}
}

func TestParserOSCUnknownIgnored(t *testing.T) {
	s := NewScreen(24, 80)
	s.ProcessString("\x1b]9999;whatever\x07ok")

	if got := s.Lines()[0].String(); got != "ok" {
		t.Errorf("expected 'ok', got '%s'", got)
	}
}

func TestParserReplies(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"status", "\x1b[5n", "\x1b[0n"},
		{"cursor position", "\x1b[3;4H\x1b[6n", "\x1b[3;4R"},
		{"private cursor position", "\x1b[3;4H\x1b[?6n", "\x1b[?3;4R"},
		{"device attributes", "\x1b[c", "\x1b[?1;2c"},
		{"device attributes zero", "\x1b[0c", "\x1b[?1;2c"},
		{"secondary attributes ignored", "\x1b[>c", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScreen(24, 80)
			s.ProcessString(tt.input)

			if got := string(s.TakeReplies()); got != tt.want {
				t.Errorf("expected reply %q, got %q", tt.want, got)
			}
			if got := s.TakeReplies(); len(got) != 0 {
				t.Errorf("expected replies drained, got %q", got)
			}
		})
	}
}

func TestParserFragmentedSequence(t *testing.T) {
	s := NewScreen(24, 80)

	s.ProcessString("\x1b")
	s.ProcessString("[3")
	s.ProcessString("1mX")
	s.Process([]byte{0xe4, 0xb8})
	s.Process([]byte{0xad})

	if c := s.Cell(0, 0); c.Char != 'X' || c.Fg != ColorRed {
		t.Errorf("expected red 'X', got %q %v", c.Char, c.Fg)
	}
	if c := s.Cell(0, 1); c.Char != '中' {
		t.Errorf("expected split UTF-8 to decode, got %q", c.Char)
	}
}

func TestParserIgnoresUnsupported(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown csi", "\x1b[999z"},
		{"charset", "\x1b(B"},
		{"dcs", "\x1bPq#0;2;0;0;0\x1b\\"},
		{"apc", "\x1b_Gf=100;AAAA\x1b\\"},
		{"pm", "\x1b^private\x1b\\"},
		{"standard mode", "\x1b[4h"},
		{"keypad", "\x1b="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScreen(5, 20)
			s.ProcessString(tt.input + "ok")

			if got := s.Lines()[0].String(); got != "ok" {
				t.Errorf("expected 'ok', got '%s'", got)
			}
		})
	}
}
