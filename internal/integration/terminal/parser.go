package terminal

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// primaryDeviceAttributes is the DA reply: VT100 with advanced video.
const primaryDeviceAttributes = "\x1b[?1;2c"

// param returns parameter i, or def when it is missing.
func param(params ansi.Params, i, def int) int {
	if i >= len(params) {
		return def
	}
	return params[i].Param(def)
}

// count returns parameter i as a repeat count: missing or zero means 1.
func count(params ansi.Params, i int) int {
	return max(param(params, i, 1), 1)
}

func (s *Screen) handleCSI(cmd ansi.Cmd, params ansi.Params) {
	switch cmd.Prefix() {
	case 0:
	case '?':
		s.handlePrivateCSI(cmd, params)
		return
	default:
		return
	}

	if cmd.Intermediate() != 0 {
		if cmd.Intermediate() == ' ' && cmd.Final() == 'q' {
			s.setCursorStyle(param(params, 0, 0))
		}
		return
	}

	switch cmd.Final() {
	case 'A': // CUU - Cursor Up
		s.cursorUp(count(params, 0))

	case 'B', 'e': // CUD - Cursor Down
		s.cursorDown(count(params, 0))

	case 'C', 'a': // CUF - Cursor Forward
		s.cursorForward(count(params, 0))

	case 'D': // CUB - Cursor Back
		s.cursorBackward(count(params, 0))

	case 'E': // CNL - Cursor Next Line
		s.cursorDown(count(params, 0))
		s.cursorCol = 0

	case 'F': // CPL - Cursor Previous Line
		s.cursorUp(count(params, 0))
		s.cursorCol = 0

	case 'G', '`': // CHA - Cursor Horizontal Absolute
		s.moveCursor(s.cursorRow, count(params, 0)-1)

	case 'H', 'f': // CUP/HVP - Cursor Position
		s.moveCursor(count(params, 0)-1, count(params, 1)-1)

	case 'd': // VPA - Vertical Position Absolute
		s.moveCursor(count(params, 0)-1, s.cursorCol)

	case 'J': // ED - Erase Display
		s.eraseDisplay(param(params, 0, 0))

	case 'K': // EL - Erase Line
		s.eraseLine(param(params, 0, 0))

	case 'L': // IL - Insert Lines
		s.insertLines(count(params, 0))

	case 'M': // DL - Delete Lines
		s.deleteLines(count(params, 0))

	case 'P': // DCH - Delete Characters
		s.deleteChars(count(params, 0))

	case 'X': // ECH - Erase Characters
		s.eraseChars(count(params, 0))

	case '@': // ICH - Insert Characters
		s.insertChars(count(params, 0))

	case 'S': // SU - Scroll Up
		s.ScrollUp(count(params, 0))

	case 'T': // SD - Scroll Down
		s.ScrollDown(count(params, 0))

	case 'm': // SGR - Select Graphic Rendition
		s.handleSGR(params)

	case 'r': // DECSTBM - Set Scrolling Region
		top := count(params, 0)
		bottom := param(params, 1, s.rows)
		if bottom == 0 {
			bottom = s.rows
		}
		s.setScrollRegion(top-1, bottom-1)

	case 's': // SCP - Save Cursor Position
		s.saveCursor()

	case 'u': // RCP - Restore Cursor Position
		s.restoreCursor()

	case 'n': // DSR - Device Status Report
		switch param(params, 0, 0) {
		case 5:
			s.reply("\x1b[0n")
		case 6:
			s.reply(fmt.Sprintf("\x1b[%d;%dR", s.cursorRow+1, min(s.cursorCol, s.cols-1)+1))
		}

	case 'c': // DA - Device Attributes
		if param(params, 0, 0) == 0 {
			s.reply(primaryDeviceAttributes)
		}
	}
}

func (s *Screen) handlePrivateCSI(cmd ansi.Cmd, params ansi.Params) {
	if cmd.Intermediate() != 0 {
		return
	}

	switch cmd.Final() {
	case 'h':
		s.setPrivateModes(params, true)
	case 'l':
		s.setPrivateModes(params, false)
	case 'n':
		if param(params, 0, 0) == 6 {
			s.reply(fmt.Sprintf("\x1b[?%d;%dR", s.cursorRow+1, min(s.cursorCol, s.cols-1)+1))
		}
	}
}

func (s *Screen) setPrivateModes(params ansi.Params, set bool) {
	for _, p := range params {
		switch p.Param(0) {
		case 1: // DECCKM - Cursor Keys Mode
			s.appCursorKeys = set
		case 7: // DECAWM - Auto Wrap Mode
			s.autoWrap = set
		case 25: // DECTCEM - Text Cursor Enable Mode
			s.cursorVisible = set
		case 9, 1000:
			s.setMouseMode(MouseX10, set)
		case 1002:
			s.setMouseMode(MouseButtonEvent, set)
		case 1003:
			s.setMouseMode(MouseAnyEvent, set)
		case 1006:
			if set {
				s.mouseEncoding = MouseEncodingSGR
			} else {
				s.mouseEncoding = MouseEncodingDefault
			}
		case 47, 1047: // Alternate screen buffer
			if set {
				s.enterAlternate(false)
			} else {
				s.leaveAlternate(false)
			}
		case 1049: // Alternate screen buffer with save/restore cursor
			if set {
				s.enterAlternate(true)
			} else {
				s.leaveAlternate(true)
			}
		case 2004: // Bracketed paste mode
			s.bracketedPaste = set
		}
	}
}

// setMouseMode applies a tracking mode change. Resetting any tracking mode
// turns tracking off.
func (s *Screen) setMouseMode(mode MouseMode, set bool) {
	if set {
		s.mouseMode = mode
		return
	}
	s.mouseMode = MouseNone
}

func (s *Screen) setCursorStyle(n int) {
	switch n {
	case 0, 1, 2:
		s.cursorStyle = CursorBlock
	case 3, 4:
		s.cursorStyle = CursorUnderline
	case 5, 6:
		s.cursorStyle = CursorBar
	}
}

func (s *Screen) reply(seq string) {
	s.replies = append(s.replies, seq...)
}

func (s *Screen) handleSGR(params ansi.Params) {
	if len(params) == 0 {
		s.resetPen()
		return
	}

	for i := 0; i < len(params); i++ {
		p := params[i]
		switch code := p.Param(0); {
		case code == 0: // Reset
			s.resetPen()
		case code == 1: // Bold
			s.attrs |= AttrBold
		case code == 2: // Dim
			s.attrs |= AttrDim
		case code == 3: // Italic
			s.attrs |= AttrItalic
		case code == 4, code == 21: // Underline, double underline
			s.attrs |= AttrUnderline
		case code == 5, code == 6: // Blink
			s.attrs |= AttrBlink
		case code == 7: // Reverse
			s.attrs |= AttrReverse
		case code == 8: // Hidden
			s.attrs |= AttrHidden
		case code == 9: // Strikethrough
			s.attrs |= AttrStrike
		case code == 22: // Normal intensity (not bold, not dim)
			s.attrs &^= AttrBold | AttrDim
		case code == 23: // Not italic
			s.attrs &^= AttrItalic
		case code == 24: // Not underline
			s.attrs &^= AttrUnderline
		case code == 25: // Not blink
			s.attrs &^= AttrBlink
		case code == 27: // Not reverse
			s.attrs &^= AttrReverse
		case code == 28: // Not hidden
			s.attrs &^= AttrHidden
		case code == 29: // Not strikethrough
			s.attrs &^= AttrStrike
		case code >= 30 && code <= 37:
			s.fg = IndexedColor(uint8(code - 30))
		case code == 39:
			s.fg = DefaultColor
		case code >= 40 && code <= 47:
			s.bg = IndexedColor(uint8(code - 40))
		case code == 49:
			s.bg = DefaultColor
		case code >= 90 && code <= 97:
			s.fg = IndexedColor(uint8(code - 90 + 8))
		case code >= 100 && code <= 107:
			s.bg = IndexedColor(uint8(code - 100 + 8))
		case code == 38, code == 48:
			var c Color
			var ok bool
			if p.HasMore() {
				c, ok, i = colonColor(params, i)
			} else {
				c, ok, i = semicolonColor(params, i)
			}
			if !ok {
				continue
			}
			if code == 38 {
				s.fg = c
			} else {
				s.bg = c
			}
		}
	}
}

// semicolonColor decodes "38;5;n" or "38;2;r;g;b" starting at params[i].
// It returns the index of the last parameter consumed. A truncated sequence
// consumes the remaining parameters.
func semicolonColor(params ansi.Params, i int) (Color, bool, int) {
	rest := len(params) - i - 1
	if rest < 1 {
		return Color{}, false, len(params)
	}

	switch params[i+1].Param(0) {
	case 5: // 256-color
		if rest < 2 {
			return Color{}, false, len(params)
		}
		return PaletteColor(clampColorValue(params[i+2].Param(0))), true, i + 2
	case 2: // RGB
		if rest < 4 {
			return Color{}, false, len(params)
		}
		r := clampColorValue(params[i+2].Param(0))
		g := clampColorValue(params[i+3].Param(0))
		b := clampColorValue(params[i+4].Param(0))
		return RGBColor(r, g, b), true, i + 4
	}
	return Color{}, false, i + 1
}

// colonColor decodes the sub-parameter forms "38:5:n", "38:2:r:g:b" and
// "38:2:cs:r:g:b" starting at params[i]. It returns the index of the last
// sub-parameter consumed.
func colonColor(params ansi.Params, i int) (Color, bool, int) {
	var sub []int
	j := i + 1
	for ; j < len(params); j++ {
		sub = append(sub, params[j].Param(0))
		if !params[j].HasMore() {
			break
		}
	}
	if len(sub) == 0 {
		return Color{}, false, j
	}

	switch sub[0] {
	case 5:
		if len(sub) >= 2 {
			return PaletteColor(clampColorValue(sub[1])), true, j
		}
	case 2:
		switch {
		case len(sub) >= 5:
			return RGBColor(clampColorValue(sub[2]), clampColorValue(sub[3]), clampColorValue(sub[4])), true, j
		case len(sub) == 4:
			return RGBColor(clampColorValue(sub[1]), clampColorValue(sub[2]), clampColorValue(sub[3])), true, j
		}
	}
	return Color{}, false, j
}

// clampColorValue clamps an integer to valid RGB range (0-255).
func clampColorValue(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func (s *Screen) handleESC(cmd ansi.Cmd) {
	// Charset designations and other intermediates are consumed.
	if cmd.Intermediate() != 0 {
		return
	}

	switch cmd.Final() {
	case '7': // DECSC - Save Cursor
		s.saveCursor()
	case '8': // DECRC - Restore Cursor
		s.restoreCursor()
	case 'D': // IND - Index
		s.lineFeed()
	case 'E': // NEL - Next Line
		s.cursorCol = 0
		s.lineFeed()
	case 'M': // RI - Reverse Index
		s.reverseIndex()
	case 'c': // RIS - Reset to Initial State
		s.Reset()
	}
}

// oscPayload strips the "N;" command prefix from OSC data.
func oscPayload(cmd int, data []byte) string {
	payload := string(data)
	if rest, ok := strings.CutPrefix(payload, strconv.Itoa(cmd)+";"); ok {
		return rest
	}
	if payload == strconv.Itoa(cmd) {
		return ""
	}
	return payload
}

func (s *Screen) handleOSC(cmd int, data []byte) {
	payload := oscPayload(cmd, data)

	switch cmd {
	case 0: // Set icon name and window title
		s.title = payload
		s.iconName = payload
	case 1: // Set icon name
		s.iconName = payload
	case 2: // Set window title
		s.title = payload
	case 7: // Current working directory
		u, err := url.Parse(payload)
		if err != nil || u.Scheme != "file" || u.Path == "" {
			return
		}
		s.cwd = u.Path
	case 52: // Clipboard
		selection, data, ok := strings.Cut(payload, ";")
		if !ok || data == "?" {
			return
		}
		s.clipboard = &ClipboardRequest{Selection: selection, Data: data}
	case 133: // Semantic prompt
		s.prompt = s.prompt.apply(payload)
	case 1337: // iTerm2 extensions
		if dir, ok := strings.CutPrefix(payload, "CurrentDir="); ok && dir != "" {
			s.cwd = dir
		}
	}
}
