// Package terminal models the screen of a terminal emulator.
//
// A Screen interprets the byte stream a program writes to its PTY and keeps
// the resulting state:
//
//   - A grid of styled cells with wide character support
//   - Scrollback history capped at a fixed number of lines
//   - Cursor position, visibility and shape
//   - Scroll region, alternate screen and mouse modes
//   - Title, working directory, clipboard and prompt marks reported over OSC
//
// # Usage
//
//	screen := terminal.NewScreen(24, 80)
//	screen.Process(output)
//
//	row, col := screen.CursorPosition()
//	for _, line := range screen.Lines() {
//	    for _, cell := range line.Cells {
//	        // cell.Char, cell.Style() ...
//	    }
//	}
//
// Replies the program expects from the terminal (cursor position reports,
// device attributes) are queued and returned by TakeReplies.
//
// # ANSI Support
//
// Parsing is done by github.com/charmbracelet/x/ansi. The screen handles:
//
//   - C0 controls (BEL, BS, HT, LF, VT, FF, CR)
//   - CSI cursor movement, erase, insert/delete and scroll sequences
//   - SGR attributes with 16, 256 and 24-bit colors
//   - DEC private modes for mouse tracking, alternate screen and cursor
//   - OSC 0, 1, 2, 7, 52, 133 and 1337
//
// Unsupported or malformed sequences are ignored.
//
// # Thread Safety
//
// Screen has no internal locking. One goroutine owns it; other goroutines
// must go through that owner.
package terminal
