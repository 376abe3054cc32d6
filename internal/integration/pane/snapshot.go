package pane

import (
	"strings"

	"github.com/dshills/termengine/internal/integration/terminal"
)

// Snapshot is a point-in-time copy of a screen.
type Snapshot struct {
	Rows, Cols int

	CursorRow, CursorCol int
	CursorVisible        bool
	CursorStyle          terminal.CursorStyle

	Alternate bool
	Title     string
	Cwd       string
	Prompt    terminal.PromptState

	Lines []terminal.Line
}

func takeSnapshot(s *terminal.Screen) Snapshot {
	rows, cols := s.Size()
	row, col := s.CursorPosition()
	return Snapshot{
		Rows:          rows,
		Cols:          cols,
		CursorRow:     row,
		CursorCol:     col,
		CursorVisible: s.CursorVisible(),
		CursorStyle:   s.CursorStyle(),
		Alternate:     s.IsAlternateScreen(),
		Title:         s.Title(),
		Cwd:           s.ShellCwd(),
		Prompt:        s.Prompt(),
		Lines:         s.Lines(),
	}
}

// Text returns the snapshot's lines as text, like Screen.Text.
func (s Snapshot) Text() string {
	rows := make([]string, len(s.Lines))
	for i := range s.Lines {
		rows[i] = s.Lines[i].String()
	}
	return strings.TrimRight(strings.Join(rows, "\n"), "\n")
}
