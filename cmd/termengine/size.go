package main

import (
	"io"
	"math"
	"os"

	"golang.org/x/term"
)

// screenSize fills in the dimensions not set by flags: from out when it is
// a terminal, otherwise from the configuration.
func (a *app) screenSize(out io.Writer, rows, cols uint16) (uint16, uint16) {
	if rows != 0 && cols != 0 {
		return rows, cols
	}

	termRows, termCols, ok := terminalSize(out)
	if !ok {
		termRows, termCols = a.cfg.Rows, a.cfg.Cols
	}
	if rows == 0 {
		rows = termRows
	}
	if cols == 0 {
		cols = termCols
	}
	return rows, cols
}

// terminalSize reports the size of w if it is a terminal.
func terminalSize(w io.Writer) (rows, cols uint16, ok bool) {
	f, isFile := w.(*os.File)
	if !isFile || !term.IsTerminal(int(f.Fd())) {
		return 0, 0, false
	}

	width, height, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 || height <= 0 {
		return 0, 0, false
	}
	return uint16(min(height, math.MaxUint16)), uint16(min(width, math.MaxUint16)), true
}
