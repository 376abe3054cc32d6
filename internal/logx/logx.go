// Package logx builds the structured loggers used across termengine.
package logx

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Prefix is printed before every log line.
const Prefix = "termengine"

// New returns a logger writing to w at level, with timestamps.
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          Prefix,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
}

// Discard returns a logger that drops everything. Library packages use it
// when no logger is supplied.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// ParseLevel parses a level name, falling back to info for unknown names.
func ParseLevel(name string) log.Level {
	lvl, err := log.ParseLevel(name)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
