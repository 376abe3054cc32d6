package pty

import "errors"

// Sentinel errors for the pty package.
var (
	// ErrSpawnFailed is returned when the shell cannot be started on a PTY.
	ErrSpawnFailed = errors.New("failed to spawn pty session")

	// ErrSessionNotFound is returned when a session ID is not found.
	ErrSessionNotFound = errors.New("pty session not found")

	// ErrIO is returned when reading, writing or resizing a PTY fails.
	ErrIO = errors.New("pty i/o error")

	// ErrChannel is returned when the manager is shut down and can no
	// longer accept requests.
	ErrChannel = errors.New("pty manager is closed")

	// ErrInvalidSize is returned when a PTY size has zero rows or columns.
	ErrInvalidSize = errors.New("invalid terminal size")
)
