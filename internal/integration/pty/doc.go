// Package pty spawns shells on pseudo-terminals and multiplexes their I/O.
//
// A Manager runs one worker goroutine that owns every session. Public
// methods send the worker a request and block until it replies, so callers
// never share session state and requests for a session are handled in
// order.
//
// # Sessions
//
// Each session has a reader goroutine that appends output, in chunks of at
// most 4096 bytes, to a buffer bounded by byte count (1 MiB by default).
// When the program produces more than the caller reads, the oldest bytes
// are dropped instead of stalling the program. Poll reports eof once the
// child's output has ended and been fully read.
//
//	m := pty.NewManager(pty.WithLogger(logger))
//	defer m.Shutdown()
//
//	id, err := m.Create(24, 80)
//	if err != nil {
//	    return err
//	}
//	m.Write(id, []byte("ls\n"))
//	out, _ := m.Read(id)
//
// Closing a session kills the child's whole process group, so background
// jobs started from the shell do not outlive it.
//
// # Environment
//
// RecommendedEnvironment inherits the parent environment and advertises an
// xterm-256color, truecolor terminal. MinimalEnvironment starts from the
// critical variables only (HOME, USER, PATH, LANG, SHELL), which are always
// present and cannot be unset.
package pty
