package pty

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/smallnest/ringbuffer"
)

const (
	// readChunkSize is the largest chunk the reader forwards at once.
	readChunkSize = 4096

	// DefaultBufferCap bounds the output buffered per session.
	DefaultBufferCap = 1 << 20
)

// session is one live PTY. The reader goroutine and the manager worker
// share buf under mu; everything else is owned by the worker.
type session struct {
	id     ID
	pid    int
	master *os.File
	cmd    *exec.Cmd

	mu      sync.Mutex
	buf     *ringbuffer.RingBuffer
	dropped int64

	// readerDone is closed after the reader has buffered its last output.
	readerDone chan struct{}

	// exitCode is set once the child has been reaped.
	exitCode *int

	logger *log.Logger
}

func newSession(id ID, master *os.File, cmd *exec.Cmd, bufferCap int, logger *log.Logger) *session {
	pid := 0
	if cmd.Process != nil {
		pid = cmd.Process.Pid
	}
	return &session{
		id:         id,
		pid:        pid,
		master:     master,
		cmd:        cmd,
		readerDone: make(chan struct{}),
		buf:        ringbuffer.New(bufferCap),
		logger:     logger,
	}
}

// readLoop buffers PTY output until EOF or the master is closed.
func (s *session) readLoop() {
	defer close(s.readerDone)

	buf := make([]byte, readChunkSize)
	for {
		n, err := s.master.Read(buf)
		if n > 0 {
			s.deliver(buf[:n])
		}

		if err != nil {
			// Linux reports EIO once the last slave fd is closed.
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				s.logger.Debug("pty read ended", "err", err)
			}
			return
		}
	}
}

// deliver appends chunk to the buffer without blocking, evicting the
// oldest bytes once the buffer is full.
func (s *session) deliver(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	first := s.dropped == 0
	if err := s.buffer(chunk); err != nil {
		s.logger.Debug("buffer pty output", "err", err)
	}
	if first && s.dropped > 0 {
		s.logger.Warn("output buffer full, dropping oldest output", "cap", s.buf.Capacity())
	}
}

// buffer appends chunk to the ring buffer, evicting the oldest bytes to
// make room. The caller holds mu.
func (s *session) buffer(chunk []byte) error {
	capacity := s.buf.Capacity()
	if len(chunk) >= capacity {
		s.dropped += int64(s.buf.Length() + len(chunk) - capacity)
		s.buf.Reset()
		chunk = chunk[len(chunk)-capacity:]
	} else if need := len(chunk) - s.buf.Free(); need > 0 {
		discard := make([]byte, need)
		n, err := s.buf.TryRead(discard)
		s.dropped += int64(n)
		if err != nil && !errors.Is(err, ringbuffer.ErrIsEmpty) {
			return err
		}
	}

	_, err := s.buf.Write(chunk)
	return err
}

// drain returns everything buffered, leaving it empty. eof reports that
// the reader has finished and no output remains. It never blocks.
func (s *session) drain() (data []byte, eof bool, err error) {
	// Checked first: once the reader is done, nothing more can arrive.
	finished := s.readerFinished()

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err = s.take()
	return data, finished && len(data) == 0, err
}

func (s *session) readerFinished() bool {
	select {
	case <-s.readerDone:
		return true
	default:
		return false
	}
}

// take empties the buffer. The caller holds mu.
func (s *session) take() ([]byte, error) {
	if s.buf.IsEmpty() {
		return []byte{}, nil
	}

	out := make([]byte, s.buf.Length())
	n, err := s.buf.TryRead(out)
	if err != nil && !errors.Is(err, ringbuffer.ErrIsEmpty) {
		return nil, err
	}
	return out[:n], nil
}

// droppedBytes returns how many bytes have been evicted unread.
func (s *session) droppedBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// status polls the child without blocking. A nil code means it is still
// running.
func (s *session) status() (code *int, reaped bool, err error) {
	if s.exitCode != nil {
		return s.exitCode, false, nil
	}

	c, exited, err := pollExit(s.cmd)
	if err != nil || !exited {
		return nil, false, err
	}
	s.setExit(c)
	return s.exitCode, true, nil
}

func (s *session) setExit(code int) {
	s.exitCode = &code
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Release()
	}
}

// close kills the child's process group, closes the master, waits up to
// joinTimeout for the reader and reaps the child. It returns the exit code.
func (s *session) close(joinTimeout time.Duration) int {
	if s.exitCode == nil {
		if err := killProcessGroup(s.cmd); err != nil {
			s.logger.Debug("kill process group", "err", err)
		}
	}

	if err := s.master.Close(); err != nil {
		s.logger.Debug("close pty master", "err", err)
	}

	timer := time.NewTimer(joinTimeout)
	defer timer.Stop()
	select {
	case <-s.readerDone:
	case <-timer.C:
		s.logger.Warn("pty reader did not exit; slave may be held open by another process", "timeout", joinTimeout)
	}

	if s.exitCode == nil {
		code, err := waitExit(s.cmd)
		if err != nil {
			s.logger.Debug("reap child", "err", err)
		}
		s.setExit(code)
	}
	return *s.exitCode
}
