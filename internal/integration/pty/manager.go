package pty

import (
	"fmt"
	"maps"
	"os"
	"os/exec"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/creack/pty"
	"github.com/google/uuid"

	"github.com/dshills/termengine/internal/logx"
)

// DefaultJoinTimeout bounds how long closing a session waits for its reader.
const DefaultJoinTimeout = 2 * time.Second

// retainedExits bounds how many closed sessions keep their exit code for
// CheckStatus. The oldest are forgotten first.
const retainedExits = 1024

// ID identifies a PTY session.
type ID string

// EventPublisher publishes session lifecycle events.
type EventPublisher interface {
	Publish(eventType string, data map[string]any)
}

// Event types published by the manager.
const (
	EventCreated = "pty.created"
	EventClosed  = "pty.closed"
	EventExited  = "pty.exited"
)

// Manager owns a set of PTY sessions. A single worker goroutine holds the
// session map; every method sends it a request and waits for the reply, so
// requests for one session are handled in the order they are made.
//
// Manager is safe for concurrent use.
type Manager struct {
	cmds     chan command
	done     chan struct{}
	shutdown sync.Once

	// Worker-owned state
	sessions  map[ID]*session
	exited    map[ID]int
	exitOrder []ID

	shell       string
	args        []string
	workDir     string
	env         *Environment
	bufferCap   int
	joinTimeout time.Duration
	program     string
	version     string

	logger *log.Logger
	events EventPublisher
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithEventPublisher sets the publisher for lifecycle events.
func WithEventPublisher(p EventPublisher) Option {
	return func(m *Manager) {
		m.events = p
	}
}

// WithShell sets the shell and its arguments. An empty shell keeps the
// detected default.
func WithShell(shell string, args ...string) Option {
	return func(m *Manager) {
		if shell != "" {
			m.shell = shell
		}
		m.args = args
	}
}

// WithWorkDir sets the working directory of spawned shells.
func WithWorkDir(dir string) Option {
	return func(m *Manager) {
		m.workDir = dir
	}
}

// WithEnvironment sets the environment used by Create.
func WithEnvironment(env *Environment) Option {
	return func(m *Manager) {
		m.env = env.Clone()
	}
}

// WithBufferCap sets the per-session output bound in bytes.
func WithBufferCap(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.bufferCap = n
		}
	}
}

// WithJoinTimeout sets how long closing a session waits for its reader.
func WithJoinTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.joinTimeout = d
		}
	}
}

// WithProgram sets the TERM_PROGRAM name and version advertised by the
// recommended environment.
func WithProgram(name, version string) Option {
	return func(m *Manager) {
		m.program = name
		m.version = version
	}
}

// NewManager creates a manager and starts its worker.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		cmds:        make(chan command),
		done:        make(chan struct{}),
		sessions:    make(map[ID]*session),
		exited:      make(map[ID]int),
		bufferCap:   DefaultBufferCap,
		joinTimeout: DefaultJoinTimeout,
		program:     "termengine",
		version:     "dev",
		logger:      logx.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.shell = DetectShell(m.shell)
	if m.workDir == "" {
		if wd, err := os.Getwd(); err == nil {
			m.workDir = wd
		}
	}
	if m.env == nil {
		m.env = RecommendedEnvironment(m.program, m.version)
	}

	go m.run()
	return m
}

// Shell returns the shell spawned by Create.
func (m *Manager) Shell() string {
	return m.shell
}

// Create spawns the shell on a new PTY of the given size using the
// manager's environment.
func (m *Manager) Create(rows, cols uint16) (ID, error) {
	return m.CreateWithEnv(rows, cols, nil)
}

// CreateWithEnv spawns the shell on a new PTY with env. A nil env uses the
// manager's environment.
func (m *Manager) CreateWithEnv(rows, cols uint16, env *Environment) (ID, error) {
	reply := make(chan createReply, 1)
	r, err := call(m, createCmd{rows: rows, cols: cols, env: env.Clone(), reply: reply}, reply)
	if err != nil {
		return "", err
	}
	return r.id, r.err
}

// Write writes all of data to the session's PTY.
func (m *Manager) Write(id ID, data []byte) error {
	reply := make(chan error, 1)
	r, err := call(m, writeCmd{id: id, data: data, reply: reply}, reply)
	if err != nil {
		return err
	}
	return r
}

// Read returns the output produced since the last Read and clears it.
// It never waits for output; the result is empty when nothing is pending.
// Output beyond the buffer bound is dropped oldest first.
func (m *Manager) Read(id ID) ([]byte, error) {
	data, _, err := m.Poll(id)
	return data, err
}

// Poll is Read that also reports eof once the session's reader has hit the
// end of the PTY stream and every byte it produced has been returned. No
// further output will arrive after eof.
func (m *Manager) Poll(id ID) (data []byte, eof bool, err error) {
	reply := make(chan readReply, 1)
	r, err := call(m, readCmd{id: id, reply: reply}, reply)
	if err != nil {
		return nil, false, err
	}
	return r.data, r.eof, r.err
}

// Resize changes the PTY window size.
func (m *Manager) Resize(id ID, rows, cols uint16) error {
	reply := make(chan error, 1)
	r, err := call(m, resizeCmd{id: id, rows: rows, cols: cols, reply: reply}, reply)
	if err != nil {
		return err
	}
	return r
}

// Close kills the session's process group and releases the PTY.
// Closing an unknown session succeeds.
func (m *Manager) Close(id ID) error {
	reply := make(chan error, 1)
	r, err := call(m, closeCmd{id: id, reply: reply}, reply)
	if err != nil {
		return err
	}
	return r
}

// CheckStatus reports the child's exit code, or nil while it is running.
// A closed session still reports the code its child exited with, so a
// caller that closes first and asks later learns how the child ended.
func (m *Manager) CheckStatus(id ID) (*int, error) {
	reply := make(chan statusReply, 1)
	r, err := call(m, statusCmd{id: id, reply: reply}, reply)
	if err != nil {
		return nil, err
	}
	return r.code, r.err
}

// List returns the IDs of live sessions in sorted order.
func (m *Manager) List() ([]ID, error) {
	reply := make(chan []ID, 1)
	return call(m, listCmd{reply: reply}, reply)
}

// Count returns the number of live sessions.
func (m *Manager) Count() (int, error) {
	ids, err := m.List()
	return len(ids), err
}

// Shutdown closes every session and stops the worker. It is safe to call
// more than once. Afterwards every method returns ErrChannel.
func (m *Manager) Shutdown() {
	m.shutdown.Do(func() {
		select {
		case m.cmds <- shutdownCmd{}:
		case <-m.done:
		}
	})
	<-m.done
}

// Done is closed once the worker has stopped.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// call sends cmd to the worker and waits for its reply.
func call[T any](m *Manager, cmd command, reply chan T) (T, error) {
	var zero T

	select {
	case m.cmds <- cmd:
	case <-m.done:
		return zero, ErrChannel
	}

	select {
	case r := <-reply:
		return r, nil
	case <-m.done:
		// The worker may have replied just before stopping.
		select {
		case r := <-reply:
			return r, nil
		default:
			return zero, ErrChannel
		}
	}
}

// run is the worker loop.
func (m *Manager) run() {
	defer close(m.done)

	for cmd := range m.cmds {
		switch c := cmd.(type) {
		case createCmd:
			id, err := m.create(c.rows, c.cols, c.env)
			c.reply <- createReply{id: id, err: err}
		case writeCmd:
			c.reply <- m.write(c.id, c.data)
		case readCmd:
			data, eof, err := m.read(c.id)
			c.reply <- readReply{data: data, eof: eof, err: err}
		case resizeCmd:
			c.reply <- m.resize(c.id, c.rows, c.cols)
		case closeCmd:
			m.closeSession(c.id)
			c.reply <- nil
		case statusCmd:
			code, err := m.status(c.id)
			c.reply <- statusReply{code: code, err: err}
		case listCmd:
			ids := make([]ID, 0, len(m.sessions))
			for id := range m.sessions {
				ids = append(ids, id)
			}
			slices.Sort(ids)
			c.reply <- ids
		case shutdownCmd:
			m.closeAll()
			return
		}
	}
}

func (m *Manager) create(rows, cols uint16, env *Environment) (ID, error) {
	if rows == 0 || cols == 0 {
		return "", fmt.Errorf("%w: %dx%d", ErrInvalidSize, rows, cols)
	}
	if env == nil {
		env = m.env
	}

	vars, warnings := BuildEnvironment(env, m.shell)
	for _, w := range warnings {
		m.logger.Warn("environment", "warning", w)
	}

	cmd := exec.Command(m.shell, m.args...)
	cmd.Env = vars
	cmd.Dir = m.workDir

	master, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrSpawnFailed, m.shell, err)
	}

	id := ID(uuid.New().String())
	s := newSession(id, master, cmd, m.bufferCap, m.logger.With("session", id))
	m.sessions[id] = s
	go s.readLoop()

	m.logger.Debug("pty session created", "session", id, "pid", s.pid, "shell", m.shell, "rows", rows, "cols", cols)
	m.publishEvent(EventCreated, map[string]any{
		"id":    string(id),
		"pid":   s.pid,
		"shell": m.shell,
	})

	return id, nil
}

func (m *Manager) lookup(id ID) (*session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

func (m *Manager) write(id ID, data []byte) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	if _, err := s.master.Write(data); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIO, id, err)
	}
	return nil
}

func (m *Manager) read(id ID) ([]byte, bool, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, false, err
	}
	data, eof, err := s.drain()
	if err != nil {
		return nil, false, fmt.Errorf("%w: read %s: %w", ErrIO, id, err)
	}
	return data, eof, nil
}

func (m *Manager) resize(id ID, rows, cols uint16) error {
	if rows == 0 || cols == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, rows, cols)
	}
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	if err := pty.Setsize(s.master, &pty.Winsize{Rows: rows, Cols: cols}); err != nil {
		return fmt.Errorf("%w: resize %s: %w", ErrIO, id, err)
	}
	return nil
}

func (m *Manager) status(id ID) (*int, error) {
	if code, ok := m.exited[id]; ok {
		return &code, nil
	}
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	code, reaped, err := s.status()
	if err != nil {
		return nil, fmt.Errorf("%w: wait %s: %w", ErrIO, id, err)
	}
	if reaped {
		m.logger.Debug("pty child exited", "session", id, "code", *code)
		m.publishEvent(EventExited, map[string]any{
			"id":       string(id),
			"exitCode": *code,
		})
	}
	return code, nil
}

func (m *Manager) closeSession(id ID) {
	s, ok := m.sessions[id]
	if !ok {
		return
	}

	code := s.close(m.joinTimeout)
	delete(m.sessions, id)
	m.retainExit(id, code)

	m.logger.Debug("pty session closed", "session", id, "code", code)
	m.publishEvent(EventClosed, map[string]any{
		"id":       string(id),
		"pid":      s.pid,
		"exitCode": code,
	})
}

// retainExit remembers the exit code of a closed session.
func (m *Manager) retainExit(id ID, code int) {
	if len(m.exitOrder) >= retainedExits {
		delete(m.exited, m.exitOrder[0])
		m.exitOrder = m.exitOrder[1:]
	}
	m.exited[id] = code
	m.exitOrder = append(m.exitOrder, id)
}

func (m *Manager) closeAll() {
	for _, id := range slices.Sorted(maps.Keys(m.sessions)) {
		m.closeSession(id)
	}
}

// publishEvent publishes an event if a publisher is configured.
func (m *Manager) publishEvent(eventType string, data map[string]any) {
	if m.events != nil {
		if data == nil {
			data = make(map[string]any)
		}
		data["timestamp"] = time.Now().UnixMilli()
		m.events.Publish(eventType, data)
	}
}
