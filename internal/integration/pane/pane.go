// Package pane binds a PTY session to a terminal screen.
//
// A Pane pulls output from its session through the pty.Manager, feeds it
// to a terminal.Screen and writes the screen's replies (cursor position
// reports, device attributes) back to the shell. The Pane is the only
// writer of its Screen; readers take snapshots under the Pane's lock, so a
// renderer goroutine may read while another goroutine pumps.
package pane

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dshills/termengine/internal/integration/pty"
	"github.com/dshills/termengine/internal/integration/terminal"
	"github.com/dshills/termengine/internal/logx"
)

// DefaultPollInterval is the pump interval used by Run when none is given.
const DefaultPollInterval = 10 * time.Millisecond

// DefaultDrainTimeout bounds how long Run keeps pumping after the child
// exits while waiting for the end of its output.
const DefaultDrainTimeout = time.Second

// ErrClosed is returned by operations on a closed pane.
var ErrClosed = errors.New("pane is closed")

// Pane is one shell session rendered onto a Screen.
type Pane struct {
	mgr *pty.Manager
	id  pty.ID

	mu       sync.RWMutex
	screen   *terminal.Screen
	exitCode *int

	closed       atomic.Bool
	drained      atomic.Bool
	drainTimeout time.Duration
	onOutput     func([]byte)
	logger       *log.Logger
}

type options struct {
	scrollback   int
	env          *pty.Environment
	onOutput     func([]byte)
	drainTimeout time.Duration
	logger       *log.Logger
}

// Option configures a Pane.
type Option func(*options)

// WithScrollback sets the screen's scrollback limit.
func WithScrollback(lines int) Option {
	return func(o *options) {
		o.scrollback = lines
	}
}

// WithEnvironment spawns the session with env instead of the manager's
// environment.
func WithEnvironment(env *pty.Environment) Option {
	return func(o *options) {
		o.env = env
	}
}

// WithOutputHandler registers fn to receive raw output after the screen
// has processed it. fn runs on the pumping goroutine.
func WithOutputHandler(fn func([]byte)) Option {
	return func(o *options) {
		o.onOutput = fn
	}
}

// WithDrainTimeout sets how long Run waits for the rest of the output once
// the child has exited.
func WithDrainTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.drainTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New spawns a session on mgr and attaches a screen of the same size.
func New(mgr *pty.Manager, rows, cols uint16, opts ...Option) (*Pane, error) {
	o := options{
		scrollback:   terminal.DefaultScrollback,
		drainTimeout: DefaultDrainTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logx.Discard()
	}

	id, err := mgr.CreateWithEnv(rows, cols, o.env)
	if err != nil {
		return nil, err
	}

	return &Pane{
		mgr:          mgr,
		id:           id,
		screen:       terminal.NewScreen(int(rows), int(cols), terminal.WithScrollback(o.scrollback)),
		drainTimeout: o.drainTimeout,
		onOutput:     o.onOutput,
		logger:       o.logger.With("session", id),
	}, nil
}

// ID returns the session ID.
func (p *Pane) ID() pty.ID {
	return p.id
}

// Write sends input to the shell.
func (p *Pane) Write(data []byte) error {
	if p.closed.Load() {
		return ErrClosed
	}
	return p.mgr.Write(p.id, data)
}

// WriteString sends a string to the shell.
func (p *Pane) WriteString(s string) error {
	return p.Write([]byte(s))
}

// Pump reads pending output once, applies it to the screen and answers any
// queries the output contained. It returns the number of bytes processed.
func (p *Pane) Pump() (int, error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}

	data, eof, err := p.mgr.Poll(p.id)
	if err != nil {
		return 0, err
	}
	if eof {
		p.drained.Store(true)
	}
	if len(data) == 0 {
		return 0, nil
	}

	p.mu.Lock()
	p.screen.Process(data)
	replies := p.screen.TakeReplies()
	p.mu.Unlock()

	if len(replies) > 0 {
		if err := p.mgr.Write(p.id, replies); err != nil {
			p.logger.Debug("write terminal replies", "err", err)
		}
	}
	if p.onOutput != nil {
		p.onOutput(data)
	}
	return len(data), nil
}

// Drained reports whether the session's output has ended and every byte of
// it has been applied to the screen.
func (p *Pane) Drained() bool {
	return p.drained.Load()
}

// Exited polls the child and reports its exit code, or nil while it runs.
func (p *Pane) Exited() (*int, error) {
	p.mu.RLock()
	code := p.exitCode
	p.mu.RUnlock()
	if code != nil {
		return code, nil
	}
	if p.closed.Load() {
		return nil, ErrClosed
	}

	code, err := p.mgr.CheckStatus(p.id)
	if err != nil || code == nil {
		return nil, err
	}

	p.mu.Lock()
	p.exitCode = code
	p.mu.Unlock()
	return code, nil
}

// Run pumps output every interval until ctx is done or the child exits.
// After the child exits Run keeps pumping until the output is drained or
// the drain timeout passes. Run returns nil on exit and ctx.Err() on
// cancellation.
func (p *Pane) Run(ctx context.Context, interval time.Duration) error {
	return p.loop(ctx, interval, 0)
}

// Settle pumps like Run but also returns nil once no output has arrived
// for quiet.
func (p *Pane) Settle(ctx context.Context, interval, quiet time.Duration) error {
	return p.loop(ctx, interval, quiet)
}

func (p *Pane) loop(ctx context.Context, interval, quiet time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastOutput := time.Now()
	for {
		n, err := p.Pump()
		if err != nil {
			return err
		}
		if n > 0 {
			lastOutput = time.Now()
		} else {
			code, err := p.Exited()
			if err != nil {
				return err
			}
			if code != nil {
				p.logger.Debug("shell exited", "code", *code)
				return p.drain(ctx, interval)
			}
			if quiet > 0 && time.Since(lastOutput) >= quiet {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// drain pumps until the output ends. A process that inherited the terminal
// and outlives the shell can hold it open, so the wait is bounded.
func (p *Pane) drain(ctx context.Context, interval time.Duration) error {
	timer := time.NewTimer(p.drainTimeout)
	defer timer.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.Pump(); err != nil {
			return err
		}
		if p.Drained() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			p.logger.Warn("output did not end after shell exit", "timeout", p.drainTimeout)
			return nil
		case <-ticker.C:
		}
	}
}

// Resize resizes the PTY and then the screen.
func (p *Pane) Resize(rows, cols uint16) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if err := p.mgr.Resize(p.id, rows, cols); err != nil {
		return fmt.Errorf("resize pane: %w", err)
	}

	p.mu.Lock()
	p.screen.Resize(int(rows), int(cols))
	p.mu.Unlock()
	return nil
}

// View calls fn with the screen under a read lock. fn must not retain the
// screen or call methods that modify it.
func (p *Pane) View(fn func(s *terminal.Screen)) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	fn(p.screen)
}

// Snapshot returns a copy of the visible screen state.
func (p *Pane) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return takeSnapshot(p.screen)
}

// Close closes the session. It is safe to call more than once.
func (p *Pane) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.mgr.Close(p.id)
}
