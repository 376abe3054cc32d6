package integration

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dshills/termengine/internal/logx"
)

// Event is a published lifecycle event.
type Event struct {
	Type string
	Data map[string]any
}

// Handler receives events.
type Handler func(Event)

// Bus delivers session lifecycle events to subscribers. It implements
// pty.EventPublisher.
//
// Patterns are matched as:
//   - "*" matches every event
//   - "pty.*" matches "pty.created", "pty.closed" and deeper names
//   - anything else matches exactly
//
// Handlers run synchronously on the publishing goroutine, in subscription
// order. The pty manager publishes from its worker, so a handler must not
// call back into the manager.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]subscription
	nextID uint64
	closed bool

	logger *log.Logger
}

type subscription struct {
	pattern string
	handler Handler
}

// NewBus creates an event bus. A nil logger discards handler panics.
func NewBus(logger *log.Logger) *Bus {
	if logger == nil {
		logger = logx.Discard()
	}
	return &Bus{
		subs:   make(map[uint64]subscription),
		logger: logger,
	}
}

// Subscribe registers handler for events matching pattern and returns a
// function that removes it. Subscribing to a closed bus does nothing.
func (b *Bus) Subscribe(pattern string, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	b.nextID++
	id := b.nextID
	b.subs[id] = subscription{pattern: pattern, handler: handler}

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers an event to every matching subscriber. A panicking
// handler is logged and does not stop delivery to the others.
func (b *Bus) Publish(eventType string, data map[string]any) {
	ev := Event{Type: eventType, Data: data}
	for _, h := range b.matching(eventType) {
		b.deliver(h, ev)
	}
}

func (b *Bus) deliver(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("event handler panicked", "event", ev.Type, "panic", r)
		}
	}()
	h(ev)
}

func (b *Bus) matching(eventType string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil
	}

	var out []Handler
	for _, id := range slices.Sorted(maps.Keys(b.subs)) {
		if s := b.subs[id]; Match(s.pattern, eventType) {
			out = append(out, s.handler)
		}
	}
	return out
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close drops every subscription. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	clear(b.subs)
}

// Match reports whether eventType matches pattern.
func Match(pattern, eventType string) bool {
	if pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, ".*"); ok {
		rest, found := strings.CutPrefix(eventType, prefix+".")
		return found && rest != ""
	}
	return pattern == eventType
}
