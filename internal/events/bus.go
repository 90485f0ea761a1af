// Package events decouples producers of lifecycle events from the views and
// exporters that react to them.
package events

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/fakeyudi/tabletalk/internal/session"
)

// SessionEnded is published after a meal has been terminated and archived.
type SessionEnded struct {
	Session *session.Session
}

// Handler reacts to an event. A returned error is reported to the publisher
// but does not stop delivery to other handlers.
type Handler[E any] func(E) error

// Subscription identifies a registered handler.
type Subscription struct {
	id uint64
}

type subscriber[E any] struct {
	id      uint64
	handler Handler[E]
}

// Bus delivers events of one type synchronously, in subscription order.
type Bus[E any] struct {
	logger *zap.Logger

	mu     sync.Mutex
	nextID uint64
	subs   []subscriber[E]
}

// NewBus creates an empty bus. A nil logger discards failure logs.
func NewBus[E any](logger *zap.Logger) *Bus[E] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus[E]{logger: logger}
}

// Subscribe registers h and returns a handle for Unsubscribe.
func (b *Bus[E]) Subscribe(h Handler[E]) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subs = append(b.subs, subscriber[E]{id: b.nextID, handler: h})
	return Subscription{id: b.nextID}
}

// Unsubscribe removes the handler. It reports whether it was registered.
func (b *Bus[E]) Unsubscribe(s Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub.id == s.id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of registered handlers.
func (b *Bus[E]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Publish delivers e to every handler registered when Publish was called.
// Handlers run outside the bus lock so they may subscribe or unsubscribe.
// Errors and panics are collected and returned together.
func (b *Bus[E]) Publish(e E) error {
	b.mu.Lock()
	subs := make([]subscriber[E], len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	var errs error
	for _, sub := range subs {
		if err := deliver(sub.handler, e); err != nil {
			b.logger.Warn("event handler failed",
				zap.Uint64("subscription", sub.id),
				zap.String("event", fmt.Sprintf("%T", e)),
				zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func deliver[E any](h Handler[E], e E) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event handler panicked: %v", r)
		}
	}()
	return h(e)
}
