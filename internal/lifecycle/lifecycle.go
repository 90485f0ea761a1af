// Package lifecycle owns the single active meal: starting it, recording the
// conversation into it, and archiving it when it ends.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fakeyudi/tabletalk/internal/companion"
	"github.com/fakeyudi/tabletalk/internal/events"
	"github.com/fakeyudi/tabletalk/internal/journal"
	"github.com/fakeyudi/tabletalk/internal/session"
)

// ErrInvalidState is returned when a transition is attempted from the wrong
// state: starting while a meal is active or ending while idle.
var ErrInvalidState = errors.New("invalid meal state")

// State is the lifecycle's position in its two-state machine.
type State int

const (
	Idle State = iota
	InSession
)

func (s State) String() string {
	if s == InSession {
		return "in session"
	}
	return "idle"
}

// Manager is the application context for meals. It is constructed once by
// the top-level controller and passed to whatever needs it.
type Manager struct {
	archive    *journal.Archive
	bus        *events.Bus[events.SessionEnded]
	companions *companion.Selection
	logger     *zap.Logger

	mu     sync.Mutex
	active *session.Session
}

// NewManager wires a manager to its archive and event bus. Nil arguments get
// fresh empty defaults.
func NewManager(archive *journal.Archive, bus *events.Bus[events.SessionEnded], logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if archive == nil {
		archive = journal.NewArchive()
	}
	if bus == nil {
		bus = events.NewBus[events.SessionEnded](logger)
	}
	return &Manager{
		archive:    archive,
		bus:        bus,
		companions: &companion.Selection{},
		logger:     logger,
	}
}

// Start opens a new meal at now.
func (m *Manager) Start(now time.Time) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		return nil, fmt.Errorf("%w: meal already in progress (started at %s)",
			ErrInvalidState, m.active.StartTime.Format(time.RFC3339))
	}
	s := session.New(now)
	m.active = s
	m.logger.Info("meal started", zap.String("meal", s.ID), zap.Time("start", now))
	return s, nil
}

// End terminates the active meal, archives it and publishes SessionEnded.
// Subscriber failures are logged and do not undo the transition.
func (m *Manager) End(now time.Time) (*session.Session, error) {
	m.mu.Lock()
	s := m.active
	if s == nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: no active meal", ErrInvalidState)
	}
	if err := s.Terminate(now); err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	m.archive.Add(s)
	m.active = nil
	m.mu.Unlock()

	m.logger.Info("meal ended",
		zap.String("meal", s.ID),
		zap.Duration("duration", s.Duration()),
		zap.Int("messages", s.Log().Len()))

	if err := m.bus.Publish(events.SessionEnded{Session: s}); err != nil {
		m.logger.Warn("meal ended subscribers reported errors", zap.String("meal", s.ID), zap.Error(err))
	}
	return s, nil
}

// RecordExchange appends a message to s. Any session the caller holds is
// accepted, including one that has already been archived. Empty or
// whitespace-only text is ignored and reported as false.
func (m *Manager) RecordExchange(s *session.Session, speaker session.Speaker, text string, now time.Time) (session.Message, bool) {
	if s == nil || strings.TrimSpace(text) == "" {
		return session.Message{}, false
	}
	msg := s.Log().Append(speaker, text, now)
	if s.Ended() {
		m.logger.Debug("message recorded on ended meal", zap.String("meal", s.ID))
	}
	return msg, true
}

// State reports whether a meal is in progress.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		return InSession
	}
	return Idle
}

// Active returns the meal in progress, if any.
func (m *Manager) Active() (*session.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active, m.active != nil
}

// Archive returns the collection ended meals are appended to.
func (m *Manager) Archive() *journal.Archive { return m.archive }

// Events returns the bus SessionEnded is published on.
func (m *Manager) Events() *events.Bus[events.SessionEnded] { return m.bus }

// Companions returns the companion selection shared by the application.
func (m *Manager) Companions() *companion.Selection { return m.companions }
