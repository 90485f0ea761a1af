package speech

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Listener buffers the final transcripts of one listening turn until the
// caller stops listening. Results that arrive after Stop, or that belong to
// an earlier turn, are dropped.
type Listener struct {
	rec    Recognizer
	logger *zap.Logger

	mu         sync.Mutex
	authorized bool
	turn       uint64
	stream     Stream
	finals     []string
	partial    string
	lastErr    error
}

// NewListener wraps a recognizer.
func NewListener(rec Recognizer, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{rec: rec, logger: logger}
}

// Start begins a listening turn. It asks for authorization the first time
// and returns ErrCapabilityUnavailable if recognition cannot be used.
// Starting while already listening is a no-op.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stream != nil {
		return nil
	}
	if !l.authorized {
		auth := l.rec.Authorize(ctx)
		if auth != AuthGranted {
			return fmt.Errorf("%w: %s", ErrCapabilityUnavailable, auth.Advisory())
		}
		l.authorized = true
	}

	stream, err := l.rec.Listen(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCapabilityUnavailable, err)
	}
	l.turn++
	l.stream = stream
	l.finals = nil
	l.partial = ""
	l.lastErr = nil
	go l.consume(l.turn, stream)
	l.logger.Debug("listening started", zap.Uint64("turn", l.turn))
	return nil
}

// Listening reports whether a turn is in progress.
func (l *Listener) Listening() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stream != nil
}

// Partial returns the latest in-flight transcript of the current turn, for
// live display only.
func (l *Listener) Partial() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.partial
}

// Stop ends the current turn immediately and returns the finalized text.
// Partial results not yet finalized are discarded.
func (l *Listener) Stop() (string, error) {
	l.mu.Lock()
	stream := l.stream
	if stream == nil {
		l.mu.Unlock()
		return "", nil
	}
	text := strings.TrimSpace(strings.Join(l.finals, " "))
	lastErr := l.lastErr
	l.stream = nil
	l.finals = nil
	l.partial = ""
	l.turn++
	l.mu.Unlock()

	if err := stream.Stop(); err != nil {
		l.logger.Warn("stopping recognition stream", zap.Error(err))
	}
	return text, lastErr
}

func (l *Listener) consume(turn uint64, stream Stream) {
	results, errs := stream.Results(), stream.Errors()
	for results != nil || errs != nil {
		select {
		case t, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			l.accept(turn, t)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			l.fail(turn, err)
		}
	}
}

func (l *Listener) accept(turn uint64, t Transcript) {
	text := strings.TrimSpace(t.Text)
	l.mu.Lock()
	defer l.mu.Unlock()
	if turn != l.turn || text == "" {
		return
	}
	if t.Kind == TranscriptFinal {
		l.finals = append(l.finals, text)
		l.partial = ""
		return
	}
	l.partial = text
}

func (l *Listener) fail(turn uint64, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if turn != l.turn {
		return
	}
	l.lastErr = err
	l.logger.Warn("recognition error", zap.Uint64("turn", turn), zap.Error(err))
}
