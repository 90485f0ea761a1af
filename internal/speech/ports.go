// Package speech defines the speech-to-text and text-to-speech capabilities
// the companion uses, and the core-side buffering of recognition results.
package speech

import (
	"context"
	"errors"
)

// ErrCapabilityUnavailable is returned when recognition or synthesis cannot
// be used: no device, no backend, or the user refused authorization.
var ErrCapabilityUnavailable = errors.New("speech capability unavailable")

// Authorization is the outcome of the one-time permission request.
type Authorization int

const (
	AuthRestricted Authorization = iota // restricted or not yet determined
	AuthDenied
	AuthGranted
)

func (a Authorization) String() string {
	switch a {
	case AuthGranted:
		return "granted"
	case AuthDenied:
		return "denied"
	default:
		return "restricted"
	}
}

// Advisory is the user-facing explanation for a non-granted authorization.
func (a Authorization) Advisory() string {
	switch a {
	case AuthGranted:
		return ""
	case AuthDenied:
		return "Speech recognition access denied by user."
	default:
		return "Speech recognition not available on this device."
	}
}

// TranscriptKind tags whether a recognition result may still change.
type TranscriptKind string

const (
	TranscriptPartial TranscriptKind = "partial"
	TranscriptFinal   TranscriptKind = "final"
)

// Transcript is one recognition result.
type Transcript struct {
	Kind TranscriptKind
	Text string
}

// Stream is an active recognition turn. Results and Errors are closed by the
// implementation when the stream finishes.
type Stream interface {
	Results() <-chan Transcript
	Errors() <-chan error
	Stop() error
}

// Recognizer converts speech to text.
type Recognizer interface {
	Authorize(ctx context.Context) Authorization
	Listen(ctx context.Context) (Stream, error)
}

// Utterance identifies something the synthesizer was asked to say.
type Utterance struct {
	Text  string
	Voice string
}

// Synthesizer speaks text aloud. Speak returns immediately; Finished
// delivers each utterance once it has been spoken or cancelled.
type Synthesizer interface {
	Speak(text, voice string) error
	StopSpeaking() error
	Finished() <-chan Utterance
}

// Unavailable is a Recognizer for environments without a microphone backend.
type Unavailable struct{}

func (Unavailable) Authorize(context.Context) Authorization { return AuthRestricted }

func (Unavailable) Listen(context.Context) (Stream, error) {
	return nil, ErrCapabilityUnavailable
}
