// Package session models a single meal and the transcript recorded during it.
package session

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Speaker attributes a message to one side of the conversation.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerCompanion Speaker = "companion"
)

// Label is the display name used in summaries.
func (s Speaker) Label() string {
	if s == SpeakerUser {
		return "You"
	}
	return "Companion"
}

// Message is one immutable transcript entry.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Speaker   Speaker   `json:"speaker"`
	Timestamp time.Time `json:"timestamp"`
}

// Log is the append-only, ordered transcript of a session.
type Log struct {
	mu       sync.Mutex
	messages []Message
}

// Append records a message at the end of the log. It never fails.
func (l *Log) Append(speaker Speaker, text string, now time.Time) Message {
	m := Message{
		ID:        uuid.New().String(),
		Text:      text,
		Speaker:   speaker,
		Timestamp: now,
	}
	l.mu.Lock()
	l.messages = append(l.messages, m)
	l.mu.Unlock()
	return m
}

// All returns the messages in creation order.
func (l *Log) All() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.messages)
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}
