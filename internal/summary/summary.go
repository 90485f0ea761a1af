// Package summary renders finished meals into shareable journal documents
// and parses them back.
package summary

import (
	"fmt"
	"time"

	"github.com/fakeyudi/tabletalk/internal/session"
)

// HighlightCount is how many messages the "Conversation Highlights" section shows.
const HighlightCount = 5

// MealSummary is the complete, renderable representation of one meal.
type MealSummary struct {
	Meal      session.Snapshot `json:"meal"`
	Companion string           `json:"companion"`
	Author    string           `json:"author,omitempty"`
	Duration  string           `json:"duration"` // human-readable, e.g. "1 hr 5 min"
}

// FromSession builds a summary of s as seen by the named companion.
func FromSession(s *session.Session, companion, author string) *MealSummary {
	return &MealSummary{
		Meal:      s.Snapshot(),
		Companion: companion,
		Author:    author,
		Duration:  FormatDuration(s.Duration()),
	}
}

// Session rebuilds the meal the summary describes.
func (m *MealSummary) Session() *session.Session {
	return session.Restore(m.Meal)
}

// Highlights returns at most HighlightCount messages from the start of the
// conversation and how many were left out.
func (m *MealSummary) Highlights() ([]session.Message, int) {
	msgs := m.Meal.Messages
	if len(msgs) <= HighlightCount {
		return msgs, 0
	}
	return msgs[:HighlightCount], len(msgs) - HighlightCount
}

// FormatDuration renders d as "N min" below an hour and "H hr M min" above.
func FormatDuration(d time.Duration) string {
	minutes := int(d / time.Minute)
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%d hr %d min", minutes/60, minutes%60)
}

// FormatDate renders a meal timestamp for display.
func FormatDate(t time.Time) string {
	return t.Format("Jan 2, 2006 at 3:04 PM")
}
