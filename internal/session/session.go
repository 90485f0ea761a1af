package session

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrAlreadyEnded is returned by Terminate when the end time is already set.
	ErrAlreadyEnded = errors.New("meal already ended")
	// ErrInvalidRating is returned by SetRating for values outside 0..MaxRating.
	ErrInvalidRating = errors.New("rating must be from 1 to 5, or 0 to clear it")
)

// MaxRating is the highest mindfulness rating a meal can receive.
const MaxRating = 5

// Session is one tracked meal: its transcript, notes and food tags.
// StartTime and the log's contents up to termination are never rewritten;
// notes, food items and the rating stay editable after the meal ends.
type Session struct {
	ID        string
	StartTime time.Time

	mu        sync.Mutex
	endTime   *time.Time
	notes     string
	foodItems []string
	rating    int

	log Log
}

// New creates an open session starting at start.
func New(start time.Time) *Session {
	return &Session{
		ID:        uuid.New().String(),
		StartTime: start,
		foodItems: []string{},
	}
}

// Log returns the session's message log.
func (s *Session) Log() *Log {
	return &s.log
}

// EndTime returns the end time and whether the session has ended.
func (s *Session) EndTime() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endTime == nil {
		return time.Time{}, false
	}
	return *s.endTime, true
}

// Ended reports whether the session has been terminated.
func (s *Session) Ended() bool {
	_, ok := s.EndTime()
	return ok
}

// Terminate sets the end time exactly once. An end before the start is
// clamped to the start so durations are never negative.
func (s *Session) Terminate(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endTime != nil {
		return ErrAlreadyEnded
	}
	if now.Before(s.StartTime) {
		now = s.StartTime
	}
	s.endTime = &now
	return nil
}

// Duration returns the elapsed time between start and end, or zero while the
// session is still open.
func (s *Session) Duration() time.Duration {
	end, ok := s.EndTime()
	if !ok {
		return 0
	}
	return end.Sub(s.StartTime)
}

func (s *Session) Notes() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notes
}

func (s *Session) SetNotes(notes string) {
	s.mu.Lock()
	s.notes = notes
	s.mu.Unlock()
}

// FoodItems returns a copy of the food tags in insertion order.
func (s *Session) FoodItems() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.foodItems)
}

// AddFoodItem appends item after trimming whitespace. Empty items and exact
// duplicates are ignored; the return value reports whether anything changed.
func (s *Session) AddFoodItem(item string) bool {
	item = strings.TrimSpace(item)
	if item == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.foodItems, item) {
		return false
	}
	s.foodItems = append(s.foodItems, item)
	return true
}

// RemoveFoodItem deletes the first entry equal to item.
func (s *Session) RemoveFoodItem(item string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.foodItems, item)
	if i < 0 {
		return false
	}
	s.foodItems = slices.Delete(s.foodItems, i, i+1)
	return true
}

// Rating returns the mindfulness rating, 0 when unrated.
func (s *Session) Rating() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rating
}

// SetRating records how present the user was during the meal (1-5).
// Zero clears the rating.
func (s *Session) SetRating(r int) error {
	if r < 0 || r > MaxRating {
		return ErrInvalidRating
	}
	s.mu.Lock()
	s.rating = r
	s.mu.Unlock()
	return nil
}

// Snapshot is the serializable form of a Session.
type Snapshot struct {
	ID        string     `json:"id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Notes     string     `json:"notes"`
	FoodItems []string   `json:"food_items"`
	Rating    int        `json:"rating,omitempty"`
	Messages  []Message  `json:"messages"`
}

// Snapshot copies the session's current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		ID:        s.ID,
		StartTime: s.StartTime,
		Notes:     s.notes,
		FoodItems: slices.Clone(s.foodItems),
		Rating:    s.rating,
	}
	if s.endTime != nil {
		end := *s.endTime
		snap.EndTime = &end
	}
	s.mu.Unlock()
	snap.Messages = s.log.All()
	return snap
}

// Restore rebuilds a Session from a snapshot, e.g. one read back from the
// journal directory. An out-of-range rating is dropped.
func Restore(snap Snapshot) *Session {
	s := &Session{
		ID:        snap.ID,
		StartTime: snap.StartTime,
		notes:     snap.Notes,
		foodItems: []string{},
	}
	if snap.Rating > 0 && snap.Rating <= MaxRating {
		s.rating = snap.Rating
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	for _, item := range snap.FoodItems {
		s.AddFoodItem(item)
	}
	if snap.EndTime != nil {
		end := *snap.EndTime
		s.endTime = &end
	}
	s.log.messages = slices.Clone(snap.Messages)
	return s
}
