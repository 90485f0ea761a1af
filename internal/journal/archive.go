// Package journal keeps the meals a user has finished: an in-memory archive
// plus an optional directory of rendered meal summaries.
package journal

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/fakeyudi/tabletalk/internal/session"
)

// ErrIndexOutOfRange is returned when a removal names a position that does
// not exist.
var ErrIndexOutOfRange = errors.New("journal index out of range")

// Archive is the ordered collection of ended meals, oldest first.
type Archive struct {
	mu    sync.RWMutex
	meals []*session.Session
}

// NewArchive returns an archive holding meals in the given order.
func NewArchive(meals ...*session.Session) *Archive {
	return &Archive{meals: slices.Clone(meals)}
}

// Add appends s at the end of the archive.
func (a *Archive) Add(s *session.Session) {
	a.mu.Lock()
	a.meals = append(a.meals, s)
	a.mu.Unlock()
}

// All returns the archived meals in order. The slice is a copy; the sessions
// are shared so notes and food items can still be edited.
func (a *Archive) All() []*session.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.meals)
}

func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.meals)
}

// At returns the meal at index i.
func (a *Archive) At(i int) (*session.Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if i < 0 || i >= len(a.meals) {
		return nil, fmt.Errorf("%w: %d (journal has %d meals)", ErrIndexOutOfRange, i, len(a.meals))
	}
	return a.meals[i], nil
}

// RemoveAt deletes the meals at the given positions, all of which refer to
// the order before the call. Duplicate indices are ignored. If any index is
// out of range nothing is removed. The removed meals are returned in archive
// order.
func (a *Archive) RemoveAt(indices ...int) ([]*session.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	idx := slices.Clone(indices)
	slices.Sort(idx)
	idx = slices.Compact(idx)
	for _, i := range idx {
		if i < 0 || i >= len(a.meals) {
			return nil, fmt.Errorf("%w: %d (journal has %d meals)", ErrIndexOutOfRange, i, len(a.meals))
		}
	}

	removed := make([]*session.Session, len(idx))
	for k := len(idx) - 1; k >= 0; k-- {
		i := idx[k]
		removed[k] = a.meals[i]
		a.meals = slices.Delete(a.meals, i, i+1)
	}
	return removed, nil
}
