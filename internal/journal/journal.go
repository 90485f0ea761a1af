package journal

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/fakeyudi/tabletalk/internal/session"
	"github.com/fakeyudi/tabletalk/internal/summary"
)

// Journal is an Archive loaded from a DirStore, with each meal tied back to
// the file it came from so edits and deletions can be written through.
type Journal struct {
	*Archive

	store   *DirStore
	entries map[string]Entry // by meal ID
}

// Load reads every meal in the store into a new Archive.
func Load(store *DirStore) (*Journal, []string, error) {
	entries, warnings, err := store.List()
	if err != nil {
		return nil, nil, err
	}
	j := &Journal{
		Archive: NewArchive(),
		store:   store,
		entries: make(map[string]Entry, len(entries)),
	}
	for _, e := range entries {
		s := e.Summary.Session()
		j.Archive.Add(s)
		j.entries[s.ID] = e
	}
	return j, warnings, nil
}

// Summary returns the stored summary header for a meal.
func (j *Journal) Summary(s *session.Session) (*summary.MealSummary, bool) {
	e, ok := j.entries[s.ID]
	if !ok {
		return nil, false
	}
	return e.Summary, true
}

// Path returns the file a meal was loaded from.
func (j *Journal) Path(s *session.Session) (string, bool) {
	e, ok := j.entries[s.ID]
	return e.Path, ok
}

// Save writes the current state of an archived meal back to its file.
func (j *Journal) Save(s *session.Session) error {
	e, ok := j.entries[s.ID]
	if !ok {
		return fmt.Errorf("meal %s has no journal file", s.ID)
	}
	updated := summary.FromSession(s, e.Summary.Companion, e.Summary.Author)
	if _, err := j.store.Update(e.Path, updated); err != nil {
		return err
	}
	e.Summary = updated
	j.entries[s.ID] = e
	return nil
}

// Remove deletes meals by display index from both the directory and the
// archive. Every index is checked before anything is deleted. A meal whose
// file cannot be deleted stays in the archive; the delete errors are
// combined and returned along with the meals that were removed.
func (j *Journal) Remove(indices ...int) ([]*session.Session, error) {
	targets := make([]*session.Session, 0, len(indices))
	for _, i := range indices {
		s, err := j.At(i)
		if err != nil {
			return nil, err
		}
		targets = append(targets, s)
	}

	var errs error
	deleted := make(map[string]bool, len(targets))
	for _, s := range targets {
		if deleted[s.ID] {
			continue
		}
		if e, ok := j.entries[s.ID]; ok {
			if err := j.store.Delete(e.Path); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			delete(j.entries, s.ID)
		}
		deleted[s.ID] = true
	}

	var keep []int
	for n, i := range indices {
		if deleted[targets[n].ID] {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil, errs
	}
	removed, err := j.Archive.RemoveAt(keep...)
	if err != nil {
		return nil, multierr.Append(errs, err)
	}
	return removed, errs
}
