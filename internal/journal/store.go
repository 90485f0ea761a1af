package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fakeyudi/tabletalk/internal/summary"
)

const shortIDLen = 8

// Entry is one meal summary file in the journal directory.
type Entry struct {
	Path    string
	Summary *summary.MealSummary
}

// DirStore keeps rendered meal summaries in a directory, one file per meal.
type DirStore struct {
	dir string
}

// NewDirStore returns a store rooted at dir, creating it if needed.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (d *DirStore) Dir() string { return d.dir }

// DefaultDir returns $XDG_DATA_HOME/tabletalk/journal or
// ~/.local/share/tabletalk/journal.
func DefaultDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "tabletalk", "journal"), nil
}

// FileName returns the file name used for a meal. The start time keeps
// names sortable; the ID prefix keeps meals started in the same second apart.
func FileName(start time.Time, id string, r summary.Renderer) string {
	id = strings.Map(func(c rune) rune {
		if c == '/' || c == '\\' || c == os.PathSeparator {
			return -1
		}
		return c
	}, id)
	if len(id) > shortIDLen {
		id = id[:shortIDLen]
	}
	name := "meal-" + start.UTC().Format("20060102T150405Z")
	if id != "" {
		name += "-" + id
	}
	return name + r.Ext()
}

// Save renders s and writes it atomically via a temp file + os.Rename.
// It returns the path written.
func (d *DirStore) Save(s *summary.MealSummary, r summary.Renderer) (string, error) {
	return d.write(filepath.Join(d.dir, FileName(s.Meal.StartTime, s.Meal.ID, r)), s, r)
}

// Update re-renders s into an existing path, keeping its format.
func (d *DirStore) Update(path string, s *summary.MealSummary) (string, error) {
	var r summary.Renderer = &summary.MarkdownRenderer{}
	if _, ok := summary.ParserFor(path).(*summary.JSONParser); ok {
		r = &summary.JSONRenderer{}
	}
	return d.write(path, s, r)
}

func (d *DirStore) write(path string, s *summary.MealSummary, r summary.Renderer) (_ string, err error) {
	data, err := r.Render(s)
	if err != nil {
		return "", fmt.Errorf("failed to render meal summary: %w", err)
	}

	// Write to a temp file in the same directory so os.Rename is atomic.
	tmp, err := os.CreateTemp(filepath.Dir(path), "meal-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to write meal summary: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write meal summary: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write meal summary: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("failed to write meal summary: %w", err)
	}
	return path, nil
}

// List parses every meal file in the directory and returns them ordered by
// meal start time. Files that fail to parse are skipped and reported in
// the warnings slice.
func (d *DirStore) List() ([]Entry, []string, error) {
	dirEntries, err := os.ReadDir(d.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to read journal directory: %w", err)
	}

	var entries []Entry
	var warnings []string
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasPrefix(name, "meal-") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".md" && ext != ".json" {
			continue
		}
		path := filepath.Join(d.dir, name)
		s, err := Read(path)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipping %s: %v", name, err))
			continue
		}
		entries = append(entries, Entry{Path: path, Summary: s})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Summary.Meal.StartTime.Before(entries[j].Summary.Meal.StartTime)
	})
	return entries, warnings, nil
}

// Delete removes a meal file. A missing file is not an error.
func (d *DirStore) Delete(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete meal summary: %w", err)
	}
	return nil
}

// Read parses a single meal summary file.
func Read(path string) (*summary.MealSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, err
	}
	return summary.ParserFor(path).Parse(data)
}
