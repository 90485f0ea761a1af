// Package settings manages the user's persistent TableTalk settings.
// They are stored at ~/.config/tabletalk/settings.json, created once via the
// interactive setup flow and editable later with `tabletalk settings`.
package settings

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultReminderTime is the reminder time offered when none is set.
const DefaultReminderTime = "12:00"

// ErrInvalidTime is returned for reminder times not in 24-hour HH:MM form.
var ErrInvalidTime = errors.New("reminder time must be HH:MM")

// Settings holds user-level preferences.
type Settings struct {
	Name            string `json:"name"`
	ReminderEnabled bool   `json:"reminder_enabled"`
	ReminderTime    string `json:"reminder_time"` // "HH:MM", 24-hour
}

// Defaults returns the settings used before the user has run setup.
func Defaults() Settings {
	return Settings{ReminderTime: DefaultReminderTime}
}

// Validate checks the reminder time.
func (s Settings) Validate() error {
	if _, err := ParseReminderTime(s.ReminderTime); err != nil {
		return err
	}
	return nil
}

// ParseReminderTime parses "HH:MM" into hours and minutes past midnight.
func ParseReminderTime(v string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, v)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// NextReminder returns the next occurrence of the reminder time after now,
// in now's location. ok is false when reminders are disabled or the time is
// invalid.
func (s Settings) NextReminder(now time.Time) (next time.Time, ok bool) {
	if !s.ReminderEnabled {
		return time.Time{}, false
	}
	offset, err := ParseReminderTime(s.ReminderTime)
	if err != nil {
		return time.Time{}, false
	}
	y, m, d := now.Date()
	next = time.Date(y, m, d, 0, 0, 0, 0, now.Location()).Add(offset)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next, true
}

// Path returns the path to the settings file.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tabletalk", "settings.json"), nil
}

// Exists reports whether a settings file is present on disk.
func Exists() bool {
	p, err := Path()
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Load reads the settings from disk. A missing file yields Defaults.
func Load() (*Settings, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}
	return loadFile(p)
}

func loadFile(p string) (*Settings, error) {
	s := Defaults()
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("malformed settings at %s: %w", p, err)
	}
	if s.ReminderTime == "" {
		s.ReminderTime = DefaultReminderTime
	}
	return &s, nil
}

// Save writes the settings to disk, creating the config directory if needed.
func Save(s *Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	p, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// RunSetup runs the interactive settings wizard, reading answers from in and
// writing prompts to out. If existing is non-nil, its values are offered as
// defaults (edit mode). The result is not saved.
func RunSetup(existing *Settings, in io.Reader, out io.Writer) (*Settings, error) {
	r := bufio.NewReader(in)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askBool := func(prompt string, defaultVal bool) (bool, error) {
		def := "n"
		if defaultVal {
			def = "y"
		}
		ans, err := ask(prompt+" (y/n)", def)
		if err != nil {
			return false, err
		}
		ans = strings.ToLower(ans)
		return ans == "y" || ans == "yes", nil
	}

	s := Defaults()
	if existing != nil {
		s = *existing
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(out, "  │   tabletalk · settings          │")
	fmt.Fprintln(out, "  └─────────────────────────────────┘")
	fmt.Fprintln(out)

	var err error
	s.Name, err = ask("  Your name (shown in the journal)", s.Name)
	if err != nil {
		return nil, err
	}

	s.ReminderEnabled, err = askBool("  Remind me to eat mindfully", s.ReminderEnabled)
	if err != nil {
		return nil, err
	}

	if s.ReminderEnabled {
		for {
			v, err := ask("  Reminder time (HH:MM)", s.ReminderTime)
			if err != nil {
				return nil, err
			}
			if _, perr := ParseReminderTime(v); perr != nil {
				fmt.Fprintln(out, "  Please enter a time like 12:30.")
				continue
			}
			s.ReminderTime = strings.TrimSpace(v)
			break
		}
	}

	fmt.Fprintln(out)
	return &s, nil
}

// Watch reloads the settings file whenever it changes and passes the new
// value to onChange. It blocks until ctx is cancelled. The config directory
// is watched rather than the file so that editors which replace the file are
// still seen.
func Watch(ctx context.Context, logger *zap.Logger, onChange func(*Settings)) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	p, err := Path()
	if err != nil {
		return err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != p {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			s, err := loadFile(p)
			if err != nil {
				// Partially written file; the next write event will retry.
				logger.Debug("settings reload failed", zap.Error(err))
				continue
			}
			onChange(s)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("settings watcher error", zap.Error(err))
		}
	}
}
