// Package companion holds the fixed catalog of scripted meal companions and
// the process-wide selection of which one is talking.
package companion

import (
	"fmt"
	"strings"
	"sync"
)

// Companion is a selectable scripted persona.
type Companion struct {
	Name        string `json:"name"`
	VoiceHandle string `json:"voice_handle"` // opaque synthesis voice identifier
	Greeting    string `json:"greeting"`
}

var catalog = []Companion{
	{
		Name:        "Sam",
		VoiceHandle: "com.apple.voice.compact.en-US.Samantha",
		Greeting:    "Hello! I'm Sam, your TableTalk companion. What are you having today?",
	},
	{
		Name:        "Alex",
		VoiceHandle: "com.apple.voice.compact.en-US.Alex",
		Greeting:    "Hi there! I'm Alex. Ready to enjoy your meal together?",
	},
	{
		Name:        "Jamie",
		VoiceHandle: "com.apple.voice.compact.en-GB.Daniel",
		Greeting:    "Lovely to meet you! I'm Jamie. What delicious food are we enjoying today?",
	},
}

// VoiceName returns the short voice name at the end of the handle, e.g.
// "Samantha" for "com.apple.voice.compact.en-US.Samantha". Speech commands
// such as `say -v` and `espeak -v` expect this form.
func (c Companion) VoiceName() string {
	if i := strings.LastIndexByte(c.VoiceHandle, '.'); i >= 0 {
		return c.VoiceHandle[i+1:]
	}
	return c.VoiceHandle
}

// Catalog returns a copy of every available companion in catalog order.
func Catalog() []Companion {
	out := make([]Companion, len(catalog))
	copy(out, catalog)
	return out
}

// Default returns the companion selected when nothing else has been chosen.
func Default() Companion {
	return catalog[0]
}

// Lookup finds a companion by name, ignoring case.
func Lookup(name string) (Companion, int, bool) {
	name = strings.TrimSpace(name)
	for i, c := range catalog {
		if strings.EqualFold(c.Name, name) {
			return c, i, true
		}
	}
	return Companion{}, -1, false
}

// Selection tracks the currently selected companion. The zero value selects
// the default companion.
type Selection struct {
	mu    sync.RWMutex
	index int
}

// Current returns the selected companion.
func (s *Selection) Current() Companion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return catalog[s.index]
}

// Select chooses the companion at index in the catalog.
func (s *Selection) Select(index int) error {
	if index < 0 || index >= len(catalog) {
		return fmt.Errorf("companion index %d out of range [0, %d)", index, len(catalog))
	}
	s.mu.Lock()
	s.index = index
	s.mu.Unlock()
	return nil
}

// SelectByName chooses the companion with the given name.
func (s *Selection) SelectByName(name string) error {
	_, idx, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("unknown companion %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return s.Select(idx)
}

// Names lists the catalog's companion names.
func Names() []string {
	names := make([]string, len(catalog))
	for i, c := range catalog {
		names[i] = c.Name
	}
	return names
}
