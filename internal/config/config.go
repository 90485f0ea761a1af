package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds all configurable TableTalk settings.
type Config struct {
	Companion      string `json:"companion"`       // companion name, e.g. "Alex"
	DefaultFormat  string `json:"default_format"`  // "markdown" | "json"
	JournalDir     string `json:"journal_dir"`     // override $XDG_DATA_HOME/tabletalk/journal
	PhrasebookPath string `json:"phrasebook_path"` // YAML phrase overrides
	SpeechCommand  string `json:"speech_command"`  // e.g. "say -v {voice}"
	LogFile        string `json:"log_file"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		Companion:     "Sam",
		DefaultFormat: "markdown",
	}
}

// Dir returns ~/.config/tabletalk.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tabletalk"), nil
}

// LoadGlobal reads ~/.config/tabletalk/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return loadFile(filepath.Join(dir, "config.json"), true)
}

// LoadProject reads .tabletalkconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".tabletalkconfig", false)
}

// Load reads both files and merges them.
func Load() (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Defaults(), err
	}
	project, err := LoadProject()
	if err != nil {
		return Defaults(), err
	}
	return Merge(global, project), nil
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, layer := range []*Config{global, project} {
		if layer == nil {
			continue
		}
		overlay(&result.Companion, layer.Companion)
		overlay(&result.DefaultFormat, layer.DefaultFormat)
		overlay(&result.JournalDir, layer.JournalDir)
		overlay(&result.PhrasebookPath, layer.PhrasebookPath)
		overlay(&result.SpeechCommand, layer.SpeechCommand)
		overlay(&result.LogFile, layer.LogFile)
	}
	return result
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
