package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Store persists the API key, API base URL and prompt template as the first three
// lines of a plain text profile. Any further lines belong to someone else and are
// carried through rewrites untouched.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Load never fails: a missing or unreadable profile yields defaults, and a short
// profile fills only the lines it has.
func (s *Store) Load() Settings {
	settings := DefaultSettings()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			zap.S().Warnf("config: cannot read profile %s, using defaults: %v", s.path, err)
		}
		return settings
	}

	lines := splitLines(string(data))
	if len(lines) >= 1 {
		settings.APIKey = strings.TrimSpace(lines[0])
	}
	if len(lines) >= 2 {
		if v := strings.TrimSpace(lines[1]); v != "" {
			settings.APIBaseURL = v
		}
	}
	if len(lines) >= 3 {
		if v := strings.TrimSpace(lines[2]); v != "" {
			settings.PromptTemplate = v
		}
	}
	return settings
}

// Save rewrites the first three lines with key, url and prompt and keeps the rest.
func (s *Store) Save(apiKey, apiBaseURL, prompt string) error {
	var lines []string
	if data, err := os.ReadFile(s.path); err == nil {
		lines = splitLines(string(data))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read profile %s: %w", s.path, err)
	}

	head := []string{singleLine(apiKey), singleLine(apiBaseURL), singleLine(prompt)}
	for i, v := range head {
		if i < len(lines) {
			lines[i] = v
		} else {
			lines = append(lines, v)
		}
	}

	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create profile directory: %w", err)
		}
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(s.path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write profile %s: %w", s.path, err)
	}
	zap.S().Debugf("config: profile saved to %s (%d lines)", s.path, len(lines))
	return nil
}

// SaveSettings persists the three profile fields of settings.
func (s *Store) SaveSettings(settings Settings) error {
	return s.Save(settings.APIKey, settings.APIBaseURL, settings.PromptTemplate)
}

func splitLines(data string) []string {
	data = strings.ReplaceAll(data, "\r\n", "\n")
	data = strings.TrimSuffix(data, "\n")
	if data == "" {
		return nil
	}
	return strings.Split(data, "\n")
}

func singleLine(v string) string {
	v = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(v)
	return strings.TrimSpace(v)
}
