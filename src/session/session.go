// Package session runs one capture, translate and format cycle per trigger.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"selection-translate/src/config"
	"selection-translate/src/input"
	"selection-translate/src/llm"
	"selection-translate/src/logutil"
)

// MissingKeyMessage replaces the translation when the hosted backend has no key.
const MissingKeyMessage = "please set the API key first"

const DefaultTimeout = 60 * time.Second

// Capturer returns the currently selected text, or "" when nothing is selected.
type Capturer interface {
	CaptureSelection(ctx context.Context) string
}

// SettingsSource hands out a value snapshot of the user settings.
type SettingsSource interface {
	Snapshot() config.Settings
	AutoTranslate() bool
}

// Event is one captured selection.
type Event struct {
	ID     string
	Text   string
	Source input.Trigger
	At     time.Time
}

// Result pairs a selection with its translation. Translated holds the
// user-facing failure message when Err is set.
type Result struct {
	Event      Event
	Original   string
	Translated string
	Err        error
}

// Display renders the overlay text.
func (r Result) Display() string {
	return Format(r.Original, r.Translated)
}

func Format(original, translated string) string {
	return fmt.Sprintf("Original: %s\n\nTranslation: %s", original, translated)
}

// FailureMessage converts a backend error into the string shown in place of
// a translation.
func FailureMessage(err error) string {
	if errors.Is(err, llm.ErrMissingAPIKey) {
		return MissingKeyMessage
	}
	return fmt.Sprintf("translation failed: %v", err)
}

type Options struct {
	Timeout time.Duration
	Now     func() time.Time
	NewID   func() string
}

// Session remembers the last processed selection so that repeated triggers on
// an unchanged selection do not call the backend again.
type Session struct {
	capture  Capturer
	settings SettingsSource
	backend  llm.Backend
	opts     Options

	mu   sync.Mutex
	last string
}

func New(capture Capturer, settings SettingsSource, backend llm.Backend, opts Options) *Session {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	return &Session{capture: capture, settings: settings, backend: backend, opts: opts}
}

// Run handles one trigger. The boolean is false when there is nothing to
// show: hotkey while auto-translate is on, empty selection, or a selection
// equal to the last processed one.
func (s *Session) Run(ctx context.Context, trigger input.Trigger) (Result, bool) {
	if trigger == input.TriggerHotkey && s.settings.AutoTranslate() {
		zap.S().Debugf("session: hotkey ignored while auto-translate is on")
		return Result{}, false
	}

	text := strings.TrimSpace(s.capture.CaptureSelection(ctx))
	if text == "" {
		zap.S().Debugf("session: %s trigger with empty selection", trigger)
		return Result{}, false
	}

	if !s.claim(text) {
		zap.S().Debugf("session: selection unchanged, skipping")
		return Result{}, false
	}

	ev := Event{ID: s.opts.NewID(), Text: text, Source: trigger, At: s.opts.Now()}
	snap := s.settings.Snapshot()
	zap.S().Infof("session %s: translating %q via %s/%s", ev.ID, logutil.SanitizeForLog(text), snap.Mode, snap.Model)

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	start := time.Now()
	translated, err := s.backend.Translate(callCtx, text, snap)
	res := Result{Event: ev, Original: text, Translated: translated, Err: err}
	if err != nil {
		zap.S().Warnf("session %s: backend error after %v: %v", ev.ID, time.Since(start), err)
		res.Translated = FailureMessage(err)
		return res, true
	}
	zap.S().Infof("session %s: translated in %v", ev.ID, time.Since(start))
	return res, true
}

// claim records text as last processed, returning false if it already was.
func (s *Session) claim(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if text == s.last {
		return false
	}
	s.last = text
	return true
}

// LastProcessed returns the most recent selection handed to the backend.
func (s *Session) LastProcessed() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
