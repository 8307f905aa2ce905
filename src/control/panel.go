// Package control owns the user settings and the auto-translate switch. It is
// the only writer of Settings; everyone else reads snapshots.
package control

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"selection-translate/src/config"
	"selection-translate/src/logutil"
)

var (
	ErrModelNotInCatalog = errors.New("model is not available in the current mode")
	ErrPullDeclined      = errors.New("model download declined")
)

// Store persists the three profile values.
type Store interface {
	Save(apiKey, apiBaseURL, prompt string) error
}

// Models manages locally installed models.
type Models interface {
	Available(ctx context.Context, model string) (bool, error)
	Pull(ctx context.Context, model string) error
}

// Overlay is the part of the overlay the panel drives.
type Overlay interface {
	Reveal()
}

// Dialogs are blocking, user-facing prompts.
type Dialogs interface {
	Confirm(title, message string) bool
	Info(title, message string)
	Error(err error)
}

// State is a point-in-time copy of everything observers display.
type State struct {
	Settings      config.Settings
	AutoTranslate bool
}

// Status is the label shown next to the auto-translate toggle.
func (s State) Status() string {
	if s.AutoTranslate {
		return "Status: running"
	}
	return "Status: stopped"
}

type Panel struct {
	store   Store
	models  Models
	overlay Overlay
	dialogs Dialogs

	mu       sync.RWMutex
	settings config.Settings
	auto     bool
	// serializes model switches; a pull can take minutes
	switchMu sync.Mutex
	// orders profile writes so the file matches the last mutation
	saveMu sync.Mutex

	obsMu     sync.Mutex
	observers []func(State)
}

func New(initial config.Settings, store Store, models Models, overlay Overlay, dialogs Dialogs) *Panel {
	if !config.InCatalog(initial.Mode, initial.Model) {
		initial.Model = config.DefaultModel(initial.Mode)
	}
	return &Panel{
		store:    store,
		models:   models,
		overlay:  overlay,
		dialogs:  dialogs,
		settings: initial,
	}
}

func (p *Panel) Snapshot() config.Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings
}

func (p *Panel) AutoTranslate() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.auto
}

func (p *Panel) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return State{Settings: p.settings, AutoTranslate: p.auto}
}

// Observe registers fn to be called after every change. fn runs on the
// goroutine that made the change.
func (p *Panel) Observe(fn func(State)) {
	p.obsMu.Lock()
	p.observers = append(p.observers, fn)
	p.obsMu.Unlock()
}

func (p *Panel) notify() {
	st := p.State()
	p.obsMu.Lock()
	obs := make([]func(State), len(p.observers))
	copy(obs, p.observers)
	p.obsMu.Unlock()
	for _, fn := range obs {
		fn(st)
	}
}

// SetAPIKey stores and persists the key. Blank input is ignored.
func (p *Panel) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	if err := p.persist(func(s *config.Settings) { s.APIKey = key }); err != nil {
		return err
	}
	zap.S().Infof("control: API key set (%s)", logutil.RedactKey(key))
	p.dialogs.Info("API key", "API key has been set")
	return nil
}

// SetAPIBaseURL stores and persists the hosted endpoint. Blank input is ignored.
func (p *Panel) SetAPIBaseURL(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	if err := p.persist(func(s *config.Settings) { s.APIBaseURL = url }); err != nil {
		return err
	}
	zap.S().Infof("control: API base URL set to %s", url)
	p.dialogs.Info("API base URL", "API base URL has been set")
	return nil
}

// SetPrompt stores and persists the prompt template. Blank input is ignored.
func (p *Panel) SetPrompt(prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil
	}
	if err := p.persist(func(s *config.Settings) { s.PromptTemplate = prompt }); err != nil {
		return err
	}
	zap.S().Infof("control: prompt set to %q", logutil.SanitizeForLog(prompt))
	p.dialogs.Info("Prompt", "Prompt has been set")
	return nil
}

// persist applies mutate, then writes the profile. The in-memory value is
// kept even if the write fails.
func (p *Panel) persist(mutate func(*config.Settings)) error {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	p.mu.Lock()
	mutate(&p.settings)
	s := p.settings
	p.mu.Unlock()
	p.notify()

	if err := p.store.Save(s.APIKey, s.APIBaseURL, s.PromptTemplate); err != nil {
		err = fmt.Errorf("failed to save profile: %w", err)
		zap.S().Errorf("control: %v", err)
		p.dialogs.Error(err)
		return err
	}
	return nil
}

// SetMode switches backend mode and selects that mode's default model. If
// the default model cannot be selected the mode is left unchanged.
func (p *Panel) SetMode(ctx context.Context, mode config.Mode) error {
	if p.Snapshot().Mode == mode {
		return nil
	}
	zap.S().Infof("control: switching to %s mode", mode)
	return p.selectModel(ctx, mode, config.DefaultModel(mode))
}

// SelectModel switches to model within the current mode. In local mode a
// missing model is offered for download; on any failure the previous model
// stays selected.
func (p *Panel) SelectModel(ctx context.Context, model string) error {
	return p.selectModel(ctx, p.Snapshot().Mode, model)
}

func (p *Panel) selectModel(ctx context.Context, mode config.Mode, model string) error {
	p.switchMu.Lock()
	defer p.switchMu.Unlock()

	if !config.InCatalog(mode, model) {
		err := fmt.Errorf("%w: %s (%s mode)", ErrModelNotInCatalog, model, mode)
		p.dialogs.Error(err)
		return err
	}

	if mode == config.ModeLocal && p.models != nil {
		if err := p.ensureLocal(ctx, model); err != nil {
			return err
		}
	}

	p.mu.Lock()
	p.settings.Mode = mode
	p.settings.Model = model
	p.mu.Unlock()
	p.notify()

	zap.S().Infof("control: now using %s (%s mode)", model, mode)
	p.dialogs.Info("Model", fmt.Sprintf("Switched to model: %s", model))
	return nil
}

func (p *Panel) ensureLocal(ctx context.Context, model string) error {
	ok, err := p.models.Available(ctx, model)
	if err != nil {
		err = fmt.Errorf("failed to check model %s: %w", model, err)
		zap.S().Warnf("control: %v", err)
		p.dialogs.Error(err)
		return err
	}
	if ok {
		return nil
	}

	if !p.dialogs.Confirm("Model not installed", fmt.Sprintf("Model %s is not installed. Download it now?", model)) {
		zap.S().Infof("control: download of %s declined", model)
		return ErrPullDeclined
	}
	if err := p.models.Pull(ctx, model); err != nil {
		err = fmt.Errorf("failed to download model %s: %w", model, err)
		zap.S().Errorf("control: %v", err)
		p.dialogs.Error(err)
		return err
	}
	return nil
}

// ToggleAutoTranslate flips the switch and returns the new value. Turning it
// on reveals the overlay straight away.
func (p *Panel) ToggleAutoTranslate() bool {
	p.mu.Lock()
	p.auto = !p.auto
	on := p.auto
	p.mu.Unlock()

	if on && p.overlay != nil {
		p.overlay.Reveal()
	}
	zap.S().Infof("control: auto-translate %v", on)
	p.notify()
	return on
}
