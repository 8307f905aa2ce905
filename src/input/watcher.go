// Package input turns raw hotkey and mouse button events into translation
// triggers. It knows nothing about the OS hook; any Source will do.
package input

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Source is the platform capability the watcher consumes.
type Source interface {
	RegisterHotkey(combo string, callback func()) error
	RegisterMouseButtonListener(listener func(button uint16, pressed bool)) error
}

// Trigger identifies what asked for a translation.
type Trigger int

const (
	TriggerHotkey Trigger = iota
	TriggerGesture
)

func (t Trigger) String() string {
	switch t {
	case TriggerHotkey:
		return "hotkey"
	case TriggerGesture:
		return "gesture"
	default:
		return fmt.Sprintf("Trigger(%d)", int(t))
	}
}

const (
	DefaultHoldThreshold = 500 * time.Millisecond
	DefaultTriggerDelay  = 100 * time.Millisecond
)

type Options struct {
	Hotkey        string
	HoldThreshold time.Duration
	TriggerDelay  time.Duration

	// Now and AfterFunc default to the time package; tests replace them.
	Now       func() time.Time
	AfterFunc func(d time.Duration, f func())
}

// Watcher fires onTrigger for hotkey presses immediately, and for mouse
// press-and-hold gestures after TriggerDelay once the button is released.
type Watcher struct {
	opts      Options
	onTrigger func(Trigger)

	mu        sync.Mutex
	pressedAt time.Time
	pressing  bool
}

func New(opts Options, onTrigger func(Trigger)) *Watcher {
	if opts.HoldThreshold <= 0 {
		opts.HoldThreshold = DefaultHoldThreshold
	}
	if opts.TriggerDelay < 0 {
		opts.TriggerDelay = DefaultTriggerDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	return &Watcher{opts: opts, onTrigger: onTrigger}
}

// Attach registers the hotkey and the mouse listener with src.
func (w *Watcher) Attach(src Source) error {
	if w.opts.Hotkey != "" {
		if err := src.RegisterHotkey(w.opts.Hotkey, w.handleHotkey); err != nil {
			return fmt.Errorf("failed to register hotkey %q: %w", w.opts.Hotkey, err)
		}
	}
	if err := src.RegisterMouseButtonListener(w.handleMouseButton); err != nil {
		return fmt.Errorf("failed to register mouse listener: %w", err)
	}
	return nil
}

func (w *Watcher) handleHotkey() {
	zap.S().Debugf("input: hotkey trigger")
	w.onTrigger(TriggerHotkey)
}

func (w *Watcher) handleMouseButton(button uint16, pressed bool) {
	now := w.opts.Now()

	w.mu.Lock()
	if pressed {
		w.pressedAt = now
		w.pressing = true
		w.mu.Unlock()
		return
	}
	if !w.pressing {
		w.mu.Unlock()
		return
	}
	held := now.Sub(w.pressedAt)
	w.pressing = false
	w.mu.Unlock()

	if held < w.opts.HoldThreshold {
		return
	}
	zap.S().Debugf("input: button %d held %v, scheduling gesture trigger", button, held)
	w.opts.AfterFunc(w.opts.TriggerDelay, func() { w.onTrigger(TriggerGesture) })
}
