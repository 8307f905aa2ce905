package hotkey

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
	"go.uber.org/zap"
)

// MouseListener receives every mouse button press and release.
type MouseListener func(button uint16, pressed bool)

type keyState struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

type combo struct {
	config   string
	keys     []keyState
	callback func()
}

// Hook owns the single global gohook event pump and fans events out to
// registered key combinations and mouse listeners. Callbacks run on the pump
// goroutine and must not block.
type Hook struct {
	mu      sync.Mutex
	combos  []*combo
	mouse   []MouseListener
	started bool
}

func New() *Hook { return &Hook{} }

// RegisterHotkey arms a combination such as "Ctrl+Alt+T". Keys are matched
// on Windows virtual-key codes, so combinations only fire on Windows.
func (h *Hook) RegisterHotkey(hotkeyConfig string, callback func()) error {
	if callback == nil {
		return errors.New("hotkey callback is nil")
	}
	if runtime.GOOS != "windows" {
		zap.S().Warnf("hotkey: %q uses Windows key codes and will not fire on %s", hotkeyConfig, runtime.GOOS)
	}
	keys := parseHotkey(hotkeyConfig)
	zap.S().Debugf("hotkey: parsed configuration %q -> %v", hotkeyConfig, keys)

	c := &combo{config: hotkeyConfig, callback: callback}
	for _, keyName := range keys {
		rawcodes := keyNameToRawcodes(keyName)
		if len(rawcodes) == 0 {
			return fmt.Errorf("cannot map key %q of hotkey %q to rawcodes", keyName, hotkeyConfig)
		}
		c.keys = append(c.keys, keyState{name: keyName, rawcodes: rawcodes})
	}
	if len(c.keys) == 0 {
		return fmt.Errorf("no valid keys in hotkey configuration %q", hotkeyConfig)
	}

	h.mu.Lock()
	h.combos = append(h.combos, c)
	h.mu.Unlock()
	zap.S().Infof("hotkey: listener configured for %s", hotkeyConfig)
	return nil
}

func (h *Hook) RegisterMouseButtonListener(listener func(button uint16, pressed bool)) error {
	if listener == nil {
		return errors.New("mouse listener is nil")
	}
	h.mu.Lock()
	h.mouse = append(h.mouse, listener)
	h.mu.Unlock()
	return nil
}

// Start launches the event pump. It stops when ctx is cancelled.
func (h *Hook) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return nil
	}
	h.started = true
	h.mu.Unlock()

	evChan := gohook.Start()
	if evChan == nil {
		return errors.New("gohook.Start() returned nil channel")
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				zap.S().Errorf("hotkey: panic in event pump: %v", r)
			}
		}()
		for ev := range evChan {
			h.dispatch(ev)
		}
		zap.S().Infof("hotkey: event channel closed")
	}()

	go func() {
		<-ctx.Done()
		gohook.End()
	}()
	return nil
}

func (h *Hook) dispatch(ev gohook.Event) {
	switch ev.Kind {
	// KeyDown (4) is the press and KeyHold (3) the typed repeat; both hold the
	// key down for combo matching.
	case gohook.KeyDown, gohook.KeyHold:
		h.keyDown(ev.Rawcode)
	case gohook.KeyUp:
		h.keyUp(ev.Rawcode)
	// MouseDown (7) is the press and MouseHold (8) the release. MouseUp (6)
	// is the click summary and is ignored.
	case gohook.MouseDown:
		h.mouseButton(ev.Button, true)
	case gohook.MouseHold:
		h.mouseButton(ev.Button, false)
	}
}

func (h *Hook) keyDown(rawcode uint16) {
	var fire []func()

	h.mu.Lock()
	for _, c := range h.combos {
		for i := range c.keys {
			if matches(c.keys[i].rawcodes, rawcode) {
				c.keys[i].pressed = true
			}
		}
		if c.allPressed() {
			zap.S().Infof("hotkey: combination detected %s", c.config)
			c.reset()
			fire = append(fire, c.callback)
		}
	}
	h.mu.Unlock()

	for _, cb := range fire {
		cb()
	}
}

func (h *Hook) keyUp(rawcode uint16) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.combos {
		for i := range c.keys {
			if matches(c.keys[i].rawcodes, rawcode) {
				c.keys[i].pressed = false
			}
		}
	}
}

func (h *Hook) mouseButton(button uint16, pressed bool) {
	h.mu.Lock()
	listeners := make([]MouseListener, len(h.mouse))
	copy(listeners, h.mouse)
	h.mu.Unlock()

	for _, l := range listeners {
		l(button, pressed)
	}
}

func (c *combo) allPressed() bool {
	for i := range c.keys {
		if !c.keys[i].pressed {
			return false
		}
	}
	return true
}

func (c *combo) reset() {
	for i := range c.keys {
		c.keys[i].pressed = false
	}
}

func matches(rawcodes []uint16, rawcode uint16) bool {
	for _, rc := range rawcodes {
		if rc == rawcode {
			return true
		}
	}
	return false
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+t" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(hotkeyConfig), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "control":
			keys = append(keys, "ctrl")
		case "option":
			keys = append(keys, "alt")
		case "win", "cmd", "super", "meta":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}
	return keys
}

var namedRawcodes = map[string][]uint16{
	// Modifiers: left and right variants (VK_L*/VK_R*)
	"ctrl":  {162, 163},
	"alt":   {164, 165},
	"shift": {160, 161},
	"cmd":   {91, 92},

	"space":     {32},
	"enter":     {13},
	"return":    {13},
	"esc":       {27},
	"escape":    {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"del":       {46},
	"insert":    {45},
	"ins":       {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pgup":      {33},
	"pagedown":  {34},
	"pgdn":      {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

// keyNameToRawcodes maps a key name to its Windows virtual key code rawcodes.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	if keyName == "win" || keyName == "super" {
		keyName = "cmd"
	}
	if codes, ok := namedRawcodes[keyName]; ok {
		return codes
	}

	if len(keyName) == 1 {
		switch c := keyName[0]; {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c-'a') + 65} // VK 0x41-0x5A
		case c >= '0' && c <= '9':
			return []uint16{uint16(c-'0') + 48} // VK 0x30-0x39
		}
	}

	var n int
	if _, err := fmt.Sscanf(keyName, "f%d", &n); err == nil && n >= 1 && n <= 24 && keyName == fmt.Sprintf("f%d", n) {
		return []uint16{uint16(111 + n)} // VK_F1 = 112
	}

	zap.S().Warnf("hotkey: unknown key name %q, cannot map to rawcode", keyName)
	return nil
}
