package input

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	hotkeys    map[string]func()
	mouse      func(button uint16, pressed bool)
	hotkeyErr  error
	mouseErr   error
	registered []string
}

func (f *fakeSource) RegisterHotkey(combo string, cb func()) error {
	if f.hotkeyErr != nil {
		return f.hotkeyErr
	}
	if f.hotkeys == nil {
		f.hotkeys = map[string]func(){}
	}
	f.hotkeys[combo] = cb
	f.registered = append(f.registered, combo)
	return nil
}

func (f *fakeSource) RegisterMouseButtonListener(l func(button uint16, pressed bool)) error {
	if f.mouseErr != nil {
		return f.mouseErr
	}
	f.mouse = l
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type scheduled struct {
	delay time.Duration
	fn    func()
}

func newTestWatcher(t *testing.T) (*Watcher, *fakeSource, *fakeClock, *[]scheduled, *[]Trigger) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	var timers []scheduled
	var triggers []Trigger
	w := New(Options{
		Hotkey:    "Ctrl+Alt+T",
		Now:       clock.Now,
		AfterFunc: func(d time.Duration, f func()) { timers = append(timers, scheduled{d, f}) },
	}, func(tr Trigger) { triggers = append(triggers, tr) })

	src := &fakeSource{}
	require.NoError(t, w.Attach(src))
	return w, src, clock, &timers, &triggers
}

func TestHotkeyTriggersImmediately(t *testing.T) {
	_, src, _, timers, triggers := newTestWatcher(t)

	src.hotkeys["Ctrl+Alt+T"]()

	assert.Equal(t, []Trigger{TriggerHotkey}, *triggers)
	assert.Empty(t, *timers, "hotkey path is synchronous")
}

func TestGestureThreshold(t *testing.T) {
	tests := []struct {
		held     time.Duration
		schedule bool
	}{
		{0, false},
		{499 * time.Millisecond, false},
		{500 * time.Millisecond, true},
		{3 * time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.held.String(), func(t *testing.T) {
			_, src, clock, timers, triggers := newTestWatcher(t)

			src.mouse(1, true)
			clock.Advance(tt.held)
			src.mouse(1, false)

			if !tt.schedule {
				assert.Empty(t, *timers)
				return
			}
			require.Len(t, *timers, 1)
			assert.Equal(t, DefaultTriggerDelay, (*timers)[0].delay)
			assert.Empty(t, *triggers, "callback waits for the delay")

			(*timers)[0].fn()
			assert.Equal(t, []Trigger{TriggerGesture}, *triggers)
		})
	}
}

func TestReleaseWithoutPressIsIgnored(t *testing.T) {
	_, src, clock, timers, _ := newTestWatcher(t)

	clock.Advance(time.Second)
	src.mouse(1, false)
	assert.Empty(t, *timers)

	// A second release after a completed gesture is also ignored.
	src.mouse(1, true)
	clock.Advance(time.Second)
	src.mouse(1, false)
	src.mouse(1, false)
	assert.Len(t, *timers, 1)
}

func TestLatestPressWins(t *testing.T) {
	_, src, clock, timers, _ := newTestWatcher(t)

	src.mouse(1, true)
	clock.Advance(time.Second)
	src.mouse(2, true) // restarts the hold
	clock.Advance(100 * time.Millisecond)
	src.mouse(2, false)
	assert.Empty(t, *timers)
}

func TestAttachErrors(t *testing.T) {
	w := New(Options{Hotkey: "Ctrl+X"}, func(Trigger) {})
	assert.Error(t, w.Attach(&fakeSource{hotkeyErr: errors.New("taken")}))
	assert.Error(t, w.Attach(&fakeSource{mouseErr: errors.New("no mouse")}))
}

func TestAttachWithoutHotkeyRegistersMouseOnly(t *testing.T) {
	w := New(Options{}, func(Trigger) {})
	src := &fakeSource{}
	require.NoError(t, w.Attach(src))
	assert.Empty(t, src.registered)
	assert.NotNil(t, src.mouse)
}

func TestDefaultSchedulerFiresAfterDelay(t *testing.T) {
	done := make(chan Trigger, 1)
	w := New(Options{TriggerDelay: 5 * time.Millisecond, HoldThreshold: time.Millisecond}, func(tr Trigger) { done <- tr })
	src := &fakeSource{}
	require.NoError(t, w.Attach(src))

	src.mouse(1, true)
	time.Sleep(2 * time.Millisecond)
	src.mouse(1, false)

	select {
	case tr := <-done:
		assert.Equal(t, TriggerGesture, tr)
	case <-time.After(time.Second):
		t.Fatal("gesture callback never fired")
	}
}
