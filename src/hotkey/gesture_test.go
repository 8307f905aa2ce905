package hotkey

import (
	"testing"
	"time"

	gohook "github.com/robotn/gohook"

	"selection-translate/src/input"
)

// Raw gohook kinds fed through the Hook must time a hold from the physical
// press, not from the release.
func TestHeldButtonSchedulesGesture(t *testing.T) {
	tests := []struct {
		name     string
		held     time.Duration
		schedule bool
	}{
		{"short click", 120 * time.Millisecond, false},
		{"long hold", 800 * time.Millisecond, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Unix(1700000000, 0)
			var delays []time.Duration
			var triggers []input.Trigger
			w := input.New(input.Options{
				Now:       func() time.Time { return now },
				AfterFunc: func(d time.Duration, f func()) { delays = append(delays, d); f() },
			}, func(tr input.Trigger) { triggers = append(triggers, tr) })

			h := New()
			if err := w.Attach(h); err != nil {
				t.Fatalf("attach: %v", err)
			}

			// Idle for a while first so a stale timestamp would be obvious.
			now = now.Add(10 * time.Second)
			h.dispatch(gohook.Event{Kind: 7, Button: 1})
			now = now.Add(tt.held)
			h.dispatch(gohook.Event{Kind: 8, Button: 1})
			h.dispatch(gohook.Event{Kind: 6, Button: 1})

			if !tt.schedule {
				if len(delays) != 0 || len(triggers) != 0 {
					t.Fatalf("expected no gesture, got delays=%v triggers=%v", delays, triggers)
				}
				return
			}
			if len(delays) != 1 {
				t.Fatalf("expected one scheduled gesture, got %d", len(delays))
			}
			if len(triggers) != 1 || triggers[0] != input.TriggerGesture {
				t.Errorf("expected one gesture trigger, got %v", triggers)
			}
		})
	}
}
