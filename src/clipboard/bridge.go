package clipboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Clipboard reads and writes plain text.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(text string) error
}

// Copier asks the foreground application to copy its current selection.
type Copier interface {
	Copy() error
}

const DefaultSettleDelay = 100 * time.Millisecond

// Bridge extracts the user's current selection through the clipboard and puts
// the previous clipboard content back afterwards. Captures are serialized so
// overlapping triggers cannot interleave their restores.
type Bridge struct {
	mu     sync.Mutex
	board  Clipboard
	copier Copier
	settle time.Duration
}

func NewBridge(board Clipboard, copier Copier, settle time.Duration) *Bridge {
	if settle < 0 {
		settle = DefaultSettleDelay
	}
	return &Bridge{board: board, copier: copier, settle: settle}
}

// NewSystemBridge wires the OS clipboard and keystroke copier. Init must have succeeded.
func NewSystemBridge(settle time.Duration) *Bridge {
	return NewBridge(System{}, KeystrokeCopier{}, settle)
}

// CaptureSelection returns the trimmed selected text, or "" when nothing is
// selected or any platform call fails. The clipboard seen after the call equals
// the clipboard seen before it.
func (b *Bridge) CaptureSelection(ctx context.Context) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	text, err := b.capture(ctx)
	if err != nil {
		zap.S().Warnf("clipboard: capture failed: %v", err)
		return ""
	}
	return strings.TrimSpace(text)
}

func (b *Bridge) capture(ctx context.Context) (captured string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during capture: %v", r)
		}
	}()

	original, err := b.board.ReadText()
	if err != nil {
		return "", fmt.Errorf("failed to snapshot clipboard: %w", err)
	}

	defer func() {
		// Nothing to undo when both sides are empty; writing "" would only
		// clobber non-text content we cannot read back.
		if original == "" && captured == "" {
			return
		}
		if rerr := b.board.WriteText(original); rerr != nil && err == nil {
			err = fmt.Errorf("failed to restore clipboard: %w", rerr)
		}
	}()

	// Clear first so an empty selection reads back as "" instead of the old value.
	if original != "" {
		if err := b.board.WriteText(""); err != nil {
			return "", fmt.Errorf("failed to clear clipboard: %w", err)
		}
	}

	if err := b.copier.Copy(); err != nil {
		return "", err
	}

	if b.settle > 0 {
		t := time.NewTimer(b.settle)
		select {
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		case <-t.C:
		}
	}

	captured, err = b.board.ReadText()
	if err != nil {
		return "", fmt.Errorf("failed to read selection: %w", err)
	}
	return captured, nil
}
