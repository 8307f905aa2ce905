package clipboard

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/go-vgo/robotgo"
	"golang.design/x/clipboard"
)

var (
	writeMu sync.Mutex
)

func Init() error {
	return clipboard.Init()
}

// System is the OS clipboard, text format only.
type System struct{}

func (System) ReadText() (string, error) {
	return string(clipboard.Read(clipboard.FmtText)), nil
}

// WriteText performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func (System) WriteText(text string) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// KeystrokeCopier sends the platform copy shortcut to the focused window.
type KeystrokeCopier struct{}

func (KeystrokeCopier) Copy() error {
	modifier := "ctrl"
	if runtime.GOOS == "darwin" {
		modifier = "cmd"
	}
	if err := robotgo.KeyTap("c", modifier); err != nil {
		return fmt.Errorf("failed to send copy keystroke: %w", err)
	}
	return nil
}
