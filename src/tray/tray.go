// Package tray installs the system tray icon and menu.
package tray

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"go.uber.org/zap"
)

type Actions struct {
	ShowSettings        func()
	ToggleAutoTranslate func()
	Quit                func()
}

// Tray holds the menu so that labels can follow application state.
type Tray struct {
	menu   *fyne.Menu
	toggle *fyne.MenuItem
	do     func(func())
}

const (
	startLabel = "Start auto-translate"
	stopLabel  = "Stop auto-translate"
)

// Install puts the icon in the system tray. It returns false when the driver
// has no tray support, in which case the menu is still built but not shown.
func Install(app fyne.App, actions Actions) (*Tray, bool) {
	t := &Tray{do: fyne.Do}
	t.menu = t.build(actions)

	desk, ok := app.(desktop.App)
	if !ok {
		zap.S().Warnf("tray: driver has no system tray support")
		return t, false
	}
	desk.SetSystemTrayIcon(Icon)
	desk.SetSystemTrayMenu(t.menu)
	return t, true
}

func (t *Tray) build(actions Actions) *fyne.Menu {
	show := fyne.NewMenuItem("Settings", orNoop(actions.ShowSettings))
	t.toggle = fyne.NewMenuItem(startLabel, orNoop(actions.ToggleAutoTranslate))
	quit := fyne.NewMenuItem("Quit", orNoop(actions.Quit))
	quit.IsQuit = true
	return fyne.NewMenu("Selection Translate", show, t.toggle, fyne.NewMenuItemSeparator(), quit)
}

// SetAutoTranslate updates the toggle label. Safe from any goroutine.
func (t *Tray) SetAutoTranslate(on bool) {
	t.do(func() {
		if on {
			t.toggle.Label = stopLabel
		} else {
			t.toggle.Label = startLabel
		}
		t.menu.Refresh()
	})
}

func orNoop(f func()) func() {
	if f == nil {
		return func() {}
	}
	return f
}
