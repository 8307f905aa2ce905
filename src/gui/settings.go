// Package gui is the fyne settings window. All decisions live in the control
// package; this package only renders state and forwards user input.
package gui

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"selection-translate/src/config"
	"selection-translate/src/control"
)

// Controller is the subset of control.Panel the window drives.
type Controller interface {
	State() control.State
	Observe(fn func(control.State))
	SetAPIKey(key string) error
	SetAPIBaseURL(url string) error
	SetPrompt(prompt string) error
	SetMode(ctx context.Context, mode config.Mode) error
	SelectModel(ctx context.Context, model string) error
	ToggleAutoTranslate() bool
}

// WindowTitle is the title of the settings window.
const WindowTitle = "Selection Translate"

const (
	localLabel  = "Local model (Ollama)"
	hostedLabel = "Hosted API"
)

var modeLabels = map[config.Mode]string{
	config.ModeLocal:  localLabel,
	config.ModeHosted: hostedLabel,
}

type SettingsWindow struct {
	ctx  context.Context
	win  fyne.Window
	ctrl Controller
	do   func(func())
	// run executes blocking controller calls off the UI thread.
	run func(func())

	modeSelect  *widget.Select
	modelSelect *widget.Select
	toggleBtn   *widget.Button
	statusLabel *widget.Label
	modelLabel  *widget.Label
	hotkeyLabel *widget.Label

	// set while widgets are updated from state so their callbacks stay quiet
	updating bool
}

// NewSettingsWindow fills win, which is created by the caller so that it can
// also parent the Dialogs handed to the controller.
func NewSettingsWindow(ctx context.Context, win fyne.Window, ctrl Controller, hotkey string) *SettingsWindow {
	s := &SettingsWindow{
		ctx:  ctx,
		win:  win,
		ctrl: ctrl,
		do:   fyne.Do,
		run:  func(f func()) { go f() },
	}

	s.modeSelect = widget.NewSelect([]string{localLabel, hostedLabel}, s.onModeChanged)
	s.modelSelect = widget.NewSelect(nil, s.onModelChanged)
	s.toggleBtn = widget.NewButton("", func() { s.ctrl.ToggleAutoTranslate() })
	s.statusLabel = widget.NewLabel("")
	s.modelLabel = widget.NewLabel("")
	s.hotkeyLabel = widget.NewLabel(fmt.Sprintf("Hotkey: %s, or hold the mouse button to translate a selection", hotkey))
	s.hotkeyLabel.Wrapping = fyne.TextWrapWord

	form := widget.NewForm(
		widget.NewFormItem("Backend", s.modeSelect),
		widget.NewFormItem("Model", s.modelSelect),
	)

	buttons := container.NewVBox(
		widget.NewButton("Set API key", s.askAPIKey),
		widget.NewButton("Set API base URL", s.askAPIBaseURL),
		widget.NewButton("Set prompt", s.askPrompt),
		s.toggleBtn,
	)

	s.win.SetContent(container.NewVBox(form, buttons, s.statusLabel, s.modelLabel, s.hotkeyLabel))
	s.win.SetCloseIntercept(s.win.Hide)
	s.win.Resize(fyne.NewSize(360, 0))

	s.refresh(ctrl.State())
	ctrl.Observe(func(st control.State) {
		s.do(func() { s.refresh(st) })
	})
	return s
}


// Show brings the window up. Safe from any goroutine.
func (s *SettingsWindow) Show() {
	s.do(func() {
		s.win.Show()
		s.win.RequestFocus()
	})
}

// refresh must run on the UI thread.
func (s *SettingsWindow) refresh(st control.State) {
	s.updating = true
	defer func() { s.updating = false }()

	s.modeSelect.SetSelected(modeLabels[st.Settings.Mode])
	s.modelSelect.Options = config.Catalog(st.Settings.Mode)
	s.modelSelect.SetSelected(st.Settings.Model)
	s.modelSelect.Refresh()

	if st.AutoTranslate {
		s.toggleBtn.SetText("Stop auto-translate")
	} else {
		s.toggleBtn.SetText("Start auto-translate")
	}
	s.statusLabel.SetText(st.Status())
	s.modelLabel.SetText("Current model: " + st.Settings.Model)
}

func (s *SettingsWindow) onModeChanged(label string) {
	if s.updating {
		return
	}
	mode := config.ModeLocal
	if label == hostedLabel {
		mode = config.ModeHosted
	}
	s.run(func() {
		if err := s.ctrl.SetMode(s.ctx, mode); err != nil {
			zap.S().Infof("gui: mode change to %s not applied: %v", mode, err)
			s.resync()
		}
	})
}

func (s *SettingsWindow) onModelChanged(model string) {
	if s.updating || model == "" {
		return
	}
	s.run(func() {
		if err := s.ctrl.SelectModel(s.ctx, model); err != nil {
			zap.S().Infof("gui: model change to %s not applied: %v", model, err)
			s.resync()
		}
	})
}

// resync puts the widgets back to the controller's state after a rejected change.
func (s *SettingsWindow) resync() {
	st := s.ctrl.State()
	s.do(func() { s.refresh(st) })
}

func (s *SettingsWindow) askAPIKey() {
	entry := widget.NewPasswordEntry()
	entry.SetText(s.ctrl.State().Settings.APIKey)
	s.ask("API key", "Enter the API key:", entry, s.ctrl.SetAPIKey)
}

func (s *SettingsWindow) askAPIBaseURL() {
	entry := widget.NewEntry()
	entry.SetText(s.ctrl.State().Settings.APIBaseURL)
	s.ask("API base URL", "Enter the API base URL:", entry, s.ctrl.SetAPIBaseURL)
}

func (s *SettingsWindow) askPrompt() {
	entry := widget.NewEntry()
	entry.SetText(s.ctrl.State().Settings.PromptTemplate)
	s.ask("Prompt", "Enter the prompt:", entry, s.ctrl.SetPrompt)
}

func (s *SettingsWindow) ask(title, label string, entry *widget.Entry, apply func(string) error) {
	items := []*widget.FormItem{widget.NewFormItem(label, entry)}
	d := dialog.NewForm(title, "OK", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		value := entry.Text
		s.run(func() {
			if err := apply(value); err != nil {
				zap.S().Warnf("gui: %s not saved: %v", title, err)
			}
		})
	}, s.win)
	d.Resize(fyne.NewSize(420, 0))
	d.Show()
}
