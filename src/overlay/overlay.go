// Package overlay is the floating window that shows the latest translation.
package overlay

import (
	"fmt"
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/kbinani/screenshot"
	"go.uber.org/zap"

	"selection-translate/src/config"
)

// Display is what the rest of the program needs from the overlay.
type Display interface {
	// Show makes the overlay visible and replaces its content.
	Show(text string)
	// Reveal makes the overlay visible without touching its content.
	Reveal()
	Hide()
	SetFontSize(size int)
	FontSize() int
	Visible() bool
}

const (
	title       = "Translation"
	minWidth    = 360
	minHeight   = 220
	sizeDivisor = 4
)

// fontTheme overrides the body text size and leaves everything else alone.
type fontTheme struct {
	fyne.Theme
	size float32
}

func (t fontTheme) Size(n fyne.ThemeSizeName) float32 {
	if n == theme.SizeNameText {
		return t.size
	}
	return t.Theme.Size(n)
}

type Options struct {
	FontSize int
	// Do runs f on the UI thread. Defaults to fyne.Do.
	Do func(f func())
}

// Window is the fyne implementation of Display. It starts hidden; closing
// the window only hides it.
type Window struct {
	win      fyne.Window
	label    *widget.Label
	override *container.ThemeOverride
	do       func(func())

	mu       sync.Mutex
	visible  bool
	text     string
	fontSize int
	sizeItem map[int]*fyne.MenuItem
	menu     *fyne.MainMenu
}

func New(app fyne.App, opts Options) *Window {
	if !config.ValidFontSize(opts.FontSize) {
		opts.FontSize = config.DefaultFontSize
	}
	if opts.Do == nil {
		opts.Do = fyne.Do
	}

	w := &Window{
		win:      app.NewWindow(title),
		label:    widget.NewLabel(""),
		do:       opts.Do,
		fontSize: opts.FontSize,
		sizeItem: make(map[int]*fyne.MenuItem),
	}
	w.label.Wrapping = fyne.TextWrapWord

	w.override = container.NewThemeOverride(
		container.NewVScroll(w.label),
		fontTheme{Theme: theme.DefaultTheme(), size: float32(opts.FontSize)},
	)
	w.win.SetContent(w.override)
	w.win.SetMainMenu(w.buildMenu())
	w.win.SetCloseIntercept(w.Hide)
	w.win.Resize(initialSize())
	return w
}

func (w *Window) buildMenu() *fyne.MainMenu {
	items := make([]*fyne.MenuItem, 0, len(config.FontSizes))
	for _, size := range config.FontSizes {
		size := size
		item := fyne.NewMenuItem(fmt.Sprintf("Font size: %d", size), func() { w.SetFontSize(size) })
		item.Checked = size == w.fontSize
		w.sizeItem[size] = item
		items = append(items, item)
	}
	w.menu = fyne.NewMainMenu(fyne.NewMenu("Font", items...))
	return w.menu
}

func (w *Window) Show(text string) {
	w.mu.Lock()
	w.text = text
	w.visible = true
	w.mu.Unlock()

	w.do(func() {
		w.label.SetText(text)
		w.win.Show()
	})
}

func (w *Window) Reveal() {
	w.mu.Lock()
	w.visible = true
	w.mu.Unlock()

	w.do(w.win.Show)
}

func (w *Window) Hide() {
	w.mu.Lock()
	w.visible = false
	w.mu.Unlock()

	w.do(w.win.Hide)
}

// SetFontSize ignores sizes outside the font menu.
func (w *Window) SetFontSize(size int) {
	if !config.ValidFontSize(size) {
		zap.S().Warnf("overlay: ignoring unsupported font size %d", size)
		return
	}
	w.mu.Lock()
	w.fontSize = size
	w.mu.Unlock()

	w.do(func() {
		w.override.Theme = fontTheme{Theme: theme.DefaultTheme(), size: float32(size)}
		w.override.Refresh()
		for s, item := range w.sizeItem {
			item.Checked = s == size
		}
		w.menu.Refresh()
	})
}

func (w *Window) FontSize() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fontSize
}

func (w *Window) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

// Text returns the content last passed to Show.
func (w *Window) Text() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.text
}

// displayBounds is swapped in tests.
var displayBounds = func() image.Rectangle {
	if screenshot.NumActiveDisplays() < 1 {
		return image.Rectangle{}
	}
	return screenshot.GetDisplayBounds(0)
}

// initialSize is a quarter of the primary display, never below the minimum.
func initialSize() fyne.Size {
	b := displayBounds()
	width := float32(b.Dx() / sizeDivisor)
	height := float32(b.Dy() / sizeDivisor)
	if width < minWidth {
		width = minWidth
	}
	if height < minHeight {
		height = minHeight
	}
	return fyne.NewSize(width, height)
}
