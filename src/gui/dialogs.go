package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
)

// Dialogs shows fyne dialogs on a parent window. Methods are called from
// worker goroutines; Confirm blocks until the user answers and must never
// be called on the UI thread.
type Dialogs struct {
	parent fyne.Window
	do     func(func())
}

func NewDialogs(parent fyne.Window) *Dialogs {
	return &Dialogs{parent: parent, do: fyne.Do}
}

func (d *Dialogs) Confirm(title, message string) bool {
	answer := make(chan bool, 1)
	d.do(func() {
		d.parent.Show()
		dialog.ShowConfirm(title, message, func(ok bool) { answer <- ok }, d.parent)
	})
	return <-answer
}

func (d *Dialogs) Info(title, message string) {
	d.do(func() {
		d.parent.Show()
		dialog.ShowInformation(title, message, d.parent)
	})
}

func (d *Dialogs) Error(err error) {
	if err == nil {
		return
	}
	d.do(func() {
		d.parent.Show()
		dialog.ShowError(err, d.parent)
	})
}
