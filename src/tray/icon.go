package tray

import (
	_ "embed"

	"fyne.io/fyne/v2"
)

// Embedded SVG icon data
//
//go:embed icon.svg
var iconSVG []byte

// Icon is the application and tray icon.
var Icon fyne.Resource = fyne.NewStaticResource("selection-translate.svg", iconSVG)
