//go:build windows

package main

import (
	"github.com/lxn/win"
	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

// enableDPIAwareness sets per-monitor DPI awareness so the overlay is sized
// in physical pixels on scaled displays.
func enableDPIAwareness() {
	shcore := windows.NewLazySystemDLL("Shcore.dll")
	setProcessDpiAwareness := shcore.NewProc("SetProcessDpiAwareness")
	const processPerMonitorDPIAware = 2
	if err := setProcessDpiAwareness.Find(); err == nil {
		ret, _, _ := setProcessDpiAwareness.Call(uintptr(processPerMonitorDPIAware))
		if ret == 0 {
			zap.S().Debugf("DPI: per-monitor DPI awareness enabled")
		} else {
			zap.S().Debugf("DPI: SetProcessDpiAwareness failed, error code: %d", ret)
		}
		return
	}

	zap.S().Debugf("DPI: Shcore.SetProcessDpiAwareness not available, trying fallback")
	setProcessDPIAware := windows.NewLazySystemDLL("user32.dll").NewProc("SetProcessDPIAware")
	if err := setProcessDPIAware.Find(); err == nil {
		_, _, _ = setProcessDPIAware.Call()
		zap.S().Debugf("DPI: system DPI awareness enabled (fallback)")
	}
}

func logMonitorConfiguration() {
	zap.S().Infof("MONITOR: %d monitors, primary %dx%d, virtual screen %d,%d %dx%d",
		win.GetSystemMetrics(win.SM_CMONITORS),
		win.GetSystemMetrics(win.SM_CXSCREEN), win.GetSystemMetrics(win.SM_CYSCREEN),
		win.GetSystemMetrics(win.SM_XVIRTUALSCREEN), win.GetSystemMetrics(win.SM_YVIRTUALSCREEN),
		win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN), win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN),
	)
}
