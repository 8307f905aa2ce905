//go:build !windows

package notification

// The console message printed by ShowBlockingError is all other platforms get.
func showPlatformMessage(title, message string) {}
