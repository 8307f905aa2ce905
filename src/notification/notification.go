// Package notification reports fatal startup errors when no fyne window can
// be relied on yet.
package notification

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// ShowBlockingError logs the error and shows it to the user. On Windows it
// blocks until the message box is dismissed.
func ShowBlockingError(title, message string) {
	zap.S().Errorf("%s: %s", title, message)
	fmt.Fprintf(os.Stderr, "%s: %s\n", title, message)
	showPlatformMessage(title, message)
}
