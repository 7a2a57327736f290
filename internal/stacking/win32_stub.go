//go:build !windows

package stacking

import (
	"errors"
	"runtime"
)

// setWindowPos reports that user32 is not part of this build. HWND
// handles can only be serviced on windows.
func setWindowPos(hwnd, insertAfter uintptr, flags uint32) error {
	return errors.New("user32 is not available on " + runtime.GOOS)
}
