//go:build windows

package stacking

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/windows"
)

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	procSetWindowPos = user32.NewProc("SetWindowPos")
)

// setWindowPos calls user32 SetWindowPos with zero geometry so only the
// z-order position changes. A zero return means failure; the Win32 error
// code is embedded in the returned error.
func setWindowPos(hwnd, insertAfter uintptr, flags uint32) error {
	ret, _, callErr := procSetWindowPos.Call(hwnd, insertAfter, 0, 0, 0, 0, uintptr(flags))
	if ret != 0 {
		return nil
	}
	if errno, ok := callErr.(syscall.Errno); ok && errno != 0 {
		return fmt.Errorf("error code %d", uintptr(errno))
	}
	return fmt.Errorf("unknown error")
}
