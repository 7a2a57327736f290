package stacking

// Insert-after sentinels for SetWindowPos, from winuser.h. HWND_TOPMOST
// and HWND_NOTOPMOST are (HWND)-1 and (HWND)-2 sign-extended to pointer
// width.
const (
	hwndTop       uintptr = 0
	hwndBottom    uintptr = 1
	hwndTopmost   uintptr = ^uintptr(0)
	hwndNoTopmost uintptr = ^uintptr(0) - 1
)

// SetWindowPos flags. Reordering must not resize, move, or activate the
// window, and must leave it visible.
const (
	swpNoSize     uint32 = 0x0001
	swpNoMove     uint32 = 0x0002
	swpNoActivate uint32 = 0x0010
	swpShowWindow uint32 = 0x0040

	swpReorderFlags = swpNoSize | swpNoMove | swpNoActivate | swpShowWindow
)

// setWindowPosFunc issues one SetWindowPos call changing only the z-order
// position. A nil error means the OS accepted the reorder.
type setWindowPosFunc func(hwnd, insertAfter uintptr, flags uint32) error

// win32Backend reorders windows through the user32 SetWindowPos API.
type win32Backend struct {
	call setWindowPosFunc
}

func newWin32Backend() *win32Backend {
	return &win32Backend{call: setWindowPos}
}

var _ backend = (*win32Backend)(nil)

// pin inserts the window directly above the bottom sentinel.
func (b *win32Backend) pin(raw uintptr) Result {
	if err := b.call(raw, hwndBottom, swpReorderFlags); err != nil {
		return failf("SetWindowPos(HWND_BOTTOM) failed: %v", err)
	}
	return Result{Success: true}
}

// release first clears the topmost band, then reinserts the window at the
// top of the non-topmost band. A single SetWindowPos cannot both demote
// from the topmost band and restore normal ordering, so the two calls are
// ordered; if the first fails the second is not attempted.
func (b *win32Backend) release(raw uintptr) Result {
	if err := b.call(raw, hwndNoTopmost, swpReorderFlags); err != nil {
		return failf("SetWindowPos(HWND_NOTOPMOST) failed: %v", err)
	}
	if err := b.call(raw, hwndTop, swpReorderFlags); err != nil {
		return failf("SetWindowPos(HWND_TOP) failed: %v", err)
	}
	return Result{Success: true}
}
