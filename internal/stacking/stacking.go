// Package stacking pins native windows to the bottom of the desktop
// z-order ("keep below") and releases them back to normal stacking.
//
// One Apply call performs one synchronous platform request: SetWindowPos
// on Windows, Objective-C runtime messages on macOS, an EWMH client
// message on X11. The package keeps no state about which windows are
// pinned, so repeating a pin is safe. Callers that need to serialize
// pin/release traffic for the same window must do so themselves.
package stacking

import "context"

// Descriptor tags naming the recognized native handle kinds. Matching is
// exact; any other descriptor is unsupported.
const (
	DescriptorHWND     = "HWND"     // Win32 window handle
	DescriptorNSWindow = "NSWindow" // Cocoa NSWindow object pointer
	DescriptorXID      = "XID"      // X11 window ID
)

// Operation selects what a stacking call does to a window.
type Operation int

const (
	// OpPin places the window beneath all normal sibling windows.
	OpPin Operation = iota
	// OpRelease restores normal stacking.
	OpRelease
)

// String returns the operation name used in messages and logs.
func (op Operation) String() string {
	switch op {
	case OpPin:
		return "pin"
	case OpRelease:
		return "release"
	default:
		return "unknown"
	}
}

// Handle identifies a native window owned by the host windowing system.
// Raw is opaque to this package and passed through to the OS verbatim;
// the package never allocates, frees, or caches handles.
type Handle struct {
	Descriptor string
	Raw        uintptr
}

// NativeWindow is the host-side window abstraction consumed at the public
// boundary. PlatformHandle reports false when no native handle is
// available (for example before the window is realized).
type NativeWindow interface {
	PlatformHandle() (Handle, bool)
}

// PinBottom pins the window below its sibling windows. The context is
// checked before the platform call starts; an in-flight OS call cannot be
// cancelled. Panics if w is nil.
func PinBottom(ctx context.Context, w NativeWindow) Result {
	return boundary(ctx, OpPin, w)
}

// Release restores normal stacking for the window. Cancellation semantics
// match PinBottom. Panics if w is nil.
func Release(ctx context.Context, w NativeWindow) Result {
	return boundary(ctx, OpRelease, w)
}

func boundary(ctx context.Context, op Operation, w NativeWindow) Result {
	if w == nil {
		panic("stacking: nil window")
	}
	if err := ctx.Err(); err != nil {
		return failf("%s not attempted: %v", op, err)
	}
	h, ok := w.PlatformHandle()
	if !ok {
		return failf("no platform window handle available")
	}
	return Apply(op, h)
}

// warnf is the process diagnostic sink for non-fatal backend warnings.
// The Cocoa backend reports the failures it can detect here because most
// of its message sends return no status, making the log the fuller record.
var warnf = func(source, message string) {}

// SetDiagnosticSink routes backend warnings to fn as (source, message)
// pairs. A nil fn discards them. Call before issuing operations; the sink
// is not synchronized against concurrent Apply calls.
func SetDiagnosticSink(fn func(source, message string)) {
	if fn == nil {
		fn = func(string, string) {}
	}
	warnf = fn
}
