//go:build !darwin

package stacking

import (
	"errors"
	"runtime"
)

// resolveCocoaSelectors reports that the Objective-C runtime is not part
// of this build. NSWindow handles can only be serviced on darwin.
func resolveCocoaSelectors() (*cocoaSelectors, error) {
	return nil, errors.New("Objective-C runtime is not available on " + runtime.GOOS)
}

// sendCocoaMessage is unreachable without a resolved selector table.
func sendCocoaMessage(target uintptr, sel cocoaSel, args ...uintptr) {}
