//go:build darwin

package stacking

import (
	"sync"

	"github.com/ebitengine/purego/objc"
)

var (
	cocoaOnce  sync.Once
	cocoaTable cocoaSelectors
)

// resolveCocoaSelectors registers the selector table on first use and
// shares it read-only for the rest of the process.
func resolveCocoaSelectors() (*cocoaSelectors, error) {
	cocoaOnce.Do(func() {
		cocoaTable = cocoaSelectors{
			setLevel:              cocoaSel(objc.RegisterName("setLevel:")),
			setCollectionBehavior: cocoaSel(objc.RegisterName("setCollectionBehavior:")),
			orderBack:             cocoaSel(objc.RegisterName("orderBack:")),
			orderFront:            cocoaSel(objc.RegisterName("orderFront:")),
			deminiaturize:         cocoaSel(objc.RegisterName("deminiaturize:")),
		}
	})
	return &cocoaTable, nil
}

// sendCocoaMessage dispatches one objc_msgSend to the window object. The
// return value is discarded; the selectors used here return no status.
func sendCocoaMessage(target uintptr, sel cocoaSel, args ...uintptr) {
	sendArgs := make([]any, len(args))
	for i, a := range args {
		sendArgs[i] = a
	}
	objc.ID(target).Send(objc.SEL(sel), sendArgs...)
}
