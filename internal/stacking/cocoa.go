package stacking

// cocoaSel is a resolved Objective-C selector, opaque to the build-neutral
// part of this backend.
type cocoaSel uintptr

// cocoaSelectors holds the message selectors the backend sends. The table
// is resolved once per process and read-only afterwards; selector identity
// is stable for the process lifetime.
type cocoaSelectors struct {
	setLevel              cocoaSel
	setCollectionBehavior cocoaSel
	orderBack             cocoaSel
	orderFront            cocoaSel
	deminiaturize         cocoaSel
}

// NSWindowCollectionBehavior flags.
const (
	collectionBehaviorDefault          uintptr = 0
	collectionBehaviorCanJoinAllSpaces uintptr = 1 << 0
	collectionBehaviorStationary       uintptr = 1 << 4
)

// windowLevelNormal is NSNormalWindowLevel.
const windowLevelNormal uintptr = 0

// cocoaBackend adjusts NSWindow level and collection behavior through
// Objective-C runtime messaging. objc_msgSend returns no status, so apart
// from an invalid handle this backend cannot observe failure: success
// certifies that the requests were issued, not that the window server
// honored them. Failures it can detect are reported to the diagnostic
// sink in addition to the returned Result.
type cocoaBackend struct {
	selectors func() (*cocoaSelectors, error)
	send      func(target uintptr, sel cocoaSel, args ...uintptr)
}

func newCocoaBackend() *cocoaBackend {
	return &cocoaBackend{selectors: resolveCocoaSelectors, send: sendCocoaMessage}
}

var _ backend = (*cocoaBackend)(nil)

// pin keeps the window at the normal level but orders it to the back and
// marks it stationary across spaces, so exposé and space switches do not
// rearrange it. A miniaturized window would stay invisible in its new
// position, hence the trailing deminiaturize.
func (b *cocoaBackend) pin(raw uintptr) Result {
	return b.message(raw, func(sel *cocoaSelectors) {
		b.send(raw, sel.setLevel, windowLevelNormal)
		b.send(raw, sel.setCollectionBehavior, collectionBehaviorCanJoinAllSpaces|collectionBehaviorStationary)
		b.send(raw, sel.orderBack, 0)
		b.send(raw, sel.deminiaturize, 0)
	})
}

// release restores the normal level and default collection behavior and
// orders the window to the front.
func (b *cocoaBackend) release(raw uintptr) Result {
	return b.message(raw, func(sel *cocoaSelectors) {
		b.send(raw, sel.setLevel, windowLevelNormal)
		b.send(raw, sel.setCollectionBehavior, collectionBehaviorDefault)
		b.send(raw, sel.orderFront, 0)
	})
}

// message validates the handle, resolves the selector table, and runs the
// send sequence. A zero handle is rejected before any selector resolution
// or message dispatch.
func (b *cocoaBackend) message(raw uintptr, sends func(sel *cocoaSelectors)) Result {
	if raw == 0 {
		res := failf("NSWindow handle is zero.")
		warnf("stacking/cocoa", res.Message)
		return res
	}
	sel, err := b.selectors()
	if err != nil {
		res := failf("selector resolution failed: %v", err)
		warnf("stacking/cocoa", res.Message)
		return res
	}
	sends(sel)
	return Result{Success: true}
}
