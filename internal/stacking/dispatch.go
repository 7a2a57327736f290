package stacking

// backend performs the two stacking operations for one native handle kind.
type backend interface {
	pin(raw uintptr) Result
	release(raw uintptr) Result
}

// Dispatcher routes stacking operations to the backend matching a handle's
// descriptor tag. All three backends are present on every build; a backend
// whose OS primitive is missing from the current build fails at that
// boundary with a message saying so.
type Dispatcher struct {
	backends map[string]backend
}

// NewDispatcher returns a dispatcher wired to the three platform backends.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{backends: map[string]backend{
		DescriptorHWND:     newWin32Backend(),
		DescriptorNSWindow: newCocoaBackend(),
		DescriptorXID:      newX11Backend(),
	}}
}

// Apply performs one stacking operation on the window named by h. An
// unrecognized descriptor produces a failure Result naming the descriptor;
// backend failures pass through unchanged.
func (d *Dispatcher) Apply(op Operation, h Handle) Result {
	b, ok := d.backends[h.Descriptor]
	if !ok {
		return failf("unsupported platform window handle descriptor %q", h.Descriptor)
	}
	switch op {
	case OpPin:
		return b.pin(h.Raw)
	case OpRelease:
		return b.release(h.Raw)
	default:
		return failf("unknown stacking operation %d", int(op))
	}
}

var defaultDispatcher = NewDispatcher()

// Apply routes one stacking operation through the process default
// dispatcher.
func Apply(op Operation, h Handle) Result {
	return defaultDispatcher.Apply(op, h)
}
