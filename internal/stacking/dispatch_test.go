package stacking

import (
	"context"
	"strings"
	"testing"
)

// fakeBackend records routed calls and answers with a scripted Result.
type fakeBackend struct {
	pins     []uintptr
	releases []uintptr
	result   Result
}

func (f *fakeBackend) pin(raw uintptr) Result {
	f.pins = append(f.pins, raw)
	return f.result
}

func (f *fakeBackend) release(raw uintptr) Result {
	f.releases = append(f.releases, raw)
	return f.result
}

func newFakeDispatcher(result Result) (*Dispatcher, map[string]*fakeBackend) {
	fakes := map[string]*fakeBackend{
		DescriptorHWND:     {result: result},
		DescriptorNSWindow: {result: result},
		DescriptorXID:      {result: result},
	}
	d := &Dispatcher{backends: map[string]backend{
		DescriptorHWND:     fakes[DescriptorHWND],
		DescriptorNSWindow: fakes[DescriptorNSWindow],
		DescriptorXID:      fakes[DescriptorXID],
	}}
	return d, fakes
}

func TestApply_UnsupportedDescriptorNamedInMessage(t *testing.T) {
	d, _ := newFakeDispatcher(Result{Success: true})

	for _, desc := range []string{"", "WAYLAND", "hwnd", "Xid", "GdkWindow"} {
		res := d.Apply(OpPin, Handle{Descriptor: desc, Raw: 42})
		if res.Success {
			t.Fatalf("descriptor %q: expected failure, got success", desc)
		}
		if !strings.Contains(res.Message, `"`+desc+`"`) {
			t.Fatalf("descriptor %q: message %q does not name the descriptor", desc, res.Message)
		}
	}
}

func TestApply_RoutesByDescriptor(t *testing.T) {
	d, fakes := newFakeDispatcher(Result{Success: true})

	for _, desc := range []string{DescriptorHWND, DescriptorNSWindow, DescriptorXID} {
		t.Run(desc, func(t *testing.T) {
			if res := d.Apply(OpPin, Handle{Descriptor: desc, Raw: 7}); !res.Success {
				t.Fatalf("pin failed: %q", res.Message)
			}
			if res := d.Apply(OpRelease, Handle{Descriptor: desc, Raw: 7}); !res.Success {
				t.Fatalf("release failed: %q", res.Message)
			}
			if got := len(fakes[desc].pins); got != 1 {
				t.Errorf("expected 1 pin on %s backend, got %d", desc, got)
			}
			if got := len(fakes[desc].releases); got != 1 {
				t.Errorf("expected 1 release on %s backend, got %d", desc, got)
			}
			for other, fake := range fakes {
				if other == desc {
					continue
				}
				if len(fake.pins)+len(fake.releases) != 0 {
					t.Errorf("operation for %s leaked to %s backend", desc, other)
				}
			}
			fakes[desc].pins = nil
			fakes[desc].releases = nil
		})
	}
}

func TestApply_BackendFailurePassesThroughUnchanged(t *testing.T) {
	want := Result{Success: false, Message: "SetWindowPos(HWND_BOTTOM) failed: error code 5"}
	d, _ := newFakeDispatcher(want)

	got := d.Apply(OpPin, Handle{Descriptor: DescriptorHWND, Raw: 99})
	if got != want {
		t.Fatalf("expected backend result to pass through, got %+v", got)
	}
}

func TestApply_RepeatedPinStaysPinned(t *testing.T) {
	d, fakes := newFakeDispatcher(Result{Success: true})
	h := Handle{Descriptor: DescriptorXID, Raw: 0x2c00007}

	for i := 0; i < 2; i++ {
		if res := d.Apply(OpPin, h); !res.Success {
			t.Fatalf("pin %d failed: %q", i+1, res.Message)
		}
	}
	if got := len(fakes[DescriptorXID].pins); got != 2 {
		t.Fatalf("expected 2 pin calls, got %d", got)
	}
	if got := len(fakes[DescriptorXID].releases); got != 0 {
		t.Fatalf("repeated pin must not issue a release, got %d", got)
	}
}

func TestApply_SucceedingPinReturnsEmptyMessage(t *testing.T) {
	d, _ := newFakeDispatcher(Result{Success: true})

	res := d.Apply(OpPin, Handle{Descriptor: DescriptorHWND, Raw: 0xbeef})
	if !res.Success || res.Message != "" {
		t.Fatalf("expected {Success:true, Message:\"\"}, got %+v", res)
	}
}

func TestApply_ZeroXIDExactMessage(t *testing.T) {
	// The default dispatcher reaches the real X11 backend, which rejects a
	// zero handle before opening any display connection.
	res := Apply(OpRelease, Handle{Descriptor: DescriptorXID, Raw: 0})
	if res.Success {
		t.Fatal("expected failure for zero XID")
	}
	if res.Message != "X11 window handle is zero." {
		t.Fatalf("unexpected message: %q", res.Message)
	}
}

// stubWindow is a NativeWindow with a scripted handle.
type stubWindow struct {
	h  Handle
	ok bool
}

func (w stubWindow) PlatformHandle() (Handle, bool) { return w.h, w.ok }

func TestPinBottom_NilWindowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil window")
		}
	}()
	PinBottom(context.Background(), nil)
}

func TestPinBottom_HandleUnavailable(t *testing.T) {
	res := PinBottom(context.Background(), stubWindow{ok: false})
	if res.Success {
		t.Fatal("expected failure when no handle is available")
	}
	if !strings.Contains(res.Message, "no platform window handle") {
		t.Fatalf("unexpected message: %q", res.Message)
	}
}

func TestRelease_CancelledContextNotAttempted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := Release(ctx, stubWindow{h: Handle{Descriptor: DescriptorXID, Raw: 0}, ok: true})
	if res.Success {
		t.Fatal("expected failure for cancelled context")
	}
	if !strings.Contains(res.Message, "release not attempted") {
		t.Fatalf("unexpected message: %q", res.Message)
	}
}

func TestOperationString(t *testing.T) {
	if OpPin.String() != "pin" || OpRelease.String() != "release" {
		t.Fatalf("unexpected operation names: %q %q", OpPin, OpRelease)
	}
	if Operation(42).String() != "unknown" {
		t.Fatalf("unexpected name for out-of-range operation: %q", Operation(42))
	}
}
