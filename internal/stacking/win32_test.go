package stacking

import (
	"errors"
	"strings"
	"testing"
)

type win32Call struct {
	hwnd        uintptr
	insertAfter uintptr
	flags       uint32
}

// scriptedSetWindowPos records calls and fails the n-th call (1-based)
// with failErr when failAt is non-zero.
type scriptedSetWindowPos struct {
	calls   []win32Call
	failAt  int
	failErr error
}

func (s *scriptedSetWindowPos) call(hwnd, insertAfter uintptr, flags uint32) error {
	s.calls = append(s.calls, win32Call{hwnd: hwnd, insertAfter: insertAfter, flags: flags})
	if s.failAt != 0 && len(s.calls) == s.failAt {
		return s.failErr
	}
	return nil
}

func TestWin32Pin_SingleBottomInsert(t *testing.T) {
	script := &scriptedSetWindowPos{}
	b := &win32Backend{call: script.call}

	res := b.pin(0xbeef)
	if !res.Success {
		t.Fatalf("pin failed: %q", res.Message)
	}
	if len(script.calls) != 1 {
		t.Fatalf("expected exactly 1 SetWindowPos call, got %d", len(script.calls))
	}
	got := script.calls[0]
	if got.hwnd != 0xbeef {
		t.Errorf("hwnd = %#x, want 0xbeef", got.hwnd)
	}
	if got.insertAfter != hwndBottom {
		t.Errorf("insertAfter = %#x, want HWND_BOTTOM", got.insertAfter)
	}
	if got.flags != swpReorderFlags {
		t.Errorf("flags = %#x, want %#x (no size/move/activate, show)", got.flags, swpReorderFlags)
	}
}

func TestWin32Release_TwoOrderedCalls(t *testing.T) {
	script := &scriptedSetWindowPos{}
	b := &win32Backend{call: script.call}

	res := b.release(0xbeef)
	if !res.Success {
		t.Fatalf("release failed: %q", res.Message)
	}
	if len(script.calls) != 2 {
		t.Fatalf("expected exactly 2 SetWindowPos calls, got %d", len(script.calls))
	}
	if script.calls[0].insertAfter != hwndNoTopmost {
		t.Errorf("first insertAfter = %#x, want HWND_NOTOPMOST", script.calls[0].insertAfter)
	}
	if script.calls[1].insertAfter != hwndTop {
		t.Errorf("second insertAfter = %#x, want HWND_TOP", script.calls[1].insertAfter)
	}
	for i, c := range script.calls {
		if c.flags != swpReorderFlags {
			t.Errorf("call %d flags = %#x, want %#x", i+1, c.flags, swpReorderFlags)
		}
	}
}

func TestWin32Release_FirstFailureSuppressesSecond(t *testing.T) {
	script := &scriptedSetWindowPos{failAt: 1, failErr: errors.New("error code 5")}
	b := &win32Backend{call: script.call}

	res := b.release(0xbeef)
	if res.Success {
		t.Fatal("expected failure when the first reorder call fails")
	}
	if len(script.calls) != 1 {
		t.Fatalf("second call must not be attempted after the first fails, got %d calls", len(script.calls))
	}
	if !strings.Contains(res.Message, "HWND_NOTOPMOST") || !strings.Contains(res.Message, "error code 5") {
		t.Fatalf("message %q should name the failing call and its error code", res.Message)
	}
}

func TestWin32Release_SecondFailureReported(t *testing.T) {
	script := &scriptedSetWindowPos{failAt: 2, failErr: errors.New("error code 1400")}
	b := &win32Backend{call: script.call}

	res := b.release(0xbeef)
	if res.Success {
		t.Fatal("expected failure when the second reorder call fails")
	}
	if len(script.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(script.calls))
	}
	if !strings.Contains(res.Message, "HWND_TOP") || !strings.Contains(res.Message, "error code 1400") {
		t.Fatalf("message %q should name the failing call and its error code", res.Message)
	}
}

func TestWin32Pin_FailureEmbedsErrorCode(t *testing.T) {
	script := &scriptedSetWindowPos{failAt: 1, failErr: errors.New("error code 87")}
	b := &win32Backend{call: script.call}

	res := b.pin(0xbeef)
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Message, "error code 87") {
		t.Fatalf("message %q should embed the platform error code", res.Message)
	}
}
