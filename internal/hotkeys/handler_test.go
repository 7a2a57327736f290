package hotkeys

import (
	"errors"
	"testing"

	"github.com/lowtide/winsink/internal/config"
)

type fakeActions struct {
	toggled  []uint32
	pinned   []uint32
	released []uint32
}

func (f *fakeActions) ToggleWindow(windowID uint32, source string) (string, error) {
	f.toggled = append(f.toggled, windowID)
	return "pinned", nil
}

func (f *fakeActions) PinWindow(windowID uint32, source string) error {
	f.pinned = append(f.pinned, windowID)
	return nil
}

func (f *fakeActions) ReleaseWindow(windowID uint32) error {
	f.released = append(f.released, windowID)
	return nil
}

func newTestHandler(actions ActiveWindowActions, active uint32) (*Handler, *[]string) {
	registered := []string{}
	h := &Handler{actions: actions}
	h.register = func(seq string, cb func()) error {
		registered = append(registered, seq)
		return nil
	}
	h.activeWindow = func() (uint32, error) { return active, nil }
	return h, &registered
}

func TestRegisterAllSkipsEmptyBindings(t *testing.T) {
	h, registered := newTestHandler(&fakeActions{}, 1)

	err := h.RegisterAll(config.HotkeyConfig{
		ToggleActive:  "Mod4-Mod1-b",
		PinActive:     "",
		ReleaseActive: "Mod4-Mod1-r",
	})
	if err != nil {
		t.Fatalf("RegisterAll() error = %v", err)
	}
	if len(*registered) != 2 {
		t.Fatalf("registered = %v, want 2 bindings", *registered)
	}
	if (*registered)[0] != "Mod4-Mod1-b" || (*registered)[1] != "Mod4-Mod1-r" {
		t.Errorf("registered = %v", *registered)
	}
}

func TestRegisterAllPropagatesBindError(t *testing.T) {
	h, _ := newTestHandler(&fakeActions{}, 1)
	h.register = func(seq string, cb func()) error {
		return errors.New("could not parse Mod9")
	}

	err := h.RegisterAll(config.HotkeyConfig{ToggleActive: "Mod9-b"})
	if err == nil {
		t.Fatal("expected error from failing bind")
	}
}

func TestCallbacksActOnActiveWindow(t *testing.T) {
	actions := &fakeActions{}
	h, _ := newTestHandler(actions, 0x2a)

	h.toggleActive()
	h.pinActive()
	h.releaseActive()

	if len(actions.toggled) != 1 || actions.toggled[0] != 0x2a {
		t.Errorf("toggled = %v", actions.toggled)
	}
	if len(actions.pinned) != 1 || actions.pinned[0] != 0x2a {
		t.Errorf("pinned = %v", actions.pinned)
	}
	if len(actions.released) != 1 || actions.released[0] != 0x2a {
		t.Errorf("released = %v", actions.released)
	}
}

func TestCallbacksSkipWhenNoActiveWindow(t *testing.T) {
	actions := &fakeActions{}
	h, _ := newTestHandler(actions, 0)

	h.toggleActive()
	h.pinActive()
	h.releaseActive()

	if len(actions.toggled)+len(actions.pinned)+len(actions.released) != 0 {
		t.Errorf("no actions expected without an active window: %+v", actions)
	}
}
