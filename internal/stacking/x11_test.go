package stacking

import (
	"errors"
	"strings"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

// fakeX11Display scripts each stage of a stacking call and counts closes.
type fakeX11Display struct {
	root       xproto.Window
	rootErr    error
	atoms      map[string]xproto.Atom
	atomErr    map[string]error
	sendErr    error
	sentEvents []xproto.ClientMessageEvent
	sentDests  []xproto.Window
	closes     int
}

func newFakeX11Display() *fakeX11Display {
	return &fakeX11Display{
		root: 0x10a,
		atoms: map[string]xproto.Atom{
			"_NET_WM_STATE":       301,
			"_NET_WM_STATE_BELOW": 302,
		},
	}
}

func (d *fakeX11Display) RootWindow() (xproto.Window, error) {
	if d.rootErr != nil {
		return 0, d.rootErr
	}
	return d.root, nil
}

func (d *fakeX11Display) InternAtom(name string) (xproto.Atom, error) {
	if err := d.atomErr[name]; err != nil {
		return 0, err
	}
	return d.atoms[name], nil
}

func (d *fakeX11Display) SendClientMessage(ev xproto.ClientMessageEvent, dest xproto.Window) error {
	if d.sendErr != nil {
		return d.sendErr
	}
	d.sentEvents = append(d.sentEvents, ev)
	d.sentDests = append(d.sentDests, dest)
	return nil
}

func (d *fakeX11Display) Close() {
	d.closes++
}

func newFakeX11Backend(display *fakeX11Display) *x11Backend {
	return &x11Backend{open: func() (x11Display, error) { return display, nil }}
}

func TestX11Pin_SendsAddBelowClientMessage(t *testing.T) {
	display := newFakeX11Display()
	b := newFakeX11Backend(display)

	res := b.pin(0x2c00007)
	if !res.Success {
		t.Fatalf("pin failed: %q", res.Message)
	}
	if len(display.sentEvents) != 1 {
		t.Fatalf("expected 1 client message, got %d", len(display.sentEvents))
	}
	ev := display.sentEvents[0]
	if ev.Format != 32 {
		t.Errorf("format = %d, want 32", ev.Format)
	}
	if ev.Window != 0x2c00007 {
		t.Errorf("window = %#x, want 0x2c00007", ev.Window)
	}
	if ev.Type != display.atoms["_NET_WM_STATE"] {
		t.Errorf("type atom = %d, want _NET_WM_STATE", ev.Type)
	}
	data := ev.Data.Data32
	if data[0] != netWMStateAdd {
		t.Errorf("action = %d, want add", data[0])
	}
	if data[1] != uint32(display.atoms["_NET_WM_STATE_BELOW"]) {
		t.Errorf("property atom = %d, want _NET_WM_STATE_BELOW", data[1])
	}
	if data[3] != 2 {
		t.Errorf("source indication = %d, want 2", data[3])
	}
	if display.sentDests[0] != display.root {
		t.Errorf("event sent to %#x, want the root window %#x", display.sentDests[0], display.root)
	}
}

func TestX11Release_SendsRemoveAction(t *testing.T) {
	display := newFakeX11Display()
	b := newFakeX11Backend(display)

	res := b.release(0x2c00007)
	if !res.Success {
		t.Fatalf("release failed: %q", res.Message)
	}
	if data := display.sentEvents[0].Data.Data32; data[0] != netWMStateRemove {
		t.Fatalf("action = %d, want remove", data[0])
	}
}

func TestX11_ZeroHandleExactMessageAndNoConnection(t *testing.T) {
	opened := false
	b := &x11Backend{open: func() (x11Display, error) {
		opened = true
		return newFakeX11Display(), nil
	}}

	res := b.release(0)
	if res.Success {
		t.Fatal("expected failure for zero handle")
	}
	if res.Message != "X11 window handle is zero." {
		t.Fatalf("message = %q, want %q", res.Message, "X11 window handle is zero.")
	}
	if opened {
		t.Fatal("no display connection may be opened for a zero handle")
	}
}

func TestX11_DisplayOpenFailure(t *testing.T) {
	b := &x11Backend{open: func() (x11Display, error) {
		return nil, errors.New("cannot connect to :0")
	}}

	res := b.pin(0x2c00007)
	if res.Success {
		t.Fatal("expected failure when the display cannot be opened")
	}
	if !strings.Contains(res.Message, "open X display") {
		t.Fatalf("unexpected message: %q", res.Message)
	}
}

func TestX11_DistinctFailureMessagesAndSingleClose(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(d *fakeX11Display)
		want    string
	}{
		{
			name:    "success",
			prepare: func(d *fakeX11Display) {},
			want:    "",
		},
		{
			name:    "root window failure",
			prepare: func(d *fakeX11Display) { d.rootErr = errors.New("no screens") },
			want:    "root window",
		},
		{
			name: "state atom failure",
			prepare: func(d *fakeX11Display) {
				d.atomErr = map[string]error{"_NET_WM_STATE": errors.New("atom _NET_WM_STATE does not exist")}
			},
			want: "_NET_WM_STATE:",
		},
		{
			name: "below atom failure",
			prepare: func(d *fakeX11Display) {
				d.atomErr = map[string]error{"_NET_WM_STATE_BELOW": errors.New("atom _NET_WM_STATE_BELOW does not exist")}
			},
			want: "_NET_WM_STATE_BELOW:",
		},
		{
			name:    "send rejection",
			prepare: func(d *fakeX11Display) { d.sendErr = errors.New("BadWindow") },
			want:    "rejected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			display := newFakeX11Display()
			tt.prepare(display)
			b := newFakeX11Backend(display)

			res := b.pin(0x2c00007)
			if tt.want == "" {
				if !res.Success {
					t.Fatalf("expected success, got %q", res.Message)
				}
			} else {
				if res.Success {
					t.Fatal("expected failure")
				}
				if !strings.Contains(res.Message, tt.want) {
					t.Fatalf("message %q does not identify the failing stage (%q)", res.Message, tt.want)
				}
			}
			if display.closes != 1 {
				t.Fatalf("display closed %d times, want exactly 1", display.closes)
			}
		})
	}
}
