package stacking

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// _NET_WM_STATE client message actions (EWMH).
const (
	netWMStateRemove uint32 = 0
	netWMStateAdd    uint32 = 1
)

// x11Display is the slice of an X connection this backend touches. A
// connection is opened fresh for every call and closed on every exit
// path.
type x11Display interface {
	RootWindow() (xproto.Window, error)
	InternAtom(name string) (xproto.Atom, error)
	SendClientMessage(ev xproto.ClientMessageEvent, dest xproto.Window) error
	Close()
}

// x11Backend toggles the EWMH below state by sending _NET_WM_STATE client
// messages to the root window. Whether the hint is honored is up to the
// running window manager; delivery is what this backend observes, so a
// delivered request counts as success even under a WM that ignores it.
type x11Backend struct {
	open func() (x11Display, error)
}

func newX11Backend() *x11Backend {
	return &x11Backend{open: openX11Display}
}

var _ backend = (*x11Backend)(nil)

func (b *x11Backend) pin(raw uintptr) Result {
	return b.setBelowState(raw, true)
}

func (b *x11Backend) release(raw uintptr) Result {
	return b.setBelowState(raw, false)
}

// setBelowState asks the window manager to add or remove
// _NET_WM_STATE_BELOW on the target window.
func (b *x11Backend) setBelowState(raw uintptr, enable bool) Result {
	if raw == 0 {
		return failf("X11 window handle is zero.")
	}

	display, err := b.open()
	if err != nil {
		return failf("failed to open X display: %v", err)
	}
	defer display.Close()

	root, err := display.RootWindow()
	if err != nil {
		return failf("failed to resolve X root window: %v", err)
	}

	stateAtom, err := display.InternAtom("_NET_WM_STATE")
	if err != nil {
		return failf("failed to resolve _NET_WM_STATE: %v", err)
	}
	belowAtom, err := display.InternAtom("_NET_WM_STATE_BELOW")
	if err != nil {
		return failf("failed to resolve _NET_WM_STATE_BELOW: %v", err)
	}

	action := netWMStateRemove
	if enable {
		action = netWMStateAdd
	}

	// data32: action, property atom, second property (none), source
	// indication 2 (direct user action), padding.
	const sourceIndication = 2
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: xproto.Window(raw),
		Type:   stateAtom,
		Data: xproto.ClientMessageDataUnionData32New([]uint32{
			action, uint32(belowAtom), 0, sourceIndication, 0,
		}),
	}

	if err := display.SendClientMessage(ev, root); err != nil {
		return failf("X server rejected the state change event: %v", err)
	}
	return Result{Success: true}
}

// xgbDisplay adapts a raw xgb connection to the x11Display surface.
type xgbDisplay struct {
	conn *xgb.Conn
}

// openX11Display connects to the display named by the DISPLAY
// environment variable.
func openX11Display() (x11Display, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	return &xgbDisplay{conn: conn}, nil
}

func (d *xgbDisplay) RootWindow() (xproto.Window, error) {
	setup := xproto.Setup(d.conn)
	if setup == nil || len(setup.Roots) == 0 {
		return 0, fmt.Errorf("display reported no screens")
	}
	return setup.DefaultScreen(d.conn).Root, nil
}

// InternAtom resolves an existing atom; a zero reply means the atom does
// not exist on this server.
func (d *xgbDisplay) InternAtom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(d.conn, true, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	if reply.Atom == 0 {
		return 0, fmt.Errorf("atom %s does not exist", name)
	}
	return reply.Atom, nil
}

// SendClientMessage delivers the event to the window manager with the
// substructure redirect/notify masks. The checked send round-trips to the
// server, which both forces delivery and surfaces a rejection.
func (d *xgbDisplay) SendClientMessage(ev xproto.ClientMessageEvent, dest xproto.Window) error {
	return xproto.SendEventChecked(
		d.conn,
		false,
		dest,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

func (d *xgbDisplay) Close() {
	d.conn.Close()
}
