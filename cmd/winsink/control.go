package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lowtide/winsink/internal/config"
	"github.com/lowtide/winsink/internal/ipc"
	"github.com/lowtide/winsink/internal/stacking"
	"github.com/lowtide/winsink/internal/tracker"
	"github.com/lowtide/winsink/internal/tui"
	"github.com/lowtide/winsink/internal/x11"
)

// newWindowOps builds the control surface for the client commands: the
// daemon over IPC when it answers a ping, a direct X connection otherwise.
// The returned closer releases the X connection in the standalone case.
// daemonUp reports which path was taken.
func newWindowOps(cfg *config.Config) (ops tui.WindowOps, closer func(), daemonUp bool, err error) {
	client := ipcClientFor(cfg)
	if client.Ping() == nil {
		return &ipcWindowOps{client: client}, func() {}, true, nil
	}

	conn, err := x11.NewConnectionDisplay(cfg.Display)
	if err != nil {
		return nil, nil, false, fmt.Errorf("daemon not running and X connection failed: %w", err)
	}
	return &standaloneWindowOps{conn: conn}, conn.Close, false, nil
}

func ipcClientFor(cfg *config.Config) *ipc.Client {
	if cfg != nil && cfg.Socket != "" {
		return ipc.NewClientWithSocket(cfg.Socket)
	}
	return ipc.NewClient()
}

// ipcWindowOps routes operations through the daemon, which tracks them.
type ipcWindowOps struct {
	client *ipc.Client
}

var _ tui.WindowOps = (*ipcWindowOps)(nil)

func (o *ipcWindowOps) List() ([]ipc.ListedWindow, error) {
	return o.client.ListWindows()
}

func (o *ipcWindowOps) Pin(windowID uint32) error {
	return o.client.PinWindow(windowID, string(tracker.SourceManual))
}

func (o *ipcWindowOps) Release(windowID uint32) error {
	return o.client.ReleaseWindow(windowID)
}

func (o *ipcWindowOps) Toggle(windowID uint32) (string, error) {
	return o.client.ToggleWindow(windowID, string(tracker.SourceManual))
}

func (o *ipcWindowOps) ReleaseAll() (int, error) {
	return o.client.ReleaseAll()
}

// standaloneWindowOps drives the X server directly. Pins made this way are
// not tracked by a daemon; pin state is read back from the _NET_WM_STATE
// below flag.
type standaloneWindowOps struct {
	conn *x11.Connection
}

var _ tui.WindowOps = (*standaloneWindowOps)(nil)

func (o *standaloneWindowOps) List() ([]ipc.ListedWindow, error) {
	windows, err := o.conn.ListWindows()
	if err != nil {
		return nil, err
	}
	out := make([]ipc.ListedWindow, 0, len(windows))
	for _, win := range windows {
		out = append(out, ipc.ListedWindow{WindowInfo: win, Pinned: win.Below})
	}
	return out, nil
}

func (o *standaloneWindowOps) Pin(windowID uint32) error {
	return applyStandalone(stacking.OpPin, windowID)
}

func (o *standaloneWindowOps) Release(windowID uint32) error {
	return applyStandalone(stacking.OpRelease, windowID)
}

func (o *standaloneWindowOps) Toggle(windowID uint32) (string, error) {
	below, err := o.conn.HasBelowState(windowID)
	if err != nil {
		return "", err
	}
	if below {
		return "released", o.Release(windowID)
	}
	return "pinned", o.Pin(windowID)
}

func (o *standaloneWindowOps) ReleaseAll() (int, error) {
	windows, err := o.conn.ListWindows()
	if err != nil {
		return 0, err
	}
	released := 0
	for _, win := range windows {
		if !win.Below {
			continue
		}
		if err := o.Release(win.ID); err != nil {
			return released, err
		}
		released++
	}
	return released, nil
}

func applyStandalone(op stacking.Operation, windowID uint32) error {
	res := stacking.Apply(op, stacking.Handle{
		Descriptor: stacking.DescriptorXID,
		Raw:        uintptr(windowID),
	})
	if !res.Success {
		return fmt.Errorf("%s failed: %s", op, res.Message)
	}
	return nil
}

// targetSelector holds the window selection flags shared by pin, release
// and toggle.
type targetSelector struct {
	WindowID string
	Class    string
	Title    string
	Active   bool
}

func (s targetSelector) empty() bool {
	return s.WindowID == "" && s.Class == "" && s.Title == "" && !s.Active
}

// resolveTargetWindow picks exactly one window from the list. activeID is
// the focused window, used only for --active. Query matching is a
// case-insensitive regexp; an ambiguous query is an error that names the
// candidates rather than guessing.
func resolveTargetWindow(windows []ipc.ListedWindow, sel targetSelector, activeID uint32) (uint32, error) {
	if sel.Active {
		if activeID == 0 {
			return 0, fmt.Errorf("no active window")
		}
		return activeID, nil
	}

	if sel.WindowID != "" {
		id64, err := strconv.ParseUint(sel.WindowID, 0, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid window id %q", sel.WindowID)
		}
		id := uint32(id64)
		for _, win := range windows {
			if win.ID == id {
				return id, nil
			}
		}
		return 0, fmt.Errorf("window %#x not found", id)
	}

	query := sel.Class
	field := "class"
	if query == "" {
		query = sel.Title
		field = "title"
	}
	if query == "" {
		return 0, fmt.Errorf("no target: use --window, --class, --title or --active")
	}

	re, err := regexp.Compile("(?i)" + query)
	if err != nil {
		return 0, fmt.Errorf("invalid %s pattern %q: %v", field, query, err)
	}

	var matches []ipc.ListedWindow
	for _, win := range windows {
		value := win.Class
		if field == "title" {
			value = win.Title
		}
		if re.MatchString(value) {
			matches = append(matches, win)
		}
	}

	switch len(matches) {
	case 0:
		return 0, fmt.Errorf("no window matches %s %q", field, query)
	case 1:
		return matches[0].ID, nil
	}

	names := make([]string, 0, len(matches))
	for _, win := range matches {
		names = append(names, fmt.Sprintf("%#x (%s: %s)", win.ID, win.Class, win.Title))
	}
	return 0, fmt.Errorf("%s %q matches %d windows: %s", field, query, len(matches), strings.Join(names, ", "))
}

// activeWindowID resolves the focused window when --active is requested.
// The IPC protocol has no active-window query, so this always goes to X.
func activeWindowID(cfg *config.Config) (uint32, error) {
	conn, err := x11.NewConnectionDisplay(cfg.Display)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	win, err := conn.GetActiveWindow()
	if err != nil {
		return 0, err
	}
	return uint32(win), nil
}
