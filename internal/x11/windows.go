package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

// WindowInfo describes one top-level window as seen by the window manager.
type WindowInfo struct {
	ID      uint32 `json:"id"`
	Title   string `json:"title"`
	Class   string `json:"class"`
	Desktop int    `json:"desktop"` // -1 when the window is on all desktops
	Below   bool   `json:"below"`
	Monitor string `json:"monitor,omitempty"`
}

// ListWindows returns all normal application windows across all desktops,
// in EWMH client-list order. Monitor names are filled in when RandR
// information is available and left empty otherwise.
func (c *Connection) ListWindows() ([]WindowInfo, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}

	// One RandR round trip shared by the whole listing.
	monitors, _ := c.GetMonitors()

	windows := make([]WindowInfo, 0, len(clients))
	for _, windowID := range clients {
		if !c.IsNormalWindow(windowID) {
			continue
		}
		info := c.windowInfo(windowID, monitors)
		windows = append(windows, info)
	}
	return windows, nil
}

// GetWindowInfo describes a single window.
func (c *Connection) GetWindowInfo(windowID uint32) (WindowInfo, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return WindowInfo{}, fmt.Errorf("failed to get client list: %w", err)
	}
	for _, id := range clients {
		if uint32(id) == windowID {
			monitors, _ := c.GetMonitors()
			return c.windowInfo(id, monitors), nil
		}
	}
	return WindowInfo{}, fmt.Errorf("window %#x is not in the client list", windowID)
}

func (c *Connection) windowInfo(windowID xproto.Window, monitors []Monitor) WindowInfo {
	info := WindowInfo{
		ID:    uint32(windowID),
		Title: c.WindowTitle(windowID),
		Class: c.WindowClass(windowID),
	}
	if desktop, err := c.GetWindowDesktop(uint32(windowID)); err == nil {
		info.Desktop = desktop
	}
	if below, err := c.HasBelowState(uint32(windowID)); err == nil {
		info.Below = below
	}
	if mon := findMonitorForWindow(c, monitors, windowID); mon != nil {
		info.Monitor = mon.Name
	}
	return info
}

// WindowTitle returns the window title, preferring _NET_WM_NAME and
// falling back to the ICCCM WM_NAME property.
func (c *Connection) WindowTitle(windowID xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, windowID)
	if err == nil {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	title, err = icccm.WmNameGet(c.XUtil, windowID)
	if err == nil {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	return ""
}

// WindowClass returns the WM_CLASS class name ("" when unset).
func (c *Connection) WindowClass(windowID xproto.Window) string {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}

// HasBelowState reports whether the window manager currently holds the
// window in the below layer (_NET_WM_STATE_BELOW present in its state).
func (c *Connection) HasBelowState(windowID uint32) (bool, error) {
	states, err := ewmh.WmStateGet(c.XUtil, xproto.Window(windowID))
	if err != nil {
		return false, fmt.Errorf("failed to get window state: %w", err)
	}
	for _, state := range states {
		if state == "_NET_WM_STATE_BELOW" {
			return true, nil
		}
	}
	return false, nil
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	// Check for normal window type
	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_NORMAL" {
			return true
		}
		// Reject desktop, dock, splash, etc.
		if t == "_NET_WM_WINDOW_TYPE_DESKTOP" ||
			t == "_NET_WM_WINDOW_TYPE_DOCK" ||
			t == "_NET_WM_WINDOW_TYPE_SPLASH" ||
			t == "_NET_WM_WINDOW_TYPE_NOTIFICATION" {
			return false
		}
	}

	// If no specific type is set, assume it's normal
	return len(types) == 0
}

func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}
