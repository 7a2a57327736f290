// Package hotkeys registers global X11 keyboard shortcuts for pinning the
// focused window.
package hotkeys

import (
	"fmt"
	"log"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/lowtide/winsink/internal/config"
	"github.com/lowtide/winsink/internal/x11"
)

// ActiveWindowActions are the daemon operations a hotkey can trigger on the
// focused window.
type ActiveWindowActions interface {
	ToggleWindow(windowID uint32, source string) (string, error)
	PinWindow(windowID uint32, source string) error
	ReleaseWindow(windowID uint32) error
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu      *xgbutil.XUtil
	root    xproto.Window
	actions ActiveWindowActions

	// Swappable in tests.
	register     func(keySequence string, callback func()) error
	activeWindow func() (uint32, error)
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler.
func NewHandler(conn *x11.Connection, actions ActiveWindowActions) *Handler {
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(conn.XUtil)
	})

	h := &Handler{
		xu:      conn.XUtil,
		root:    conn.Root,
		actions: actions,
	}
	h.register = h.registerFunc
	h.activeWindow = func() (uint32, error) {
		win, err := conn.GetActiveWindow()
		return uint32(win), err
	}
	return h
}

// RegisterAll binds the configured hotkeys. Empty bindings are skipped.
func (h *Handler) RegisterAll(cfg config.HotkeyConfig) error {
	bindings := []struct {
		name     string
		sequence string
		callback func()
	}{
		{"toggle_active", cfg.ToggleActive, h.toggleActive},
		{"pin_active", cfg.PinActive, h.pinActive},
		{"release_active", cfg.ReleaseActive, h.releaseActive},
	}

	for _, b := range bindings {
		if b.sequence == "" {
			continue
		}
		if err := h.register(b.sequence, b.callback); err != nil {
			return fmt.Errorf("failed to register %s hotkey %q: %w", b.name, b.sequence, err)
		}
	}
	return nil
}

func (h *Handler) toggleActive() {
	windowID, ok := h.resolveActive("toggle")
	if !ok {
		return
	}
	action, err := h.actions.ToggleWindow(windowID, "manual")
	if err != nil {
		log.Printf("Toggle hotkey failed: %v", err)
		return
	}
	log.Printf("Hotkey %s window %#x", action, windowID)
}

func (h *Handler) pinActive() {
	windowID, ok := h.resolveActive("pin")
	if !ok {
		return
	}
	if err := h.actions.PinWindow(windowID, "manual"); err != nil {
		log.Printf("Pin hotkey failed: %v", err)
	}
}

func (h *Handler) releaseActive() {
	windowID, ok := h.resolveActive("release")
	if !ok {
		return
	}
	if err := h.actions.ReleaseWindow(windowID); err != nil {
		log.Printf("Release hotkey failed: %v", err)
	}
}

func (h *Handler) resolveActive(action string) (uint32, bool) {
	windowID, err := h.activeWindow()
	if err != nil || windowID == 0 {
		log.Printf("Cannot %s: no active window (%v)", action, err)
		return 0, false
	}
	return windowID, true
}

// registerFunc registers an arbitrary hotkey callback.
func (h *Handler) registerFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
