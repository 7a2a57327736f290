// Package tui provides the interactive surfaces of winsink: a tabbed
// bubbletea application for browsing windows and editing rules and
// settings, and a raw-terminal quick picker for toggling pins with a
// couple of keystrokes.
package tui

import "github.com/lowtide/winsink/internal/ipc"

// WindowOps is the window control surface the TUI drives: the daemon over
// IPC when it runs, a direct X connection otherwise.
type WindowOps interface {
	List() ([]ipc.ListedWindow, error)
	Pin(windowID uint32) error
	Release(windowID uint32) error
	// Toggle returns the action taken, "pinned" or "released".
	Toggle(windowID uint32) (string, error)
	ReleaseAll() (int, error)
}
