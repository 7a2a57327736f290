// Package palette shows a dmenu-style window menu so a window can be
// pinned or released with two keystrokes. It shells out to whichever
// launcher is installed (rofi, fuzzel, wofi or dmenu) and degrades
// per-backend: rofi gets icons, markup and active-row highlighting for
// pinned windows, dmenu gets plain text.
package palette

import (
	"fmt"
	"os/exec"
	"strings"
)

// Item is a single selectable entry in the menu.
type Item struct {
	Label     string // display text
	Tag       string // identifier returned on selection
	Icon      string // icon name for backends with icon support
	Meta      string // hidden search keywords (rofi meta field)
	IsHeader  bool   // non-selectable section header
	IsDivider bool   // non-selectable divider line
	IsActive  bool   // highlighted as active (pinned windows)
}

// Capabilities describes what features a backend supports.
type Capabilities struct {
	Icons         bool // icon display
	Markup        bool // pango markup in labels
	NonSelectable bool // non-selectable rows (headers)
	IndexOutput   bool // selection reported by row index, not label text
	MessageBar    bool // message/prompt bar
	RowStates     bool // active row highlighting
}

// Backend shows a menu and returns the selected item. message is an
// optional context line for backends with a message bar.
type Backend interface {
	Show(prompt string, items []Item, message string) (Item, error)
	Capabilities() Capabilities
}

// AutoDetect selects the first available backend in priority order.
func AutoDetect() (Backend, error) {
	name, err := DetectBackend()
	if err != nil {
		return nil, err
	}
	return NewBackend(name)
}

// NewBackend creates a backend by name.
//
// Supported names: auto, rofi, fuzzel, wofi, dmenu.
func NewBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return AutoDetect()
	case "rofi":
		if _, err := exec.LookPath("rofi"); err != nil {
			return nil, fmt.Errorf("palette backend %q not found in PATH", "rofi")
		}
		return NewRofiBackend(), nil
	case "fuzzel":
		if _, err := exec.LookPath("fuzzel"); err != nil {
			return nil, fmt.Errorf("palette backend %q not found in PATH", "fuzzel")
		}
		return NewFuzzelBackend(), nil
	case "wofi":
		if _, err := exec.LookPath("wofi"); err != nil {
			return nil, fmt.Errorf("palette backend %q not found in PATH", "wofi")
		}
		return NewWofiBackend(), nil
	case "dmenu":
		if _, err := exec.LookPath("dmenu"); err != nil {
			return nil, fmt.Errorf("palette backend %q not found in PATH", "dmenu")
		}
		return NewDmenuBackend(), nil
	default:
		return nil, fmt.Errorf("unknown palette backend: %q (expected: auto, rofi, fuzzel, wofi, dmenu)", name)
	}
}
