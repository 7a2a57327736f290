// Package wmdetect probes the running window manager for the EWMH
// capabilities winsink depends on. Pin requests are advisory hints; a
// window manager that does not advertise _NET_WM_STATE_BELOW will most
// likely ignore them, and the daemon warns about that up front instead of
// failing silently on every sweep.
package wmdetect

import (
	"fmt"

	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Capability describes what the running window manager advertises.
type Capability struct {
	Name          string `json:"name"` // "" when no EWMH window manager responded
	SupportsBelow bool   `json:"supports_below"`
}

// Seams for tests.
var (
	wmNameFn    = ewmh.GetEwmhWM
	supportedFn = ewmh.SupportedGet
)

// Detect probes the window manager behind the connection. Probe failures
// degrade to an empty capability rather than erroring; absence of an
// answer is itself the finding.
func Detect(xu *xgbutil.XUtil) Capability {
	caps := Capability{}
	if name, err := wmNameFn(xu); err == nil {
		caps.Name = name
	}
	if atoms, err := supportedFn(xu); err == nil {
		for _, atom := range atoms {
			if atom == "_NET_WM_STATE_BELOW" {
				caps.SupportsBelow = true
				break
			}
		}
	}
	return caps
}

// Warning returns a human-readable caveat for status output and daemon
// startup, or "" when the window manager fully supports pinning.
func (c Capability) Warning() string {
	switch {
	case c.Name == "" && !c.SupportsBelow:
		return "no EWMH-compliant window manager detected; pin requests will likely be ignored"
	case !c.SupportsBelow:
		return fmt.Sprintf("window manager %q does not advertise _NET_WM_STATE_BELOW; pin requests may be ignored", c.Name)
	default:
		return ""
	}
}
