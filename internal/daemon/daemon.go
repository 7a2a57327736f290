// Package daemon keeps pinned windows at the bottom of the stacking order.
// It tracks what is pinned and why, pins windows matching configured rules,
// re-asserts pins the window manager dropped, and serves the IPC surface
// the CLI and MCP tools talk to.
package daemon

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/lowtide/winsink/internal/config"
	"github.com/lowtide/winsink/internal/ipc"
	"github.com/lowtide/winsink/internal/rules"
	"github.com/lowtide/winsink/internal/stacking"
	"github.com/lowtide/winsink/internal/tracker"
	"github.com/lowtide/winsink/internal/wmdetect"
	"github.com/lowtide/winsink/internal/x11"
)

// Options configures a Daemon.
type Options struct {
	Config    *config.Config
	Conn      *x11.Connection
	Tracker   *tracker.Tracker
	Caps      wmdetect.Capability
	StatePath string // defaults to the standard pinned.json location
	Logger    *slog.Logger
}

// Daemon owns the pinned-window state and applies stacking operations.
type Daemon struct {
	mu      sync.RWMutex
	cfg     *config.Config
	matcher *rules.Matcher

	tracker   *tracker.Tracker
	caps      wmdetect.Capability
	startTime time.Time
	logger    *slog.Logger

	// Injected X and stacking operations, swappable in tests.
	listWindows func() ([]x11.WindowInfo, error)
	windowInfo  func(windowID uint32) (x11.WindowInfo, error)
	applyOp     func(op stacking.Operation, windowID uint32) stacking.Result
	saveState   func() error
}

// New builds a daemon around an established X connection.
func New(opts Options) (*Daemon, error) {
	matcher, err := rules.NewMatcher(opts.Config.Rules)
	if err != nil {
		return nil, err
	}

	statePath := opts.StatePath
	if statePath == "" {
		statePath, err = tracker.StatePath()
		if err != nil {
			return nil, err
		}
	}

	tr := opts.Tracker
	if tr == nil {
		tr = tracker.New()
	}

	d := &Daemon{
		cfg:       opts.Config,
		matcher:   matcher,
		tracker:   tr,
		caps:      opts.Caps,
		startTime: time.Now(),
		logger:    opts.Logger,
	}
	d.listWindows = opts.Conn.ListWindows
	d.windowInfo = opts.Conn.GetWindowInfo
	d.applyOp = applyStacking
	d.saveState = func() error { return tr.SaveTo(statePath) }
	return d, nil
}

// applyStacking routes an operation to the X11 stacking backend.
func applyStacking(op stacking.Operation, windowID uint32) stacking.Result {
	return stacking.Apply(op, stacking.Handle{
		Descriptor: stacking.DescriptorXID,
		Raw:        uintptr(windowID),
	})
}

// Tracker exposes the pinned registry for startup re-assertion and tests.
func (d *Daemon) Tracker() *tracker.Tracker {
	return d.tracker
}

// SaveState persists the pinned registry.
func (d *Daemon) SaveState() error {
	return d.saveState()
}

// ReleaseOnExit reports the current config's effective release_on_exit
// value, so shutdown honors a reloaded config.
func (d *Daemon) ReleaseOnExit() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg.GetReleaseOnExit()
}

// ReloadConfig swaps in a new configuration and rebuilds the rule matcher.
func (d *Daemon) ReloadConfig(cfg *config.Config) error {
	matcher, err := rules.NewMatcher(cfg.Rules)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.cfg = cfg
	d.matcher = matcher
	d.mu.Unlock()
	d.logger.Info("configuration reloaded", "rules", len(cfg.Rules))
	return nil
}

func (d *Daemon) currentMatcher() *rules.Matcher {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.matcher
}

// Status implements the GET_STATUS surface.
func (d *Daemon) Status() ipc.StatusData {
	d.mu.RLock()
	ruleCount := len(d.cfg.Rules)
	caps := d.caps
	d.mu.RUnlock()

	return ipc.StatusData{
		DaemonRunning: true,
		UptimeSeconds: int64(time.Since(d.startTime).Seconds()),
		RuleCount:     ruleCount,
		WindowManager: caps.Name,
		SupportsBelow: caps.SupportsBelow,
		Warning:       caps.Warning(),
		Pinned:        d.tracker.Records(),
	}
}

// ListWindows returns every normal window with its tracked pin state.
func (d *Daemon) ListWindows() ([]ipc.ListedWindow, error) {
	windows, err := d.listWindows()
	if err != nil {
		return nil, err
	}
	out := make([]ipc.ListedWindow, 0, len(windows))
	for _, win := range windows {
		out = append(out, ipc.ListedWindow{
			WindowInfo: win,
			Pinned:     d.tracker.IsPinned(win.ID),
		})
	}
	return out, nil
}

// PinWindow pins a window and records it. An empty source is recorded as
// manual.
func (d *Daemon) PinWindow(windowID uint32, source string) error {
	src := tracker.Source(source)
	if src == "" {
		src = tracker.SourceManual
	}
	return d.pin(windowID, src, "")
}

func (d *Daemon) pin(windowID uint32, source tracker.Source, ruleDesc string) error {
	win, err := d.windowInfo(windowID)
	if err != nil {
		return err
	}
	return d.pinResolved(win, source, ruleDesc)
}

// pinResolved pins a window whose metadata is already known, skipping the
// client-list round trip.
func (d *Daemon) pinResolved(win x11.WindowInfo, source tracker.Source, ruleDesc string) error {
	res := d.applyOp(stacking.OpPin, win.ID)
	if !res.Success {
		return fmt.Errorf("failed to pin window %#x: %s", win.ID, res.Message)
	}

	d.tracker.Pin(tracker.Record{
		WindowID: win.ID,
		Class:    win.Class,
		Title:    win.Title,
		Source:   source,
		Rule:     ruleDesc,
	})
	d.persist()
	d.logger.Info("pinned window",
		"window_id", fmt.Sprintf("%#x", win.ID),
		"class", win.Class,
		"source", string(source))
	return nil
}

// ReleaseWindow releases a window. The registry entry is dropped even when
// the release fails, so stale records cannot pile up.
func (d *Daemon) ReleaseWindow(windowID uint32) error {
	res := d.applyOp(stacking.OpRelease, windowID)
	tracked := d.tracker.Release(windowID)
	if tracked {
		d.persist()
	}
	if !res.Success {
		return fmt.Errorf("failed to release window %#x: %s", windowID, res.Message)
	}
	d.logger.Info("released window",
		"window_id", fmt.Sprintf("%#x", windowID),
		"tracked", tracked)
	return nil
}

// ToggleWindow pins an unpinned window and releases a pinned one. A window
// that already has the below state counts as pinned even when some other
// tool set it.
func (d *Daemon) ToggleWindow(windowID uint32, source string) (string, error) {
	win, err := d.windowInfo(windowID)
	if err != nil {
		return "", err
	}
	if d.tracker.IsPinned(windowID) || win.Below {
		return "released", d.ReleaseWindow(windowID)
	}
	return "pinned", d.PinWindow(windowID, source)
}

// ReleaseAll releases every tracked window and returns how many records
// were dropped. Individual failures are aggregated.
func (d *Daemon) ReleaseAll() (int, error) {
	var merr *multierror.Error
	records := d.tracker.Records()
	for _, rec := range records {
		res := d.applyOp(stacking.OpRelease, rec.WindowID)
		if !res.Success {
			merr = multierror.Append(merr, fmt.Errorf("window %#x: %s", rec.WindowID, res.Message))
		}
		d.tracker.Release(rec.WindowID)
	}
	if len(records) > 0 {
		d.persist()
		d.logger.Info("released all pinned windows", "count", len(records))
	}
	return len(records), merr.ErrorOrNil()
}

func (d *Daemon) persist() {
	if err := d.saveState(); err != nil {
		d.logger.Warn("failed to persist pinned state", "error", err)
	}
}
