package daemon

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lowtide/winsink/internal/config"
	"github.com/lowtide/winsink/internal/rules"
	"github.com/lowtide/winsink/internal/stacking"
	"github.com/lowtide/winsink/internal/tracker"
	"github.com/lowtide/winsink/internal/wmdetect"
	"github.com/lowtide/winsink/internal/x11"
)

// fakeWorld simulates the X server's view of windows and records every
// stacking operation the daemon issues.
type fakeWorld struct {
	mu          sync.Mutex
	windows     map[uint32]x11.WindowInfo
	pins        []uint32
	releases    []uint32
	failPin     map[uint32]string
	failRelease map[uint32]string
	saves       int
}

func newFakeWorld(windows ...x11.WindowInfo) *fakeWorld {
	w := &fakeWorld{
		windows:     make(map[uint32]x11.WindowInfo),
		failPin:     make(map[uint32]string),
		failRelease: make(map[uint32]string),
	}
	for _, win := range windows {
		w.windows[win.ID] = win
	}
	return w
}

func (w *fakeWorld) list() ([]x11.WindowInfo, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]x11.WindowInfo, 0, len(w.windows))
	for _, win := range w.windows {
		out = append(out, win)
	}
	return out, nil
}

func (w *fakeWorld) info(windowID uint32) (x11.WindowInfo, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	win, ok := w.windows[windowID]
	if !ok {
		return x11.WindowInfo{}, fmt.Errorf("window %#x is not in the client list", windowID)
	}
	return win, nil
}

func (w *fakeWorld) apply(op stacking.Operation, windowID uint32) stacking.Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch op {
	case stacking.OpPin:
		if msg, ok := w.failPin[windowID]; ok {
			return stacking.Result{Success: false, Message: msg}
		}
		w.pins = append(w.pins, windowID)
		if win, ok := w.windows[windowID]; ok {
			win.Below = true
			w.windows[windowID] = win
		}
	case stacking.OpRelease:
		if msg, ok := w.failRelease[windowID]; ok {
			return stacking.Result{Success: false, Message: msg}
		}
		w.releases = append(w.releases, windowID)
		if win, ok := w.windows[windowID]; ok {
			win.Below = false
			w.windows[windowID] = win
		}
	}
	return stacking.Result{Success: true}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDaemon(t *testing.T, cfg *config.Config, w *fakeWorld) *Daemon {
	t.Helper()
	matcher, err := rules.NewMatcher(cfg.Rules)
	if err != nil {
		t.Fatalf("NewMatcher() error = %v", err)
	}
	d := &Daemon{
		cfg:       cfg,
		matcher:   matcher,
		tracker:   tracker.New(),
		caps:      wmdetect.Capability{Name: "TestWM", SupportsBelow: true},
		startTime: time.Now(),
		logger:    discardLogger(),
	}
	d.listWindows = w.list
	d.windowInfo = w.info
	d.applyOp = w.apply
	d.saveState = func() error { w.mu.Lock(); w.saves++; w.mu.Unlock(); return nil }
	return d
}

func newTestReconciler(d *Daemon) *Reconciler {
	sync := NewStateSynchronizer(d.tracker, d.saveState, d.logger)
	return NewReconciler(ReconcilerConfig{Logger: d.logger}, d, sync)
}

func TestPinWindow(t *testing.T) {
	w := newFakeWorld(x11.WindowInfo{ID: 0x2a, Class: "Spotify", Title: "Spotify Premium", Desktop: 1})
	d := newTestDaemon(t, config.DefaultConfig(), w)

	if err := d.PinWindow(0x2a, ""); err != nil {
		t.Fatalf("PinWindow() error = %v", err)
	}
	if len(w.pins) != 1 || w.pins[0] != 0x2a {
		t.Fatalf("pins = %v, want [0x2a]", w.pins)
	}

	rec, ok := d.tracker.Get(0x2a)
	if !ok {
		t.Fatal("window not tracked after pin")
	}
	if rec.Source != tracker.SourceManual {
		t.Errorf("source = %q, want manual for empty source", rec.Source)
	}
	if rec.Class != "Spotify" || rec.Title != "Spotify Premium" {
		t.Errorf("record metadata = %+v", rec)
	}
	if w.saves != 1 {
		t.Errorf("saves = %d, want 1", w.saves)
	}
}

func TestPinWindowMissingWindow(t *testing.T) {
	w := newFakeWorld()
	d := newTestDaemon(t, config.DefaultConfig(), w)

	err := d.PinWindow(0x99, "")
	if err == nil {
		t.Fatal("expected error for unknown window")
	}
	if len(w.pins) != 0 {
		t.Errorf("no stacking operation should be issued, got pins = %v", w.pins)
	}
	if d.tracker.Len() != 0 {
		t.Error("nothing should be tracked")
	}
}

func TestPinWindowStackingFailure(t *testing.T) {
	w := newFakeWorld(x11.WindowInfo{ID: 0x2a, Class: "Spotify"})
	w.failPin[0x2a] = "X server rejected the state change event: BadWindow"
	d := newTestDaemon(t, config.DefaultConfig(), w)

	err := d.PinWindow(0x2a, "")
	if err == nil {
		t.Fatal("expected error when stacking fails")
	}
	if !strings.Contains(err.Error(), "BadWindow") {
		t.Errorf("error should carry the backend message, got %v", err)
	}
	if d.tracker.IsPinned(0x2a) {
		t.Error("failed pin must not be tracked")
	}
}

func TestReleaseWindow(t *testing.T) {
	w := newFakeWorld(x11.WindowInfo{ID: 0x2a, Class: "Spotify", Below: true})
	d := newTestDaemon(t, config.DefaultConfig(), w)
	d.tracker.Pin(tracker.Record{WindowID: 0x2a, Source: tracker.SourceManual})

	if err := d.ReleaseWindow(0x2a); err != nil {
		t.Fatalf("ReleaseWindow() error = %v", err)
	}
	if len(w.releases) != 1 || w.releases[0] != 0x2a {
		t.Fatalf("releases = %v, want [0x2a]", w.releases)
	}
	if d.tracker.IsPinned(0x2a) {
		t.Error("window still tracked after release")
	}
}

func TestReleaseUntrackedWindowStillReleases(t *testing.T) {
	w := newFakeWorld(x11.WindowInfo{ID: 0x2b, Class: "mpv", Below: true})
	d := newTestDaemon(t, config.DefaultConfig(), w)

	if err := d.ReleaseWindow(0x2b); err != nil {
		t.Fatalf("ReleaseWindow() error = %v", err)
	}
	if len(w.releases) != 1 {
		t.Fatalf("releases = %v, want one release", w.releases)
	}
	if w.saves != 0 {
		t.Errorf("untracked release should not rewrite state, saves = %d", w.saves)
	}
}

func TestToggleWindow(t *testing.T) {
	w := newFakeWorld(
		x11.WindowInfo{ID: 1, Class: "Spotify"},
		x11.WindowInfo{ID: 2, Class: "mpv", Below: true},
	)
	d := newTestDaemon(t, config.DefaultConfig(), w)

	action, err := d.ToggleWindow(1, "")
	if err != nil {
		t.Fatalf("ToggleWindow() error = %v", err)
	}
	if action != "pinned" {
		t.Errorf("toggle of plain window = %q, want pinned", action)
	}

	action, err = d.ToggleWindow(1, "")
	if err != nil {
		t.Fatalf("ToggleWindow() error = %v", err)
	}
	if action != "released" {
		t.Errorf("toggle of tracked window = %q, want released", action)
	}

	// Window 2 has the below state without being tracked; toggle releases.
	action, err = d.ToggleWindow(2, "")
	if err != nil {
		t.Fatalf("ToggleWindow() error = %v", err)
	}
	if action != "released" {
		t.Errorf("toggle of externally-below window = %q, want released", action)
	}
}

func TestReleaseAll(t *testing.T) {
	w := newFakeWorld(
		x11.WindowInfo{ID: 1, Below: true},
		x11.WindowInfo{ID: 2, Below: true},
		x11.WindowInfo{ID: 3, Below: true},
	)
	d := newTestDaemon(t, config.DefaultConfig(), w)
	for id := uint32(1); id <= 3; id++ {
		d.tracker.Pin(tracker.Record{WindowID: id, Source: tracker.SourceManual})
	}

	released, err := d.ReleaseAll()
	if err != nil {
		t.Fatalf("ReleaseAll() error = %v", err)
	}
	if released != 3 {
		t.Errorf("released = %d, want 3", released)
	}
	if d.tracker.Len() != 0 {
		t.Errorf("tracker should be empty, has %d", d.tracker.Len())
	}
	if len(w.releases) != 3 {
		t.Errorf("releases = %v, want 3 operations", w.releases)
	}
}

func TestReleaseAllAggregatesFailures(t *testing.T) {
	w := newFakeWorld(
		x11.WindowInfo{ID: 1, Below: true},
		x11.WindowInfo{ID: 2, Below: true},
	)
	w.failRelease[2] = "failed to open X display: connection refused"
	d := newTestDaemon(t, config.DefaultConfig(), w)
	d.tracker.Pin(tracker.Record{WindowID: 1, Source: tracker.SourceManual})
	d.tracker.Pin(tracker.Record{WindowID: 2, Source: tracker.SourceManual})

	released, err := d.ReleaseAll()
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if !strings.Contains(err.Error(), "0x2") {
		t.Errorf("error should name the failing window, got %v", err)
	}
	if released != 2 {
		t.Errorf("released = %d, want 2 records dropped", released)
	}
	if d.tracker.Len() != 0 {
		t.Error("registry should be cleared even on partial failure")
	}
}

func TestStatus(t *testing.T) {
	w := newFakeWorld()
	cfg := config.DefaultConfig()
	cfg.Rules = []config.Rule{{Class: "Spotify"}}
	d := newTestDaemon(t, cfg, w)
	d.tracker.Pin(tracker.Record{WindowID: 0x2a, Source: tracker.SourceRule, Rule: "class=Spotify"})

	status := d.Status()
	if !status.DaemonRunning {
		t.Error("DaemonRunning = false")
	}
	if status.RuleCount != 1 {
		t.Errorf("RuleCount = %d, want 1", status.RuleCount)
	}
	if status.WindowManager != "TestWM" || !status.SupportsBelow {
		t.Errorf("wm fields = %q/%v", status.WindowManager, status.SupportsBelow)
	}
	if len(status.Pinned) != 1 || status.Pinned[0].Rule != "class=Spotify" {
		t.Errorf("Pinned = %+v", status.Pinned)
	}
}

func TestListWindowsPinnedFlag(t *testing.T) {
	w := newFakeWorld(
		x11.WindowInfo{ID: 1, Class: "Spotify"},
		x11.WindowInfo{ID: 2, Class: "kitty"},
	)
	d := newTestDaemon(t, config.DefaultConfig(), w)
	d.tracker.Pin(tracker.Record{WindowID: 1, Source: tracker.SourceManual})

	windows, err := d.ListWindows()
	if err != nil {
		t.Fatalf("ListWindows() error = %v", err)
	}
	byID := make(map[uint32]bool, len(windows))
	for _, win := range windows {
		byID[win.ID] = win.Pinned
	}
	if !byID[1] {
		t.Error("window 1 should report pinned")
	}
	if byID[2] {
		t.Error("window 2 should not report pinned")
	}
}

func TestReloadConfig(t *testing.T) {
	w := newFakeWorld(x11.WindowInfo{ID: 1, Class: "mpv"})
	d := newTestDaemon(t, config.DefaultConfig(), w)

	cfg := config.DefaultConfig()
	cfg.Rules = []config.Rule{{Class: "^mpv$"}}
	if err := d.ReloadConfig(cfg); err != nil {
		t.Fatalf("ReloadConfig() error = %v", err)
	}

	newTestReconciler(d).ReconcileNow()
	if !d.tracker.IsPinned(1) {
		t.Error("reloaded rule should pin the mpv window on the next pass")
	}
}

func TestReleaseOnExitFollowsReload(t *testing.T) {
	w := newFakeWorld()
	d := newTestDaemon(t, config.DefaultConfig(), w)

	if !d.ReleaseOnExit() {
		t.Fatal("default config should release on exit")
	}

	off := false
	cfg := config.DefaultConfig()
	cfg.ReleaseOnExit = &off
	if err := d.ReloadConfig(cfg); err != nil {
		t.Fatalf("ReloadConfig() error = %v", err)
	}

	if d.ReleaseOnExit() {
		t.Error("ReleaseOnExit() should reflect the reloaded config")
	}
}

func TestReconcilerRulePins(t *testing.T) {
	w := newFakeWorld(
		x11.WindowInfo{ID: 1, Class: "Spotify", Title: "Spotify"},
		x11.WindowInfo{ID: 2, Class: "kitty", Title: "shell"},
	)
	cfg := config.DefaultConfig()
	cfg.Rules = []config.Rule{{Class: "^Spotify$"}}
	d := newTestDaemon(t, cfg, w)

	newTestReconciler(d).ReconcileNow()

	if len(w.pins) != 1 || w.pins[0] != 1 {
		t.Fatalf("pins = %v, want only the Spotify window", w.pins)
	}
	rec, ok := d.tracker.Get(1)
	if !ok {
		t.Fatal("rule-pinned window not tracked")
	}
	if rec.Source != tracker.SourceRule {
		t.Errorf("source = %q, want rule", rec.Source)
	}
	if rec.Rule != "class=^Spotify$" {
		t.Errorf("rule = %q", rec.Rule)
	}
	if d.tracker.IsPinned(2) {
		t.Error("non-matching window was pinned")
	}
}

func TestReconcilerAlreadyPinnedNotRepinned(t *testing.T) {
	w := newFakeWorld(x11.WindowInfo{ID: 1, Class: "Spotify", Below: true})
	cfg := config.DefaultConfig()
	cfg.Rules = []config.Rule{{Class: "^Spotify$"}}
	d := newTestDaemon(t, cfg, w)
	d.tracker.Pin(tracker.Record{WindowID: 1, Source: tracker.SourceRule})

	newTestReconciler(d).ReconcileNow()

	if len(w.pins) != 0 {
		t.Errorf("pins = %v, want none for a window already below", w.pins)
	}
}

func TestReconcilerPrunesClosedWindows(t *testing.T) {
	w := newFakeWorld(x11.WindowInfo{ID: 1, Class: "Spotify", Below: true})
	d := newTestDaemon(t, config.DefaultConfig(), w)
	d.tracker.Pin(tracker.Record{WindowID: 1, Source: tracker.SourceManual})
	d.tracker.Pin(tracker.Record{WindowID: 0xdead, Class: "gone", Source: tracker.SourceManual})

	newTestReconciler(d).ReconcileNow()

	if d.tracker.IsPinned(0xdead) {
		t.Error("closed window still tracked")
	}
	if !d.tracker.IsPinned(1) {
		t.Error("live window was pruned")
	}
	if len(w.releases) != 0 {
		t.Errorf("closed windows need no release, got %v", w.releases)
	}
}

func TestReconcilerReassertsDroppedPin(t *testing.T) {
	w := newFakeWorld(
		x11.WindowInfo{ID: 1, Class: "Spotify", Below: false},
		x11.WindowInfo{ID: 2, Class: "mpv", Below: true},
	)
	d := newTestDaemon(t, config.DefaultConfig(), w)
	d.tracker.Pin(tracker.Record{WindowID: 1, Source: tracker.SourceManual})
	d.tracker.Pin(tracker.Record{WindowID: 2, Source: tracker.SourceManual})

	newTestReconciler(d).ReconcileNow()

	if len(w.pins) != 1 || w.pins[0] != 1 {
		t.Fatalf("pins = %v, want re-assert of window 1 only", w.pins)
	}
}

func TestHandleWindowClosedUntrackedNoop(t *testing.T) {
	w := newFakeWorld()
	d := newTestDaemon(t, config.DefaultConfig(), w)
	sync := NewStateSynchronizer(d.tracker, d.saveState, d.logger)

	sync.HandleWindowClosed(0x77)
	if w.saves != 0 {
		t.Errorf("untracked close should not save, saves = %d", w.saves)
	}
}
