package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lowtide/winsink/internal/stacking"
	"github.com/lowtide/winsink/internal/tracker"
	"github.com/lowtide/winsink/internal/x11"
)

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically checks for state drift and corrects it: it prunes
// records of closed windows, pins new windows that match rules, and
// re-pins tracked windows whose below state the window manager dropped.
type Reconciler struct {
	interval time.Duration
	daemon   *Daemon
	sync     *StateSynchronizer
	logger   *slog.Logger
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, d *Daemon, sync *StateSynchronizer) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	return &Reconciler{
		interval: interval,
		daemon:   d,
		sync:     sync,
		logger:   cfg.Logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile()
		}
	}
}

// reconcile performs a single reconciliation pass.
func (r *Reconciler) reconcile() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	d := r.daemon

	windows, err := d.listWindows()
	if err != nil {
		r.logger.Error("reconciler: failed to list windows", "error", err)
		return
	}

	live := make(map[uint32]x11.WindowInfo, len(windows))
	for _, win := range windows {
		live[win.ID] = win
	}

	// Prune records whose window no longer exists.
	for _, rec := range d.tracker.Records() {
		if _, ok := live[rec.WindowID]; !ok {
			r.sync.HandleWindowClosed(rec.WindowID)
		}
	}

	// Snapshot before rule pins so a window pinned this pass is not
	// immediately re-asserted against its stale listing.
	tracked := d.tracker.Records()

	// Pin new windows that match a rule.
	matcher := d.currentMatcher()
	if !matcher.Empty() {
		for _, win := range windows {
			if d.tracker.IsPinned(win.ID) {
				continue
			}
			rule, ok := matcher.Match(win)
			if !ok {
				continue
			}
			if err := d.pinResolved(win, tracker.SourceRule, rule.String()); err != nil {
				r.logger.Warn("reconciler: rule pin failed",
					"window_id", fmt.Sprintf("%#x", win.ID),
					"rule", rule.String(),
					"error", err)
			}
		}
	}

	// Re-assert pins the window manager dropped.
	for _, rec := range tracked {
		win, ok := live[rec.WindowID]
		if !ok || win.Below {
			continue
		}
		res := d.applyOp(stacking.OpPin, rec.WindowID)
		if !res.Success {
			r.logger.Warn("reconciler: failed to re-assert pin",
				"window_id", fmt.Sprintf("%#x", rec.WindowID),
				"error", res.Message)
			continue
		}
		r.logger.Info("reconciler: re-asserted pin",
			"window_id", fmt.Sprintf("%#x", rec.WindowID),
			"class", rec.Class)
	}
}

// ReconcileNow triggers an immediate reconciliation pass.
func (r *Reconciler) ReconcileNow() {
	r.reconcile()
}
