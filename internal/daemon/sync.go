package daemon

import (
	"fmt"
	"log/slog"

	"github.com/lowtide/winsink/internal/tracker"
)

// StateSynchronizer cleans up the pinned registry when windows go away.
type StateSynchronizer struct {
	tracker *tracker.Tracker
	save    func() error
	logger  *slog.Logger
}

// NewStateSynchronizer creates a new state synchronizer.
func NewStateSynchronizer(tr *tracker.Tracker, save func() error, logger *slog.Logger) *StateSynchronizer {
	return &StateSynchronizer{
		tracker: tr,
		save:    save,
		logger:  logger,
	}
}

// HandleWindowClosed is called when a tracked window is destroyed. It drops
// the registry record; the window itself needs no release.
func (s *StateSynchronizer) HandleWindowClosed(windowID uint32) {
	rec, ok := s.tracker.Get(windowID)
	if !ok {
		return // Window not in registry, nothing to do
	}

	s.logger.Info("pinned window closed, dropping record",
		"window_id", fmt.Sprintf("%#x", windowID),
		"class", rec.Class,
		"source", string(rec.Source))

	s.tracker.Release(windowID)
	if err := s.save(); err != nil {
		s.logger.Warn("failed to persist pinned state",
			"window_id", fmt.Sprintf("%#x", windowID),
			"error", err)
	}
}
