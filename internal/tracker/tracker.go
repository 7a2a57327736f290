// Package tracker records which windows winsink pinned and why. The daemon
// re-asserts this state after restarts and releases everything in it on
// shutdown when release_on_exit is set.
package tracker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Source identifies what caused a window to be pinned.
type Source string

const (
	SourceManual Source = "manual"
	SourceRule   Source = "rule"
	SourceMCP    Source = "mcp"
)

// Record describes one pinned window.
type Record struct {
	WindowID uint32    `json:"window_id"`
	Class    string    `json:"class,omitempty"`
	Title    string    `json:"title,omitempty"`
	Source   Source    `json:"source"`
	Rule     string    `json:"rule,omitempty"`
	PinnedAt time.Time `json:"pinned_at"`
}

var now = time.Now

// Tracker is a concurrency-safe registry of pinned windows.
type Tracker struct {
	mu      sync.RWMutex
	records map[uint32]Record
}

func New() *Tracker {
	return &Tracker{records: make(map[uint32]Record)}
}

// Pin records the window as pinned, overwriting any existing record. A zero
// PinnedAt is stamped with the current time.
func (t *Tracker) Pin(rec Record) {
	if rec.PinnedAt.IsZero() {
		rec.PinnedAt = now()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[rec.WindowID] = rec
}

// Release drops the window's record and reports whether it was tracked.
func (t *Tracker) Release(windowID uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.records[windowID]
	delete(t.records, windowID)
	return ok
}

func (t *Tracker) Get(windowID uint32) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[windowID]
	return rec, ok
}

func (t *Tracker) IsPinned(windowID uint32) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.records[windowID]
	return ok
}

// Records returns all pinned windows ordered by pin time, then window ID.
func (t *Tracker) Records() []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Record, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PinnedAt.Equal(out[j].PinnedAt) {
			return out[i].PinnedAt.Before(out[j].PinnedAt)
		}
		return out[i].WindowID < out[j].WindowID
	})
	return out
}

func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// stateFile is the on-disk shape of the pinned registry.
type stateFile struct {
	Pinned []Record `json:"pinned"`
}

// StatePath returns the persistence path for the pinned registry.
func StatePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "winsink", "pinned.json"), nil
}

// Save writes the registry to the standard location.
func (t *Tracker) Save() error {
	path, err := StatePath()
	if err != nil {
		return err
	}
	return t.SaveTo(path)
}

// SaveTo writes the registry to path, creating parent directories as needed.
func (t *Tracker) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	state := stateFile{Pinned: t.Records()}
	data, err := json.MarshalIndent(&state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode pinned state: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write pinned state: %w", err)
	}
	return nil
}

// Load reads the registry from the standard location. A missing file yields
// an empty tracker.
func Load() (*Tracker, error) {
	path, err := StatePath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the registry from path. A missing file yields an empty
// tracker.
func LoadFrom(path string) (*Tracker, error) {
	t := New()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pinned state: %w", err)
	}
	var state stateFile
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse pinned state: %w", err)
	}
	for _, rec := range state.Pinned {
		t.records[rec.WindowID] = rec
	}
	return t, nil
}
