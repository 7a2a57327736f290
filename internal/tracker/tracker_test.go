package tracker

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestPinReleaseGet(t *testing.T) {
	tr := New()

	tr.Pin(Record{WindowID: 0x2a, Class: "Spotify", Source: SourceManual})
	if !tr.IsPinned(0x2a) {
		t.Fatal("expected window to be pinned")
	}
	if tr.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tr.Len())
	}

	rec, ok := tr.Get(0x2a)
	if !ok {
		t.Fatal("Get() did not find the record")
	}
	if rec.Class != "Spotify" || rec.Source != SourceManual {
		t.Errorf("record = %+v", rec)
	}
	if rec.PinnedAt.IsZero() {
		t.Error("Pin() should stamp PinnedAt")
	}

	if !tr.Release(0x2a) {
		t.Fatal("Release() = false for a tracked window")
	}
	if tr.Release(0x2a) {
		t.Fatal("Release() = true for an already released window")
	}
	if tr.IsPinned(0x2a) {
		t.Fatal("window still pinned after release")
	}
}

func TestRecordsOrderedByPinTime(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	stamps := []time.Time{base.Add(2 * time.Minute), base, base.Add(time.Minute)}
	orig := now
	i := 0
	now = func() time.Time { v := stamps[i]; i++; return v }
	defer func() { now = orig }()

	tr := New()
	tr.Pin(Record{WindowID: 3, Source: SourceRule})
	tr.Pin(Record{WindowID: 1, Source: SourceManual})
	tr.Pin(Record{WindowID: 2, Source: SourceMCP})

	recs := tr.Records()
	if len(recs) != 3 {
		t.Fatalf("len(Records()) = %d, want 3", len(recs))
	}
	wantOrder := []uint32{1, 2, 3}
	for i, want := range wantOrder {
		if recs[i].WindowID != want {
			t.Errorf("Records()[%d].WindowID = %d, want %d", i, recs[i].WindowID, want)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "pinned.json")

	tr := New()
	tr.Pin(Record{WindowID: 0x1a1, Class: "mpv", Title: "movie.mkv", Source: SourceRule, Rule: "class=mpv"})
	tr.Pin(Record{WindowID: 0x1a2, Class: "Spotify", Source: SourceManual})
	if err := tr.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("loaded Len() = %d, want 2", loaded.Len())
	}
	rec, ok := loaded.Get(0x1a1)
	if !ok {
		t.Fatal("loaded tracker missing window 0x1a1")
	}
	if rec.Rule != "class=mpv" || rec.Source != SourceRule {
		t.Errorf("loaded record = %+v", rec)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	tr, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if tr.Len() != 0 {
		t.Fatalf("expected empty tracker, got %d records", tr.Len())
	}
}

func TestLoadFromCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pinned.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for corrupt state file")
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(id uint32) {
			defer wg.Done()
			tr.Pin(Record{WindowID: id, Source: SourceManual})
			tr.IsPinned(id)
			tr.Records()
			tr.Release(id)
		}(uint32(i + 1))
	}
	wg.Wait()
	if tr.Len() != 0 {
		t.Fatalf("Len() = %d after all releases, want 0", tr.Len())
	}
}
