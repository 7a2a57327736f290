package tui

import (
	"testing"

	"github.com/lowtide/winsink/internal/ipc"
	"github.com/lowtide/winsink/internal/x11"
)

// The Windows tab must be part of the package on every platform; these
// tests reference its symbols directly so a build that drops the file
// fails here first.

func TestWindowRows(t *testing.T) {
	rows := windowRows([]ipc.ListedWindow{
		{WindowInfo: x11.WindowInfo{ID: 0x2a, Class: "Firefox", Title: "Mozilla Firefox", Desktop: 1}, Pinned: true},
		{WindowInfo: x11.WindowInfo{ID: 0x300, Class: "kitty", Title: "htop", Desktop: -1}},
	})

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	if rows[0][0] != "0x2a" {
		t.Errorf("id column = %q, want %q", rows[0][0], "0x2a")
	}
	if rows[0][4] != "yes" {
		t.Errorf("pinned column = %q, want %q", rows[0][4], "yes")
	}
	if rows[1][3] != "all" {
		t.Errorf("sticky desktop column = %q, want %q", rows[1][3], "all")
	}
	if rows[1][4] != "" {
		t.Errorf("unpinned column = %q, want empty", rows[1][4])
	}
}

func TestWindowsTabActionWithoutSelection(t *testing.T) {
	w := NewWindowsTab(nil)

	w, cmd := w.actionCmd("toggle")
	if cmd != nil {
		t.Error("expected no command when nothing is selected")
	}
	if w.status != "no window selected" {
		t.Errorf("status = %q, want %q", w.status, "no window selected")
	}
}
