package runtimepath

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDir_UsesXDGRuntimeDirWhenSet(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	if got != filepath.Join(td, "winsink") {
		t.Fatalf("Dir() = %q, want %q", got, filepath.Join(td, "winsink"))
	}

	info, err := os.Stat(got)
	if err != nil {
		t.Fatalf("stat runtime dir: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("runtime path is not a directory")
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Fatalf("runtime dir perm = %o, want 0700", perm)
	}
}

func TestDir_FallbacksWhenXDGRuntimeDirMissing(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	if got == "" {
		t.Fatal("Dir() returned empty path")
	}
	if filepath.Base(got) != "winsink" {
		t.Fatalf("Dir() = %q, want a winsink subdirectory", got)
	}
}

func TestSocketPath(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	socket, err := SocketPath()
	if err != nil {
		t.Fatalf("SocketPath() error: %v", err)
	}
	if !strings.HasSuffix(socket, "/winsink/winsink.sock") {
		t.Fatalf("SocketPath() = %q, missing suffix", socket)
	}
}
