package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir returns the winsink runtime directory, creating it with owner-only
// permissions. Base directory priority:
// 1) XDG_RUNTIME_DIR (if set)
// 2) /run/user/<uid> (if present)
// 3) /tmp/winsink-runtime-<uid>
func Dir() (string, error) {
	base := ""
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		base = runtimeDir
	} else {
		uid := os.Getuid()
		runUserDir := fmt.Sprintf("/run/user/%d", uid)
		if info, err := os.Stat(runUserDir); err == nil && info.IsDir() {
			base = runUserDir
		} else {
			base = fmt.Sprintf("/tmp/winsink-runtime-%d", uid)
		}
	}

	dir := filepath.Join(base, "winsink")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return dir, nil
}

// SocketPath returns the daemon IPC socket path.
func SocketPath() (string, error) {
	runtimeDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(runtimeDir, "winsink.sock"), nil
}
