package wmdetect

import (
	"errors"
	"strings"
	"testing"

	"github.com/BurntSushi/xgbutil"
)

func stubProbes(t *testing.T, name string, nameErr error, atoms []string, atomsErr error) {
	t.Helper()
	origName, origSupported := wmNameFn, supportedFn
	wmNameFn = func(xu *xgbutil.XUtil) (string, error) { return name, nameErr }
	supportedFn = func(xu *xgbutil.XUtil) ([]string, error) { return atoms, atomsErr }
	t.Cleanup(func() {
		wmNameFn = origName
		supportedFn = origSupported
	})
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		wmName   string
		nameErr  error
		atoms    []string
		atomsErr error
		want     Capability
	}{
		{
			name:   "full support",
			wmName: "Openbox",
			atoms:  []string{"_NET_WM_STATE", "_NET_WM_STATE_BELOW", "_NET_CLIENT_LIST"},
			want:   Capability{Name: "Openbox", SupportsBelow: true},
		},
		{
			name:   "no below support",
			wmName: "ancientwm",
			atoms:  []string{"_NET_WM_STATE", "_NET_CLIENT_LIST"},
			want:   Capability{Name: "ancientwm"},
		},
		{
			name:    "no ewmh window manager",
			nameErr: errors.New("no supporting wm check"),
			atoms:   []string{"_NET_WM_STATE_BELOW"},
			want:    Capability{SupportsBelow: true},
		},
		{
			name:     "supported probe fails",
			wmName:   "i3",
			atomsErr: errors.New("BadWindow"),
			want:     Capability{Name: "i3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubProbes(t, tt.wmName, tt.nameErr, tt.atoms, tt.atomsErr)
			got := Detect(nil)
			if got != tt.want {
				t.Errorf("Detect() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWarning(t *testing.T) {
	if w := (Capability{Name: "KWin", SupportsBelow: true}).Warning(); w != "" {
		t.Errorf("expected no warning for full support, got %q", w)
	}

	w := Capability{Name: "ancientwm"}.Warning()
	if !strings.Contains(w, "ancientwm") || !strings.Contains(w, "_NET_WM_STATE_BELOW") {
		t.Errorf("warning should name the WM and the missing atom, got %q", w)
	}

	w = Capability{}.Warning()
	if !strings.Contains(w, "no EWMH-compliant window manager") {
		t.Errorf("warning for missing WM = %q", w)
	}
}
