package mcp

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/lowtide/winsink/internal/config"
)

func TestParseLoginctlSessions(t *testing.T) {
	output := "     3 1000 alice seat0 tty2\n" +
		"     7 1001 bob   seat0 tty3\n" +
		"    12 1000 alice -     -\n" +
		"\n"

	got := parseLoginctlSessions(output, "1000")
	want := []string{"3", "12"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parseLoginctlSessions = %v, want %v", got, want)
	}

	if got := parseLoginctlSessions(output, "2000"); got != nil {
		t.Fatalf("expected no sessions for unknown uid, got %v", got)
	}
}

func TestDetectDisplayFromSockets(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"X0", "X1", "X10", "junk", "Xabc"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	if got := detectDisplayFromSockets(dir); got != ":10" {
		t.Errorf("detectDisplayFromSockets = %q, want %q", got, ":10")
	}

	if got := detectDisplayFromSockets(filepath.Join(dir, "missing")); got != "" {
		t.Errorf("missing dir: got %q, want empty", got)
	}

	if got := detectDisplayFromSockets(t.TempDir()); got != "" {
		t.Errorf("empty dir: got %q, want empty", got)
	}
}

func TestReadProcEnviron(t *testing.T) {
	origReadFile := readFileFn
	defer func() { readFileFn = origReadFile }()

	readFileFn = func(string) ([]byte, error) {
		return []byte("DISPLAY=:1\x00XAUTHORITY=/home/alice/.Xauthority\x00PATH=/usr/bin\x00broken\x00"), nil
	}

	env, err := readProcEnviron("123")
	if err != nil {
		t.Fatal(err)
	}
	if env["DISPLAY"] != ":1" {
		t.Errorf("DISPLAY = %q, want :1", env["DISPLAY"])
	}
	if env["XAUTHORITY"] != "/home/alice/.Xauthority" {
		t.Errorf("XAUTHORITY = %q", env["XAUTHORITY"])
	}
	if _, ok := env["broken"]; ok {
		t.Error("entry without '=' should be skipped")
	}
}

func TestEnsureDisplayEnv(t *testing.T) {
	type result struct {
		display    string
		xauthority string
	}

	run := func(t *testing.T, env map[string]string, cfgDisplay string, sessionDisplay, sessionXAuth string, socketDisplay string) result {
		t.Helper()
		origGetenv, origSetenv := getenvFn, setenvFn
		origSession, origSocket := detectSessionX11EnvFn, detectDisplayFromSocketFn
		defer func() {
			getenvFn, setenvFn = origGetenv, origSetenv
			detectSessionX11EnvFn, detectDisplayFromSocketFn = origSession, origSocket
		}()

		set := map[string]string{}
		getenvFn = func(key string) string { return env[key] }
		setenvFn = func(key, value string) error {
			set[key] = value
			return nil
		}
		detectSessionX11EnvFn = func() (string, string) { return sessionDisplay, sessionXAuth }
		detectDisplayFromSocketFn = func(string) string { return socketDisplay }

		cfg := config.DefaultConfig()
		cfg.Display = cfgDisplay
		ensureDisplayEnv(cfg)
		return result{display: set["DISPLAY"], xauthority: set["XAUTHORITY"]}
	}

	t.Run("config display wins over detection", func(t *testing.T) {
		got := run(t, map[string]string{"HOME": "/nonexistent"}, ":7", ":1", "", ":0")
		if got.display != ":7" {
			t.Errorf("DISPLAY = %q, want :7", got.display)
		}
	})

	t.Run("session detection fills both values", func(t *testing.T) {
		got := run(t, map[string]string{"HOME": "/nonexistent"}, "", ":1", "/run/user/1000/xauth", "")
		if got.display != ":1" || got.xauthority != "/run/user/1000/xauth" {
			t.Errorf("got %+v, want session values", got)
		}
	})

	t.Run("socket scan is the last resort", func(t *testing.T) {
		got := run(t, map[string]string{"HOME": "/nonexistent"}, "", "", "", ":2")
		if got.display != ":2" {
			t.Errorf("DISPLAY = %q, want :2", got.display)
		}
	})
}
