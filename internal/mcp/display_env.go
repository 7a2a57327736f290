package mcp

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/lowtide/winsink/internal/config"
)

// Seams for tests.
var (
	runCommandOutputFn        = runCommandOutput
	readFileFn                = os.ReadFile
	readDirFn                 = os.ReadDir
	detectSessionX11EnvFn     = detectSessionX11Env
	detectDisplayFromSocketFn = detectDisplayFromSockets
	setenvFn                  = os.Setenv
	getenvFn                  = os.Getenv
)

// ensureDisplayEnv fills in DISPLAY and XAUTHORITY for this process when
// the MCP client launched it without a GUI environment, so standalone X
// calls can connect. Resolution order: existing env, config, the user's
// logind session, then the newest /tmp/.X11-unix socket. Nothing found is
// not an error here; the X connection will fail with its own message.
func ensureDisplayEnv(cfg *config.Config) {
	display := strings.TrimSpace(getenvFn("DISPLAY"))
	xauthority := strings.TrimSpace(getenvFn("XAUTHORITY"))

	if display == "" && cfg != nil {
		display = strings.TrimSpace(cfg.Display)
	}

	if display == "" || xauthority == "" {
		detectedDisplay, detectedXAuthority := detectSessionX11EnvFn()
		if display == "" {
			display = strings.TrimSpace(detectedDisplay)
		}
		if xauthority == "" {
			xauthority = strings.TrimSpace(detectedXAuthority)
		}
	}

	if display == "" {
		display = detectDisplayFromSocketFn("/tmp/.X11-unix")
	}

	if xauthority == "" {
		home := strings.TrimSpace(getenvFn("HOME"))
		if home == "" {
			if detectedHome, err := os.UserHomeDir(); err == nil {
				home = detectedHome
			}
		}
		if home != "" {
			candidate := filepath.Join(home, ".Xauthority")
			if _, err := os.Stat(candidate); err == nil {
				xauthority = candidate
			}
		}
	}

	if display != "" {
		setenvFn("DISPLAY", display)
	}
	if xauthority != "" {
		setenvFn("XAUTHORITY", xauthority)
	}
}

func runCommandOutput(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// detectSessionX11Env asks logind for this user's graphical session and
// reads DISPLAY/XAUTHORITY from the session leader's environment.
func detectSessionX11Env() (display string, xauthority string) {
	uid := strconv.Itoa(os.Getuid())
	out, err := runCommandOutputFn("loginctl", "list-sessions", "--no-legend")
	if err != nil {
		return "", ""
	}
	sessionIDs := parseLoginctlSessions(out, uid)
	for _, sessionID := range sessionIDs {
		d := strings.TrimSpace(loginctlShowSessionProp(sessionID, "Display"))
		if d == "" || strings.EqualFold(d, "n/a") {
			continue
		}

		xauth := ""
		leader := strings.TrimSpace(loginctlShowSessionProp(sessionID, "Leader"))
		if leader != "" && leader != "0" {
			if envMap, err := readProcEnviron(leader); err == nil {
				if ed := strings.TrimSpace(envMap["DISPLAY"]); ed != "" {
					d = ed
				}
				xauth = strings.TrimSpace(envMap["XAUTHORITY"])
			}
		}
		return d, xauth
	}
	return "", ""
}

func parseLoginctlSessions(output string, uid string) []string {
	var sessions []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 2 {
			continue
		}
		if fields[1] == uid {
			sessions = append(sessions, fields[0])
		}
	}
	return sessions
}

func loginctlShowSessionProp(sessionID string, prop string) string {
	out, err := runCommandOutputFn("loginctl", "show-session", sessionID, "-p", prop, "--value")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func readProcEnviron(pid string) (map[string]string, error) {
	path := filepath.Join("/proc", pid, "environ")
	data, err := readFileFn(path)
	if err != nil {
		return nil, err
	}

	env := make(map[string]string)
	for _, part := range strings.Split(string(data), "\x00") {
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		env[kv[0]] = kv[1]
	}
	return env, nil
}

// detectDisplayFromSockets picks the highest-numbered X socket in dir,
// matching how a second X server (e.g. Xwayland on :1) shadows :0.
func detectDisplayFromSockets(dir string) string {
	entries, err := readDirFn(dir)
	if err != nil {
		return ""
	}

	var displays []int
	for _, entry := range entries {
		name := entry.Name()
		if len(name) < 2 || name[0] != 'X' {
			continue
		}
		n, err := strconv.Atoi(name[1:])
		if err != nil {
			continue
		}
		displays = append(displays, n)
	}

	if len(displays) == 0 {
		return ""
	}
	sort.Ints(displays)
	return fmt.Sprintf(":%d", displays[len(displays)-1])
}
