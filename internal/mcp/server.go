// Package mcp exposes winsink's window control surface as MCP tools over
// stdio, so agents can pin and release desktop windows. Every tool goes
// through the daemon's IPC socket when the daemon runs; otherwise it falls
// back to a direct X connection per call.
package mcp

import (
	"context"
	"fmt"
	"sort"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lowtide/winsink/internal/config"
	"github.com/lowtide/winsink/internal/ipc"
	"github.com/lowtide/winsink/internal/stacking"
	"github.com/lowtide/winsink/internal/tracker"
	"github.com/lowtide/winsink/internal/wmdetect"
	"github.com/lowtide/winsink/internal/x11"
)

const (
	ServerName    = "winsink"
	ServerVersion = "0.1.0"
)

// windowOps is the control surface the tools drive. The daemon serves it
// over IPC when running; standaloneOps serves it from a fresh X connection
// otherwise.
type windowOps interface {
	List() ([]WindowRow, error)
	Pin(windowID uint32) error
	Release(windowID uint32) error
	Info() (WMInfoOutput, error)
	// PinRecord reports registry details for a pinned window; ok is false
	// when nothing beyond live X state is known (standalone mode, or the
	// window is not tracked).
	PinRecord(windowID uint32) (tracker.Record, bool)
}

// Server is the winsink MCP server.
type Server struct {
	mcpServer *mcpsdk.Server
	config    *config.Config

	// resolveOps picks the daemon or standalone path per tool call;
	// swappable in tests. The returned closer releases per-call resources
	// (the standalone X connection) and may be nil.
	resolveOps func() (windowOps, func(), error)
}

// NewServer creates the MCP server. The daemon is not required; tools
// degrade to direct X calls without it.
func NewServer(cfg *config.Config) (*Server, error) {
	s := &Server{config: cfg}
	s.resolveOps = s.defaultResolveOps

	// The MCP client may launch this process outside the desktop session.
	// Best effort: a missing DISPLAY only matters once a standalone call
	// actually needs X.
	ensureDisplayEnv(cfg)

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List the desktop windows the window manager reports, with class, title, desktop and whether each is pinned below its siblings.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "pin_window",
		Description: "Pin a window to the bottom of the stacking order (keep below other windows). Select the window by window_id, or by class/title regular expressions that must match exactly one window. Pinning an already-pinned window is safe.",
	}, s.handlePinWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "release_window",
		Description: "Release a pinned window back to normal stacking. Same selection rules as pin_window.",
	}, s.handleReleaseWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "window_state",
		Description: "Report one window's stacking state: whether it is below its siblings, and when the daemon is running, who pinned it and when.",
	}, s.handleWindowState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "wm_info",
		Description: "Report the running window manager, whether it advertises _NET_WM_STATE_BELOW (pin requests are advisory hints a WM may ignore), and whether the winsink daemon is running.",
	}, s.handleWMInfo)
}

// defaultResolveOps prefers the daemon and falls back to a direct X
// connection when the daemon socket does not answer.
func (s *Server) defaultResolveOps() (windowOps, func(), error) {
	client := s.ipcClient()
	if client.Ping() == nil {
		return &ipcOps{client: client}, nil, nil
	}
	conn, err := x11.NewConnectionDisplay(s.config.Display)
	if err != nil {
		return nil, nil, fmt.Errorf("daemon not running and X connection failed: %w", err)
	}
	return &standaloneOps{conn: conn}, conn.Close, nil
}

func (s *Server) ipcClient() *ipc.Client {
	if s.config != nil && s.config.Socket != "" {
		return ipc.NewClientWithSocket(s.config.Socket)
	}
	return ipc.NewClient()
}

// ipcOps drives the daemon over the IPC socket. Pins issued here are
// recorded with source "mcp" so status output shows who asked.
type ipcOps struct {
	client *ipc.Client

	status *ipc.StatusData // lazily fetched, reused within one tool call
}

func (o *ipcOps) List() ([]WindowRow, error) {
	listed, err := o.client.ListWindows()
	if err != nil {
		return nil, err
	}
	rows := make([]WindowRow, 0, len(listed))
	for _, w := range listed {
		rows = append(rows, WindowRow{
			ID:      w.ID,
			Title:   w.Title,
			Class:   w.Class,
			Desktop: w.Desktop,
			Monitor: w.Monitor,
			Below:   w.Below,
			Pinned:  w.Pinned,
		})
	}
	return rows, nil
}

func (o *ipcOps) Pin(windowID uint32) error {
	return o.client.PinWindow(windowID, string(tracker.SourceMCP))
}

func (o *ipcOps) Release(windowID uint32) error {
	return o.client.ReleaseWindow(windowID)
}

func (o *ipcOps) getStatus() (*ipc.StatusData, error) {
	if o.status != nil {
		return o.status, nil
	}
	status, err := o.client.GetStatus()
	if err != nil {
		return nil, err
	}
	o.status = status
	return status, nil
}

func (o *ipcOps) Info() (WMInfoOutput, error) {
	status, err := o.getStatus()
	if err != nil {
		return WMInfoOutput{}, err
	}
	return WMInfoOutput{
		WindowManager: status.WindowManager,
		SupportsBelow: status.SupportsBelow,
		Warning:       status.Warning,
		DaemonRunning: true,
		PinnedCount:   len(status.Pinned),
	}, nil
}

func (o *ipcOps) PinRecord(windowID uint32) (tracker.Record, bool) {
	status, err := o.getStatus()
	if err != nil {
		return tracker.Record{}, false
	}
	for _, rec := range status.Pinned {
		if rec.WindowID == windowID {
			return rec, true
		}
	}
	return tracker.Record{}, false
}

// standaloneOps serves tools from a direct X connection when no daemon is
// running. Pinned reduces to the live below state and pins are untracked.
type standaloneOps struct {
	conn *x11.Connection
}

func (o *standaloneOps) List() ([]WindowRow, error) {
	windows, err := o.conn.ListWindows()
	if err != nil {
		return nil, err
	}
	rows := make([]WindowRow, 0, len(windows))
	for _, w := range windows {
		rows = append(rows, WindowRow{
			ID:      w.ID,
			Title:   w.Title,
			Class:   w.Class,
			Desktop: w.Desktop,
			Monitor: w.Monitor,
			Below:   w.Below,
			Pinned:  w.Below,
		})
	}
	return rows, nil
}

func (o *standaloneOps) Pin(windowID uint32) error {
	return applyResult(stacking.OpPin, windowID)
}

func (o *standaloneOps) Release(windowID uint32) error {
	return applyResult(stacking.OpRelease, windowID)
}

func applyResult(op stacking.Operation, windowID uint32) error {
	res := stacking.Apply(op, stacking.Handle{
		Descriptor: stacking.DescriptorXID,
		Raw:        uintptr(windowID),
	})
	if !res.Success {
		return fmt.Errorf("%s failed: %s", op, res.Message)
	}
	return nil
}

func (o *standaloneOps) Info() (WMInfoOutput, error) {
	caps := wmdetect.Detect(o.conn.XUtil)
	return WMInfoOutput{
		WindowManager: caps.Name,
		SupportsBelow: caps.SupportsBelow,
		Warning:       caps.Warning(),
		DaemonRunning: false,
	}, nil
}

func (o *standaloneOps) PinRecord(uint32) (tracker.Record, bool) {
	return tracker.Record{}, false
}

// sortRows keeps tool output stable across calls regardless of client-list
// order churn.
func sortRows(rows []WindowRow) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
}
