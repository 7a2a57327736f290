package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/lowtide/winsink/internal/tracker"
	"github.com/lowtide/winsink/internal/x11"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandPing          CommandType = "PING"
	CommandGetStatus     CommandType = "GET_STATUS"
	CommandListWindows   CommandType = "LIST_WINDOWS"
	CommandPinWindow     CommandType = "PIN_WINDOW"
	CommandReleaseWindow CommandType = "RELEASE_WINDOW"
	CommandToggleWindow  CommandType = "TOGGLE_WINDOW"
	CommandReleaseAll    CommandType = "RELEASE_ALL"
	CommandReload        CommandType = "RELOAD"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	DaemonRunning bool             `json:"daemon_running"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	RuleCount     int              `json:"rule_count"`
	WindowManager string           `json:"window_manager,omitempty"`
	SupportsBelow bool             `json:"supports_below"`
	Warning       string           `json:"warning,omitempty"`
	Pinned        []tracker.Record `json:"pinned,omitempty"`
}

// ListedWindow is one LIST_WINDOWS row: the window plus whether the daemon
// is tracking it as pinned.
type ListedWindow struct {
	x11.WindowInfo
	Pinned bool `json:"pinned"`
}

// WindowsData represents the data returned by LIST_WINDOWS
type WindowsData struct {
	Windows []ListedWindow `json:"windows"`
}

// WindowPayload carries the target of PIN_WINDOW, RELEASE_WINDOW and
// TOGGLE_WINDOW. Source identifies who asked ("manual" when empty) and ends
// up in the pinned registry.
type WindowPayload struct {
	WindowID uint32 `json:"window_id"`
	Source   string `json:"source,omitempty"`
}

// ActionData reports what a pin, release or toggle actually did.
type ActionData struct {
	WindowID uint32 `json:"window_id"`
	Action   string `json:"action"` // "pinned" or "released"
}

// ReleaseAllData represents the data returned by RELEASE_ALL
type ReleaseAllData struct {
	Released int `json:"released"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
