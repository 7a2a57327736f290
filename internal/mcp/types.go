package mcp

import "time"

// WindowRow is one window as reported by the list_windows tool.
type WindowRow struct {
	ID      uint32 `json:"id"`
	Title   string `json:"title"`
	Class   string `json:"class"`
	Desktop int    `json:"desktop"`
	Monitor string `json:"monitor,omitempty"`
	Below   bool   `json:"below"`
	Pinned  bool   `json:"pinned"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	PinnedOnly bool `json:"pinned_only,omitempty" jsonschema:"When true, list only windows currently pinned below their siblings"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows       []WindowRow `json:"windows"`
	DaemonRunning bool        `json:"daemon_running"`
}

// TargetInput selects one window for pin_window, release_window and
// window_state. Exactly one selection path must resolve to a single
// window: an explicit window_id, or a class/title query.
type TargetInput struct {
	WindowID uint32 `json:"window_id,omitempty" jsonschema:"X11 window ID of the target window. Takes precedence over class/title."`
	Class    string `json:"class,omitempty" jsonschema:"Regular expression matched against window class (e.g. firefox). Must match exactly one window unless window_id is given."`
	Title    string `json:"title,omitempty" jsonschema:"Regular expression matched against window title. Combined with class when both are set."`
}

// ActionOutput reports what pin_window or release_window did.
type ActionOutput struct {
	WindowID uint32 `json:"window_id"`
	Title    string `json:"title"`
	Class    string `json:"class"`
	Action   string `json:"action"` // "pinned" or "released"
}

// WindowStateOutput is the output for the window_state tool.
type WindowStateOutput struct {
	WindowRow
	PinSource string     `json:"pin_source,omitempty"` // manual, rule or mcp; "" when untracked
	PinnedAt  *time.Time `json:"pinned_at,omitempty"`
}

// WMInfoInput is the input for the wm_info tool.
type WMInfoInput struct{}

// WMInfoOutput is the output for the wm_info tool.
type WMInfoOutput struct {
	WindowManager string `json:"window_manager,omitempty"`
	SupportsBelow bool   `json:"supports_below"`
	Warning       string `json:"warning,omitempty"`
	DaemonRunning bool   `json:"daemon_running"`
	PinnedCount   int    `json:"pinned_count"`
}
