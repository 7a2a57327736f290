package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lowtide/winsink/internal/ipc"
)

// windowsMsg carries a refreshed window listing into the model.
type windowsMsg struct {
	windows []ipc.ListedWindow
	err     error
}

// actionMsg reports the outcome of a pin/release/toggle keystroke.
type actionMsg struct {
	text string
	err  error
}

// WindowsTab lists live windows and toggles their pin state.
type WindowsTab struct {
	ops     WindowOps
	table   table.Model
	windows []ipc.ListedWindow
	status  string

	width  int
	height int
}

// NewWindowsTab creates the Windows tab.
func NewWindowsTab(ops WindowOps) WindowsTab {
	columns := []table.Column{
		{Title: "ID", Width: 10},
		{Title: "Class", Width: 18},
		{Title: "Title", Width: 40},
		{Title: "Desk", Width: 4},
		{Title: "Pinned", Width: 6},
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Bold(true).
		Foreground(lipgloss.Color("250")).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("238")).
		BorderBottom(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Bold(true)

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithStyles(styles),
	)

	return WindowsTab{ops: ops, table: t}
}

// Init implements tea.Model.
func (w WindowsTab) Init() tea.Cmd {
	return w.refreshCmd()
}

func (w WindowsTab) refreshCmd() tea.Cmd {
	ops := w.ops
	return func() tea.Msg {
		if ops == nil {
			return windowsMsg{err: fmt.Errorf("no window backend available")}
		}
		windows, err := ops.List()
		return windowsMsg{windows: windows, err: err}
	}
}

// Update implements tea.Model.
func (w WindowsTab) Update(msg tea.Msg) (WindowsTab, tea.Cmd) {
	switch msg := msg.(type) {
	case windowsMsg:
		if msg.err != nil {
			w.status = "list failed: " + msg.err.Error()
			return w, nil
		}
		w.windows = msg.windows
		w.table.SetRows(windowRows(msg.windows))
		if w.table.Cursor() >= len(msg.windows) && len(msg.windows) > 0 {
			w.table.SetCursor(len(msg.windows) - 1)
		}
		return w, nil

	case actionMsg:
		if msg.err != nil {
			w.status = msg.err.Error()
			return w, nil
		}
		w.status = msg.text
		return w, w.refreshCmd()

	case tea.WindowSizeMsg:
		w.width = msg.Width
		w.height = msg.Height
		h := msg.Height - 3 // header border + status line
		if h < 3 {
			h = 3
		}
		w.table.SetHeight(h)
		return w, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			w.status = "refreshing..."
			return w, w.refreshCmd()
		case "enter", " ", "t":
			return w.actionCmd("toggle")
		case "p":
			return w.actionCmd("pin")
		case "x":
			return w.actionCmd("release")
		}
	}

	var cmd tea.Cmd
	w.table, cmd = w.table.Update(msg)
	return w, cmd
}

func (w WindowsTab) actionCmd(action string) (WindowsTab, tea.Cmd) {
	idx := w.table.Cursor()
	if idx < 0 || idx >= len(w.windows) {
		w.status = "no window selected"
		return w, nil
	}
	win := w.windows[idx]
	ops := w.ops

	return w, func() tea.Msg {
		var err error
		text := ""
		switch action {
		case "toggle":
			var did string
			did, err = ops.Toggle(win.ID)
			text = fmt.Sprintf("%s %#x (%s)", did, win.ID, win.Class)
		case "pin":
			err = ops.Pin(win.ID)
			text = fmt.Sprintf("pinned %#x (%s)", win.ID, win.Class)
		case "release":
			err = ops.Release(win.ID)
			text = fmt.Sprintf("released %#x (%s)", win.ID, win.Class)
		}
		return actionMsg{text: text, err: err}
	}
}

func windowRows(windows []ipc.ListedWindow) []table.Row {
	rows := make([]table.Row, 0, len(windows))
	for _, win := range windows {
		pinned := ""
		if win.Pinned {
			pinned = "yes"
		}
		desktop := fmt.Sprintf("%d", win.Desktop)
		if win.Desktop == -1 {
			desktop = "all"
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%#x", win.ID),
			win.Class,
			win.Title,
			desktop,
			pinned,
		})
	}
	return rows
}

// View implements tea.Model.
func (w WindowsTab) View() string {
	keyHelp := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render("enter/space: toggle pin  p: pin  x: release  r: refresh")

	status := w.status
	if status == "" {
		status = fmt.Sprintf("%d windows", len(w.windows))
	}
	statusLine := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Render(status)

	return lipgloss.JoinVertical(lipgloss.Left,
		w.table.View(),
		statusLine+"  "+keyHelp,
	)
}
