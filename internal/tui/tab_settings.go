package tui

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/lowtide/winsink/internal/config"
)

// SettingsTab shows and edits daemon settings.
type SettingsTab struct {
	cfg *config.Config

	editing bool
	form    *huh.Form

	// Form-bound values (strings for huh, converted on submit)
	fLogLevel      string
	fPollInterval  string
	fToggleHotkey  string
	fPinHotkey     string
	fReleaseHotkey string
	fReleaseOnExit bool

	width  int
	height int
}

// NewSettingsTab creates a SettingsTab from the loaded config.
func NewSettingsTab(cfg *config.Config) SettingsTab {
	return SettingsTab{cfg: cfg}
}

// Update implements tea.Model.
func (s SettingsTab) Update(msg tea.Msg) (SettingsTab, tea.Cmd) {
	if s.editing {
		return s.updateEditing(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "e" {
			s.startEditing()
			return s, s.form.Init()
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	}
	return s, nil
}

func (s SettingsTab) updateEditing(msg tea.Msg) (SettingsTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			s.editing = false
			s.form = nil
			return s, nil
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.applyForm()
		s.editing = false
		s.form = nil
		return s, nil
	}

	return s, cmd
}

func (s *SettingsTab) startEditing() {
	cfg := s.cfg
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	s.fLogLevel = cfg.LogLevel
	s.fPollInterval = strconv.Itoa(cfg.PollInterval)
	s.fToggleHotkey = cfg.Hotkeys.ToggleActive
	s.fPinHotkey = cfg.Hotkeys.PinActive
	s.fReleaseHotkey = cfg.Hotkeys.ReleaseActive
	s.fReleaseOnExit = cfg.GetReleaseOnExit()

	levelOpts := []huh.Option[string]{
		huh.NewOption("debug", "debug"),
		huh.NewOption("info", "info"),
		huh.NewOption("warn", "warn"),
		huh.NewOption("error", "error"),
	}

	w := s.width - 4
	if w < 40 {
		w = 40
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("log_level").
				Title("Log Level").
				Options(levelOpts...).
				Value(&s.fLogLevel),

			huh.NewInput().
				Key("poll_interval").
				Title("Poll Interval").
				Description("Seconds between daemon reconciliation sweeps").
				Value(&s.fPollInterval),

			huh.NewConfirm().
				Key("release_on_exit").
				Title("Release On Exit").
				Description("Release all pinned windows when the daemon stops").
				Value(&s.fReleaseOnExit),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("toggle_active").
				Title("Hotkey: Toggle Active Window").
				Description("X11 key sequence, e.g. Mod4-Mod1-b; empty disables").
				Value(&s.fToggleHotkey),
			huh.NewInput().
				Key("pin_active").
				Title("Hotkey: Pin Active Window").
				Value(&s.fPinHotkey),
			huh.NewInput().
				Key("release_active").
				Title("Hotkey: Release Active Window").
				Value(&s.fReleaseHotkey),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)

	s.editing = true
}

func (s *SettingsTab) applyForm() {
	if s.cfg == nil {
		return
	}

	if s.fLogLevel != "" {
		s.cfg.LogLevel = s.fLogLevel
	}
	if v, err := strconv.Atoi(strings.TrimSpace(s.fPollInterval)); err == nil && v > 0 {
		s.cfg.PollInterval = v
	}
	s.cfg.Hotkeys.ToggleActive = strings.TrimSpace(s.fToggleHotkey)
	s.cfg.Hotkeys.PinActive = strings.TrimSpace(s.fPinHotkey)
	s.cfg.Hotkeys.ReleaseActive = strings.TrimSpace(s.fReleaseHotkey)
	releaseOnExit := s.fReleaseOnExit
	s.cfg.ReleaseOnExit = &releaseOnExit
}

// View implements tea.Model.
func (s SettingsTab) View() string {
	if s.editing && s.form != nil {
		return s.viewEditing()
	}
	return s.viewDisplay()
}

func (s SettingsTab) viewDisplay() string {
	cfg := s.cfg
	if cfg == nil {
		return lipgloss.NewStyle().
			Width(s.width).
			Height(s.height).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No config loaded")
	}

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")).
		Width(24).
		Align(lipgloss.Right).
		PaddingRight(2)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Bold(true)

	dimStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value)
	}

	releaseOnExit := "no"
	if cfg.GetReleaseOnExit() {
		releaseOnExit = "yes"
	}

	lines := []string{
		"",
		row("Log Level", cfg.LogLevel),
		row("Poll Interval", strconv.Itoa(cfg.PollInterval)+"s"),
		row("Release On Exit", releaseOnExit),
		row("Display", displayOrDefault(cfg.Display, "($DISPLAY)")),
		row("Socket", displayOrDefault(cfg.Socket, "(runtime dir)")),
		"",
		row("Toggle Hotkey", displayOrDefault(cfg.Hotkeys.ToggleActive, "(disabled)")),
		row("Pin Hotkey", displayOrDefault(cfg.Hotkeys.PinActive, "(disabled)")),
		row("Release Hotkey", displayOrDefault(cfg.Hotkeys.ReleaseActive, "(disabled)")),
		"",
		dimStyle.Render("  Press 'e' to edit settings"),
	}

	return lipgloss.NewStyle().
		Width(s.width).
		Height(s.height).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
}

func (s SettingsTab) viewEditing() string {
	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true).
		Render("Editing Settings") +
		lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render("  (esc to cancel)")

	return lipgloss.NewStyle().
		Width(s.width).
		Height(s.height).
		Padding(1, 2).
		Render(header + "\n\n" + s.form.View())
}

func displayOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
