package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lowtide/winsink/internal/config"
	"github.com/lowtide/winsink/internal/ipc"
)

// RunApp starts the tabbed TUI. ops serves the Windows tab; client is used
// for the daemon badge and config reload after save, and may point at a
// daemon that is not running.
func RunApp(configPath string, ops WindowOps, client *ipc.Client) error {
	m := newModel(configPath, ops, client)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// model is the root bubbletea model for the TUI.
type model struct {
	configPath string
	cfg        *config.Config
	loadErr    error
	ipcClient  *ipc.Client

	activeTab Tab

	windowsTab  WindowsTab
	rulesTab    RulesTab
	settingsTab SettingsTab

	// Save overlay
	originalConfig *config.Config
	saveOverlay    SaveOverlay

	daemonConnected bool
	pinnedCount     int

	width  int
	height int
}

func newModel(configPath string, ops WindowOps, client *ipc.Client) model {
	m := model{
		configPath: configPath,
		activeTab:  TabWindows,
		ipcClient:  client,
	}

	m.loadConfig()
	m.originalConfig = cloneConfig(m.cfg)
	m.refreshDaemonStatus()

	m.windowsTab = NewWindowsTab(ops)
	m.rulesTab = NewRulesTab(m.cfg)
	m.settingsTab = NewSettingsTab(m.cfg)

	return m
}

func (m *model) loadConfig() {
	var cfg *config.Config
	var err error
	if m.configPath == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFromPath(m.configPath)
	}
	if err != nil {
		m.loadErr = err
		m.cfg = config.DefaultConfig()
		return
	}
	m.cfg = cfg
}

func (m *model) refreshDaemonStatus() {
	if m.ipcClient == nil {
		m.daemonConnected = false
		return
	}
	status, err := m.ipcClient.GetStatus()
	if err != nil {
		m.daemonConnected = false
		m.pinnedCount = 0
		return
	}
	m.daemonConnected = status.DaemonRunning
	m.pinnedCount = len(status.Pinned)
}

// contentHeight returns the height available for tab content.
func (m model) contentHeight() int {
	// status bar (1) + tab bar (2 with margin) + help bar (1)
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return m.windowsTab.Init()
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Save overlay captures all input when active
	if m.saveOverlay.Active() {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			prevPhase := m.saveOverlay.phase
			m.saveOverlay = m.saveOverlay.Update(msg, m.cfg, m.configPath, m.ipcClient, m.daemonConnected)
			if prevPhase == savePreview && m.saveOverlay.SaveSucceeded() {
				m.originalConfig = cloneConfig(m.cfg)
			}
		case tea.WindowSizeMsg:
			m.width = msg.Width
			m.height = msg.Height
		}
		return m, nil
	}

	// ctrl+s triggers the save overlay from any context, including forms.
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+s" {
		if m.cfg != nil {
			m.saveOverlay.Show(m.originalConfig, m.cfg)
		}
		return m, nil
	}

	// A tab that captures input (an open form) sees every key except
	// ctrl+c first.
	if m.capturing() {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		case tea.WindowSizeMsg:
			m.width = msg.Width
			m.height = msg.Height
			return m.forwardSize()
		}
		return m.delegate(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, m.activateCmd()
		case "shift+tab":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, m.activateCmd()
		case "1":
			m.activeTab = TabWindows
			return m, m.activateCmd()
		case "2":
			m.activeTab = TabRules
			return m, nil
		case "3":
			m.activeTab = TabSettings
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m.forwardSize()

	case windowsMsg:
		m.refreshDaemonStatus()
	}

	return m.delegate(msg)
}

// activateCmd refreshes the window list when the Windows tab gains focus.
func (m *model) activateCmd() tea.Cmd {
	if m.activeTab == TabWindows {
		return m.windowsTab.refreshCmd()
	}
	return nil
}

func (m model) capturing() bool {
	switch m.activeTab {
	case TabRules:
		return m.rulesTab.editing
	case TabSettings:
		return m.settingsTab.editing
	}
	return false
}

func (m model) forwardSize() (tea.Model, tea.Cmd) {
	subMsg := tea.WindowSizeMsg{Width: m.width, Height: m.contentHeight()}
	m.windowsTab, _ = m.windowsTab.Update(subMsg)
	m.rulesTab, _ = m.rulesTab.Update(subMsg)
	m.settingsTab, _ = m.settingsTab.Update(subMsg)
	return m, nil
}

func (m model) delegate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.activeTab {
	case TabWindows:
		m.windowsTab, cmd = m.windowsTab.Update(msg)
	case TabRules:
		m.rulesTab, cmd = m.rulesTab.Update(msg)
	case TabSettings:
		m.settingsTab, cmd = m.settingsTab.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.daemonConnected, m.pinnedCount, m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	helpBar := renderHelpBar(m.width)

	usedHeight := lipgloss.Height(statusBar) + lipgloss.Height(tabBar) + lipgloss.Height(helpBar)
	contentHeight := m.height - usedHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	var content string
	if m.saveOverlay.Active() {
		content = m.saveOverlay.View(m.width, contentHeight)
	} else {
		switch m.activeTab {
		case TabWindows:
			content = m.windowsTab.View()
		case TabRules:
			content = m.rulesTab.View()
		case TabSettings:
			content = m.settingsTab.View()
		}
		if m.loadErr != nil {
			errLine := lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Render(fmt.Sprintf("config error: %v (editing defaults)", m.loadErr))
			content = errLine + "\n" + content
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		tabBar,
		content,
		helpBar,
	)
}
