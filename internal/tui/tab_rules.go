package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/lowtide/winsink/internal/config"
)

// RulesTab lists the auto-pin rules and edits them with a huh form.
type RulesTab struct {
	cfg *config.Config

	cursor  int
	editing bool
	form    *huh.Form
	// editIndex is the rule being edited, or -1 when adding.
	editIndex int

	// Form-bound values (strings for huh, converted on submit)
	fClass   string
	fTitle   string
	fDesktop string
	fMonitor string

	width  int
	height int
}

// NewRulesTab creates a RulesTab from the loaded config.
func NewRulesTab(cfg *config.Config) RulesTab {
	return RulesTab{cfg: cfg, editIndex: -1}
}

// Update implements tea.Model.
func (r RulesTab) Update(msg tea.Msg) (RulesTab, tea.Cmd) {
	if r.editing {
		return r.updateEditing(msg)
	}
	return r.updateDisplay(msg)
}

func (r RulesTab) updateDisplay(msg tea.Msg) (RulesTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if r.cursor < len(r.rules())-1 {
				r.cursor++
			}
		case "k", "up":
			if r.cursor > 0 {
				r.cursor--
			}
		case "a":
			r.startEditing(-1)
			return r, r.form.Init()
		case "e":
			if len(r.rules()) > 0 {
				r.startEditing(r.cursor)
				return r, r.form.Init()
			}
		case "d":
			r.deleteRule(r.cursor)
		}
	case tea.WindowSizeMsg:
		r.width = msg.Width
		r.height = msg.Height
	}
	return r, nil
}

func (r RulesTab) updateEditing(msg tea.Msg) (RulesTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			r.editing = false
			r.form = nil
			return r, nil
		}
	case tea.WindowSizeMsg:
		r.width = msg.Width
		r.height = msg.Height
	}

	form, cmd := r.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		r.form = f
	}

	if r.form.State == huh.StateCompleted {
		r.applyForm()
		r.editing = false
		r.form = nil
		return r, nil
	}

	return r, cmd
}

func (r *RulesTab) rules() []config.Rule {
	if r.cfg == nil {
		return nil
	}
	return r.cfg.Rules
}

func (r *RulesTab) startEditing(index int) {
	r.editIndex = index
	r.fClass, r.fTitle, r.fDesktop, r.fMonitor = "", "", "", ""
	if index >= 0 && index < len(r.rules()) {
		rule := r.rules()[index]
		r.fClass = rule.Class
		r.fTitle = rule.Title
		if rule.Desktop != nil {
			r.fDesktop = strconv.Itoa(*rule.Desktop)
		}
		r.fMonitor = rule.Monitor
	}

	w := r.width - 4
	if w < 40 {
		w = 40
	}

	r.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("class").
				Title("Class Pattern").
				Description("Regular expression matched against window class; empty matches any").
				Value(&r.fClass),

			huh.NewInput().
				Key("title").
				Title("Title Pattern").
				Description("Regular expression matched against window title; empty matches any").
				Value(&r.fTitle),

			huh.NewInput().
				Key("desktop").
				Title("Desktop").
				Description("Desktop number, -1 for sticky windows, empty for any").
				Value(&r.fDesktop).
				Validate(validateDesktop),

			huh.NewInput().
				Key("monitor").
				Title("Monitor").
				Description("RandR output name (e.g. HDMI-1), empty for any").
				Value(&r.fMonitor),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)

	r.editing = true
}

func validateDesktop(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("desktop must be a number")
	}
	return nil
}

func (r *RulesTab) applyForm() {
	if r.cfg == nil {
		return
	}

	rule := config.Rule{
		Class:   strings.TrimSpace(r.fClass),
		Title:   strings.TrimSpace(r.fTitle),
		Monitor: strings.TrimSpace(r.fMonitor),
	}
	if s := strings.TrimSpace(r.fDesktop); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			rule.Desktop = &v
		}
	}
	// An all-empty rule would pin every window; drop it.
	if rule.Class == "" && rule.Title == "" && rule.Desktop == nil && rule.Monitor == "" {
		return
	}

	if r.editIndex >= 0 && r.editIndex < len(r.cfg.Rules) {
		r.cfg.Rules[r.editIndex] = rule
	} else {
		r.cfg.Rules = append(r.cfg.Rules, rule)
		r.cursor = len(r.cfg.Rules) - 1
	}
}

func (r *RulesTab) deleteRule(index int) {
	if r.cfg == nil || index < 0 || index >= len(r.cfg.Rules) {
		return
	}
	r.cfg.Rules = append(r.cfg.Rules[:index], r.cfg.Rules[index+1:]...)
	if r.cursor >= len(r.cfg.Rules) && r.cursor > 0 {
		r.cursor--
	}
}

// View implements tea.Model.
func (r RulesTab) View() string {
	if r.editing && r.form != nil {
		return r.viewEditing()
	}
	return r.viewDisplay()
}

func (r RulesTab) viewDisplay() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cursorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))

	rules := r.rules()
	lines := []string{""}
	if len(rules) == 0 {
		lines = append(lines, dimStyle.Render("  No rules configured. Matching windows are pinned by the daemon."))
	}
	for i, rule := range rules {
		label := fmt.Sprintf("  %d. %s", i+1, describeRule(rule))
		if i == r.cursor {
			lines = append(lines, cursorStyle.Render(label))
		} else {
			lines = append(lines, rowStyle.Render(label))
		}
	}
	lines = append(lines, "", dimStyle.Render("  a: add  e: edit  d: delete  j/k: navigate  (ctrl-s to save)"))

	return lipgloss.NewStyle().
		Width(r.width).
		Height(r.height).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
}

func describeRule(rule config.Rule) string {
	var parts []string
	if rule.Class != "" {
		parts = append(parts, "class~"+rule.Class)
	}
	if rule.Title != "" {
		parts = append(parts, "title~"+rule.Title)
	}
	if rule.Desktop != nil {
		parts = append(parts, fmt.Sprintf("desktop=%d", *rule.Desktop))
	}
	if rule.Monitor != "" {
		parts = append(parts, "monitor="+rule.Monitor)
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, " ")
}

func (r RulesTab) viewEditing() string {
	title := "Add Rule"
	if r.editIndex >= 0 {
		title = fmt.Sprintf("Edit Rule %d", r.editIndex+1)
	}
	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true).
		Render(title) +
		lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render("  (esc to cancel)")

	return lipgloss.NewStyle().
		Width(r.width).
		Height(r.height).
		Padding(1, 2).
		Render(header + "\n\n" + r.form.View())
}
