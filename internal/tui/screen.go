package tui

import (
	"fmt"
	"strings"
)

// ANSI escape codes
const (
	escClear      = "\x1b[2J"
	escHome       = "\x1b[H"
	escHideCursor = "\x1b[?25l"
	escShowCursor = "\x1b[?25h"
	escBold       = "\x1b[1m"
	escDim        = "\x1b[2m"
	escReset      = "\x1b[0m"
	escReverse    = "\x1b[7m"
	escCyan       = "\x1b[36m"
	escYellow     = "\x1b[33m"
	escRed        = "\x1b[31m"
	escGreen      = "\x1b[32m"
)

func (p *Picker) render() {
	p.updateSize()

	var sb strings.Builder

	sb.WriteString(escHideCursor)
	sb.WriteString(escReset)
	sb.WriteString(escClear)
	sb.WriteString(escHome)

	const (
		headerLines = 2 // title + divider
		footerLines = 3 // divider + status + footer
	)

	width := p.width
	height := p.height
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	listHeight := height - headerLines - footerLines
	if listHeight < 1 {
		listHeight = 1
	}

	// Header
	sb.WriteString(escBold)
	sb.WriteString(escCyan)
	sb.WriteString(centerText("winsink pick", width))
	sb.WriteString(escReset)
	sb.WriteString("\r\n")

	sb.WriteString(strings.Repeat("─", width))
	sb.WriteString("\r\n")

	for _, line := range p.renderWindowList(width, listHeight) {
		sb.WriteString(line)
		sb.WriteString("\r\n")
	}

	sb.WriteString(strings.Repeat("─", width))
	sb.WriteString("\r\n")

	sb.WriteString(truncateANSI(p.renderStatus(), width))
	sb.WriteString("\r\n")

	sb.WriteString(truncateANSI(p.renderFooter(), width))

	fmt.Print(sb.String())
}

func (p *Picker) renderWindowList(width, height int) []string {
	lines := make([]string, 0, height)

	if len(p.windows) == 0 {
		lines = append(lines, padRight(escDim+"(no windows)"+escReset, width))
		for len(lines) < height {
			lines = append(lines, strings.Repeat(" ", width))
		}
		return lines
	}

	// Keep the selection in view when the list overflows.
	offset := 0
	if p.selectedIndex >= height {
		offset = p.selectedIndex - height + 1
	}

	for i := offset; i < len(p.windows) && len(lines) < height; i++ {
		w := p.windows[i]

		marker := "  "
		if w.Pinned {
			marker = escGreen + "▼ " + escReset
		}

		entry := fmt.Sprintf("%#-10x %-18s %s", w.ID, clip(w.Class, 18), w.Title)
		line := marker + truncateANSI(entry, width-2)
		if i == p.selectedIndex {
			line = escReverse + marker + truncateANSI(entry, width-2) + escReset
		}

		lines = append(lines, padRight(line, width))
	}

	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}

	return lines
}

func (p *Picker) renderStatus() string {
	if p.lastError != "" {
		return fmt.Sprintf("%sError: %s%s", escRed, p.lastError, escReset)
	}
	if p.lastMessage != "" {
		return escCyan + p.lastMessage + escReset
	}

	pinned := 0
	for _, w := range p.windows {
		if w.Pinned {
			pinned++
		}
	}
	return fmt.Sprintf("%d windows, %s%d pinned%s", len(p.windows), escYellow, pinned, escReset)
}

func (p *Picker) renderFooter() string {
	keys := []string{
		"j/k/↑/↓:nav", "space/enter:toggle", "x:release", "r:refresh", "q/esc/^C:quit",
	}
	return escDim + strings.Join(keys, "  ") + escReset
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func centerText(text string, width int) string {
	visibleLen := visibleLength(text)
	if visibleLen >= width {
		return text
	}
	padding := (width - visibleLen) / 2
	return strings.Repeat(" ", padding) + text
}

func padRight(text string, width int) string {
	visibleLen := visibleLength(text)
	if visibleLen >= width {
		return text
	}
	return text + strings.Repeat(" ", width-visibleLen)
}

// visibleLength returns the visible length of a string, ignoring ANSI codes.
func visibleLength(s string) int {
	inEscape := false
	length := 0
	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}
		length++
	}
	return length
}

func truncateANSI(text string, width int) string {
	if width < 1 {
		return ""
	}
	if visibleLength(text) <= width {
		return text
	}

	var sb strings.Builder
	inEscape := false
	visible := 0
	for _, r := range text {
		if r == '\x1b' {
			inEscape = true
			sb.WriteRune(r)
			continue
		}
		if inEscape {
			sb.WriteRune(r)
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}

		if visible >= width-1 {
			break
		}
		sb.WriteRune(r)
		visible++
	}

	sb.WriteString("…")
	sb.WriteString(escReset)
	return sb.String()
}
