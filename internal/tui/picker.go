package tui

import (
	"fmt"
	"os"

	"github.com/lowtide/winsink/internal/ipc"
	"golang.org/x/term"
)

// Picker is a minimal raw-terminal window picker. Unlike the full tabbed
// TUI it keeps no alternate screen dependency chain and starts fast,
// which suits a keybinding-launched quick toggle.
type Picker struct {
	ops WindowOps

	windows       []ipc.ListedWindow
	selectedIndex int
	lastMessage   string
	lastError     string

	oldState *term.State
	width    int
	height   int
}

// NewPicker creates a picker backed by ops.
func NewPicker(ops WindowOps) *Picker {
	return &Picker{ops: ops}
}

// Run starts the picker main loop.
func (p *Picker) Run() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("pick requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	p.oldState = oldState
	defer p.restore()

	p.updateSize()
	p.refresh()
	p.render()

	buf := make([]byte, 32)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return err
		}

		if p.handleInput(buf[:n]) {
			return nil
		}

		p.render()
	}
}

func (p *Picker) restore() {
	if p.oldState != nil {
		term.Restore(int(os.Stdin.Fd()), p.oldState)
	}
	fmt.Print(escReset)
	fmt.Print(escShowCursor)
	fmt.Print(escClear)
	fmt.Print(escHome)
}

func (p *Picker) updateSize() {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		p.width = 80
		p.height = 24
		return
	}
	p.width = w
	p.height = h
}

func (p *Picker) refresh() {
	prevID := p.selectedID()

	windows, err := p.ops.List()
	if err != nil {
		p.lastError = err.Error()
		return
	}
	p.windows = windows
	p.lastError = ""

	// Preserve selection across refreshes when the window still exists.
	if prevID != 0 {
		for i, w := range p.windows {
			if w.ID == prevID {
				p.selectedIndex = i
				return
			}
		}
	}
	if p.selectedIndex >= len(p.windows) {
		p.selectedIndex = 0
	}
}

func (p *Picker) selectedID() uint32 {
	if p.selectedIndex < 0 || p.selectedIndex >= len(p.windows) {
		return 0
	}
	return p.windows[p.selectedIndex].ID
}

func (p *Picker) handleInput(input []byte) bool {
	for len(input) > 0 {
		if len(input) >= 3 && input[0] == 0x1b && input[1] == '[' {
			switch input[2] {
			case 'A':
				p.moveSelection(-1)
			case 'B':
				p.moveSelection(1)
			}
			input = input[3:]
			continue
		}

		switch input[0] {
		case 'q', 0x1b:
			return true
		case 0x03: // Ctrl+C
			return true
		case 'j':
			p.moveSelection(1)
		case 'k':
			p.moveSelection(-1)
		case ' ', '\r', '\n', 't':
			p.toggleSelected()
		case 'x':
			p.releaseSelected()
		case 'r':
			p.refresh()
		}

		input = input[1:]
	}

	return false
}

func (p *Picker) moveSelection(delta int) {
	if len(p.windows) == 0 {
		return
	}
	p.selectedIndex += delta
	if p.selectedIndex < 0 {
		p.selectedIndex = len(p.windows) - 1
	} else if p.selectedIndex >= len(p.windows) {
		p.selectedIndex = 0
	}
}

func (p *Picker) toggleSelected() {
	id := p.selectedID()
	if id == 0 {
		return
	}
	state, err := p.ops.Toggle(id)
	if err != nil {
		p.lastError = err.Error()
		return
	}
	p.lastError = ""
	p.lastMessage = fmt.Sprintf("%s %#x", state, id)
	p.refresh()
}

func (p *Picker) releaseSelected() {
	id := p.selectedID()
	if id == 0 {
		return
	}
	if err := p.ops.Release(id); err != nil {
		p.lastError = err.Error()
		return
	}
	p.lastError = ""
	p.lastMessage = fmt.Sprintf("released %#x", id)
	p.refresh()
}
