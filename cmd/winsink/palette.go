package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/lowtide/winsink/internal/palette"
)

func runPalette(args []string) int {
	fs := flag.NewFlagSet("palette", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	backendName := fs.String("backend", "auto", "Menu backend: auto, rofi, fuzzel, wofi, dmenu")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winsink palette [--backend NAME]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show a launcher menu of windows; selecting one toggles its pin.")
		fmt.Fprintln(os.Stderr, "Pinned windows are listed first. Designed to be bound to a global")
		fmt.Fprintln(os.Stderr, "hotkey or launched from the daemon.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "palette takes no arguments")
		fs.Usage()
		return 2
	}

	backend, err := palette.NewBackend(*backendName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	cfg := loadConfigOrDefault()
	ops, closer, daemonUp, err := newWindowOps(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closer()

	windows, err := ops.List()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	rows := make([]palette.Row, 0, len(windows))
	pinned := 0
	for _, win := range windows {
		if win.Pinned {
			pinned++
		}
		rows = append(rows, palette.Row{
			ID:      win.ID,
			Title:   win.Title,
			Class:   win.Class,
			Desktop: win.Desktop,
			Pinned:  win.Pinned,
		})
	}

	items := palette.BuildWindowMenu(rows, backend.Capabilities())

	message := fmt.Sprintf("%d windows, %d pinned", len(rows), pinned)
	if !daemonUp {
		message += " (daemon not running)"
	}

	selected, err := backend.Show("winsink", items, message)
	if err != nil {
		if errors.Is(err, palette.ErrCancelled) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if selected.Tag == palette.TagReleaseAll {
		count, err := ops.ReleaseAll()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("released %d window(s)\n", count)
		return 0
	}

	windowID, ok := palette.ParseWindowTag(selected.Tag)
	if !ok {
		fmt.Fprintf(os.Stderr, "unrecognized selection %q\n", selected.Label)
		return 1
	}

	state, err := ops.Toggle(windowID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("%s %#x\n", state, windowID)
	return 0
}
