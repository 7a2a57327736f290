package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lowtide/winsink/internal/config"
	"github.com/lowtide/winsink/internal/daemon"
	"github.com/lowtide/winsink/internal/hotkeys"
	"github.com/lowtide/winsink/internal/ipc"
	"github.com/lowtide/winsink/internal/runtimepath"
	"github.com/lowtide/winsink/internal/stacking"
	"github.com/lowtide/winsink/internal/tracker"
	"github.com/lowtide/winsink/internal/tui"
	"github.com/lowtide/winsink/internal/wmdetect"
	"github.com/lowtide/winsink/internal/x11"
)

var version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: winsink daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: winsink daemon")
			os.Exit(2)
		}
		runDaemon()
	case "pin":
		os.Exit(runAction(os.Args[2:], "pin"))
	case "release":
		os.Exit(runAction(os.Args[2:], "release"))
	case "toggle":
		os.Exit(runAction(os.Args[2:], "toggle"))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "list":
		os.Exit(runList(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "palette":
		os.Exit(runPalette(os.Args[2:]))
	case "pick":
		os.Exit(runPick(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "version", "-v", "--version":
		fmt.Printf("winsink %s\n", version)
		os.Exit(0)
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: winsink <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the winsink daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status and pinned windows")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  pin                 Pin a window to the bottom of the z-order")
	fmt.Fprintln(w, "  release             Release a pinned window (--all for every window)")
	fmt.Fprintln(w, "  toggle              Toggle a window's pin state")
	fmt.Fprintln(w, "  list                List windows and their pin state")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  palette             Open the rofi/dmenu window menu")
	fmt.Fprintln(w, "  pick                Open the quick terminal picker")
	fmt.Fprintln(w, "  tui                 Open the interactive TUI")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "  version             Print version")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'winsink <command> --help' for command-specific options.")
}

// addTargetFlags registers the window selection flags used by pin, release
// and toggle.
func addTargetFlags(fs *flag.FlagSet, sel *targetSelector) {
	fs.StringVar(&sel.WindowID, "window", "", "Target window by ID (decimal or 0x hex)")
	fs.StringVar(&sel.Class, "class", "", "Target window by class (regexp, case-insensitive)")
	fs.StringVar(&sel.Title, "title", "", "Target window by title (regexp, case-insensitive)")
	fs.BoolVar(&sel.Active, "active", false, "Target the currently focused window")
}

func runAction(args []string, action string) int {
	fs := flag.NewFlagSet(action, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var sel targetSelector
	addTargetFlags(fs, &sel)
	var releaseAll bool
	if action == "release" {
		fs.BoolVar(&releaseAll, "all", false, "Release every pinned window")
	}
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: winsink %s [--window ID | --class REGEX | --title REGEX | --active]\n", action)
		fmt.Fprintln(os.Stderr, "")
		switch action {
		case "pin":
			fmt.Fprintln(os.Stderr, "Pin a window to the bottom of the stacking order.")
		case "release":
			fmt.Fprintln(os.Stderr, "Restore a window to normal stacking.")
		case "toggle":
			fmt.Fprintln(os.Stderr, "Pin the window if unpinned, release it otherwise.")
		}
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
		fmt.Fprintf(os.Stderr, "%s takes no positional arguments\n", action)
		fs.Usage()
		return 2
	}
	if releaseAll {
		if !sel.empty() {
			fmt.Fprintln(os.Stderr, "--all cannot be combined with a target selector")
			return 2
		}
	} else if sel.empty() {
		fmt.Fprintf(os.Stderr, "%s requires a target selector\n", action)
		fs.Usage()
		return 2
	}

	cfg := loadConfigOrDefault()

	ops, closer, _, err := newWindowOps(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closer()

	if releaseAll {
		count, err := ops.ReleaseAll()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("released %d window(s)\n", count)
		return 0
	}

	windows, err := ops.List()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	var activeID uint32
	if sel.Active {
		activeID, err = activeWindowID(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	windowID, err := resolveTargetWindow(windows, sel, activeID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	switch action {
	case "pin":
		err = ops.Pin(windowID)
		if err == nil {
			fmt.Printf("pinned %#x\n", windowID)
		}
	case "release":
		err = ops.Release(windowID)
		if err == nil {
			fmt.Printf("released %#x\n", windowID)
		}
	case "toggle":
		var state string
		state, err = ops.Toggle(windowID)
		if err == nil {
			fmt.Printf("%s %#x\n", state, windowID)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winsink status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	cfg := loadConfigOrDefault()
	client := ipcClientFor(cfg)
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("window_manager: %s\n", status.WindowManager)
	fmt.Printf("supports_below: %v\n", status.SupportsBelow)
	fmt.Printf("rule_count:     %d\n", status.RuleCount)
	fmt.Printf("pinned_count:   %d\n", len(status.Pinned))
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	if status.Warning != "" {
		fmt.Printf("warning:        %s\n", status.Warning)
	}
	for _, rec := range status.Pinned {
		fmt.Printf("- %#x %s (%s, source=%s)\n", rec.WindowID, rec.Title, rec.Class, rec.Source)
	}
	return 0
}

func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Output window list as JSON")
	pinnedOnly := fs.Bool("pinned", false, "Show pinned windows only")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winsink list [--json] [--pinned]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List windows with their pin state. Uses the daemon when it is")
		fmt.Fprintln(os.Stderr, "running, a direct X connection otherwise.")
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
		fmt.Fprintln(os.Stderr, "list takes no arguments")
		fs.Usage()
		return 2
	}

	cfg := loadConfigOrDefault()
	ops, closer, _, err := newWindowOps(cfg)
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

	if *pinnedOnly {
		filtered := windows[:0]
		for _, win := range windows {
			if win.Pinned {
				filtered = append(filtered, win)
			}
		}
		windows = filtered
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(windows); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	for _, win := range windows {
		marker := " "
		if win.Pinned {
			marker = "*"
		}
		desktop := fmt.Sprintf("%d", win.Desktop)
		if win.Desktop == -1 {
			desktop = "all"
		}
		fmt.Printf("%s %#-10x %-20s desk=%-3s %s\n", marker, win.ID, win.Class, desktop, win.Title)
	}
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  winsink config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  winsink config print [--path PATH] [--defaults]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/winsink/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		var err error
		if *path == "" {
			_, err = config.Load()
		} else {
			_, err = config.LoadFromPath(*path)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/winsink/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		var cfg *config.Config
		var err error
		if *printDefaults {
			cfg = config.DefaultConfig()
		} else if *path == "" {
			cfg, err = config.Load()
		} else {
			cfg, err = config.LoadFromPath(*path)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func runPick(args []string) int {
	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stderr, "Usage: winsink pick")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Raw-terminal quick picker for toggling pins.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  j/k, ↑/↓     Navigate windows")
		fmt.Fprintln(os.Stderr, "  Space/Enter  Toggle pin on selected window")
		fmt.Fprintln(os.Stderr, "  x            Release selected window")
		fmt.Fprintln(os.Stderr, "  r            Refresh window list")
		fmt.Fprintln(os.Stderr, "  q, Esc, ^C   Quit")
		return 0
	}
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, "pick takes no arguments")
		return 2
	}

	cfg := loadConfigOrDefault()
	ops, closer, _, err := newWindowOps(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closer()

	if err := tui.NewPicker(ops).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/winsink/config.yaml)")

	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stderr, "Usage: winsink tui [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Interactive TUI for browsing windows and editing rules and settings.")
		fmt.Fprintln(os.Stderr, "Works against a direct X connection when the daemon is not running.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  Tab, 1/2/3   Switch tabs")
		fmt.Fprintln(os.Stderr, "  j/k, ↑/↓     Navigate")
		fmt.Fprintln(os.Stderr, "  Space/Enter  Toggle pin on selected window")
		fmt.Fprintln(os.Stderr, "  a/e/d        Add/edit/delete rule (Rules tab)")
		fmt.Fprintln(os.Stderr, "  Ctrl+S       Save config (with diff preview)")
		fmt.Fprintln(os.Stderr, "  q, Ctrl+C    Quit")
		return 0
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := loadConfigOrDefault()
	ops, closer, _, err := newWindowOps(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closer()

	if err := tui.RunApp(*path, ops, ipcClientFor(cfg)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// loadConfigOrDefault loads the config for client commands, falling back
// to defaults so a broken config file never blocks a release.
func loadConfigOrDefault() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (using defaults)\n", err)
		return config.DefaultConfig()
	}
	return cfg
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runDaemon() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Configuration loaded (%d rules, poll: %ds)", len(cfg.Rules), cfg.PollInterval)

	// Connect to the X server
	conn, err := x11.NewConnectionDisplay(cfg.Display)
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer conn.Close()

	caps := wmdetect.Detect(conn.XUtil)
	log.Printf("Window manager: %s (keep-below supported: %v)", caps.Name, caps.SupportsBelow)
	if warning := caps.Warning(); warning != "" {
		log.Printf("Warning: %s", warning)
	}

	// Restore the pinned registry from the previous lifecycle.
	tr, err := tracker.Load()
	if err != nil {
		log.Printf("Warning: failed to load pinned state: %v (starting empty)", err)
		tr = tracker.New()
	} else if tr.Len() > 0 {
		log.Printf("Restored %d pinned window(s) from state file", tr.Len())
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))

	d, err := daemon.New(daemon.Options{
		Config:  cfg,
		Conn:    conn,
		Tracker: tr,
		Caps:    caps,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("Failed to initialize daemon: %v", err)
	}

	stacking.SetDiagnosticSink(func(source, message string) {
		logger.Warn("stacking diagnostic", "source", source, "message", message)
	})

	// Register global hotkeys
	hotkeyHandler := hotkeys.NewHandler(conn, d)
	if err := hotkeyHandler.RegisterAll(cfg.Hotkeys); err != nil {
		log.Printf("Warning: %v", err)
	}

	// Start IPC server
	socketPath := cfg.Socket
	if socketPath == "" {
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			log.Fatalf("Failed to resolve socket path: %v", err)
		}
	}

	reloadChan := make(chan struct{}, 1)
	ipcServer, err := ipc.NewServer(socketPath, d, reloadChan)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()
	log.Printf("IPC server listening on %s", ipcServer.SocketPath())

	// Reconciler: prune closed windows, pin rule matches, re-assert pins
	// the window manager dropped.
	stateSynchronizer := daemon.NewStateSynchronizer(d.Tracker(), d.SaveState, logger)
	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
		Interval: time.Duration(cfg.PollInterval) * time.Second,
		Logger:   logger,
	}, d, stateSynchronizer)

	// Immediate pass so restored pins are re-asserted and stale entries
	// from a previous lifecycle are pruned before the loop starts.
	reconciler.ReconcileNow()

	reconcilerCtx, reconcilerCancel := context.WithCancel(context.Background())
	defer reconcilerCancel()
	go reconciler.Run(reconcilerCtx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for {
			select {
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					log.Println("Received SIGHUP, reloading config...")
					reloadConfig(d)

				case os.Interrupt, syscall.SIGTERM:
					log.Println("Shutting down winsink daemon...")
					reconcilerCancel()
					if d.ReleaseOnExit() {
						if count, err := d.ReleaseAll(); err != nil {
							log.Printf("Release on exit failed: %v", err)
						} else if count > 0 {
							log.Printf("Released %d window(s) on exit", count)
						}
					}
					if err := d.SaveState(); err != nil {
						log.Printf("Failed to save state: %v", err)
					}
					ipcServer.Stop()
					os.Exit(0)
				}

			case <-reloadChan:
				// Config reload requested via IPC.
				reloadConfig(d)
			}
		}
	}()

	// Start event loop (blocking); hotkey callbacks fire here.
	log.Println("Entering event loop...")
	conn.EventLoop()
}

func reloadConfig(d *daemon.Daemon) {
	newCfg, err := config.Load()
	if err != nil {
		log.Printf("Config reload failed: %v", err)
		return
	}
	if err := d.ReloadConfig(newCfg); err != nil {
		log.Printf("Config reload failed: %v", err)
		return
	}
	log.Println("Config reloaded successfully")
}
