package mcp

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	ops, closer, err := s.resolveOps()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	if closer != nil {
		defer closer()
	}

	rows, err := ops.List()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	if args.PinnedOnly {
		filtered := rows[:0]
		for _, row := range rows {
			if row.Pinned {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}
	sortRows(rows)

	_, daemonRunning := ops.(*ipcOps)
	return nil, ListWindowsOutput{Windows: rows, DaemonRunning: daemonRunning}, nil
}

func (s *Server) handlePinWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args TargetInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	return s.applyToTarget(args, "pinned", func(ops windowOps, windowID uint32) error {
		return ops.Pin(windowID)
	})
}

func (s *Server) handleReleaseWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args TargetInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	return s.applyToTarget(args, "released", func(ops windowOps, windowID uint32) error {
		return ops.Release(windowID)
	})
}

func (s *Server) applyToTarget(args TargetInput, action string, apply func(windowOps, uint32) error) (*mcpsdk.CallToolResult, ActionOutput, error) {
	ops, closer, err := s.resolveOps()
	if err != nil {
		return nil, ActionOutput{}, err
	}
	if closer != nil {
		defer closer()
	}

	rows, err := ops.List()
	if err != nil {
		return nil, ActionOutput{}, err
	}
	target, err := resolveTarget(rows, args)
	if err != nil {
		return nil, ActionOutput{}, err
	}
	if err := apply(ops, target.ID); err != nil {
		return nil, ActionOutput{}, err
	}
	return nil, ActionOutput{
		WindowID: target.ID,
		Title:    target.Title,
		Class:    target.Class,
		Action:   action,
	}, nil
}

func (s *Server) handleWindowState(_ context.Context, _ *mcpsdk.CallToolRequest, args TargetInput) (*mcpsdk.CallToolResult, WindowStateOutput, error) {
	ops, closer, err := s.resolveOps()
	if err != nil {
		return nil, WindowStateOutput{}, err
	}
	if closer != nil {
		defer closer()
	}

	rows, err := ops.List()
	if err != nil {
		return nil, WindowStateOutput{}, err
	}
	target, err := resolveTarget(rows, args)
	if err != nil {
		return nil, WindowStateOutput{}, err
	}

	out := WindowStateOutput{WindowRow: *target}
	if rec, ok := ops.PinRecord(target.ID); ok {
		out.PinSource = string(rec.Source)
		pinnedAt := rec.PinnedAt
		out.PinnedAt = &pinnedAt
	}
	return nil, out, nil
}

func (s *Server) handleWMInfo(_ context.Context, _ *mcpsdk.CallToolRequest, _ WMInfoInput) (*mcpsdk.CallToolResult, WMInfoOutput, error) {
	ops, closer, err := s.resolveOps()
	if err != nil {
		return nil, WMInfoOutput{}, err
	}
	if closer != nil {
		defer closer()
	}

	info, err := ops.Info()
	if err != nil {
		return nil, WMInfoOutput{}, err
	}
	return nil, info, nil
}

// resolveTarget narrows the listed windows to the single one the input
// names. An id that is not in the list is an error; a query matching zero
// or several windows is an error naming the candidates, so the caller can
// retry with window_id.
func resolveTarget(rows []WindowRow, args TargetInput) (*WindowRow, error) {
	if args.WindowID != 0 {
		for i := range rows {
			if rows[i].ID == args.WindowID {
				return &rows[i], nil
			}
		}
		return nil, fmt.Errorf("window %#x is not in the window list", args.WindowID)
	}

	if args.Class == "" && args.Title == "" {
		return nil, fmt.Errorf("no target: set window_id, class or title")
	}

	classRE, err := compileQuery(args.Class, "class")
	if err != nil {
		return nil, err
	}
	titleRE, err := compileQuery(args.Title, "title")
	if err != nil {
		return nil, err
	}

	var matches []*WindowRow
	for i := range rows {
		if classRE != nil && !classRE.MatchString(rows[i].Class) {
			continue
		}
		if titleRE != nil && !titleRE.MatchString(rows[i].Title) {
			continue
		}
		matches = append(matches, &rows[i])
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, fmt.Errorf("no window matches class=%q title=%q", args.Class, args.Title)
	default:
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, fmt.Sprintf("%#x (%s: %s)", m.ID, m.Class, m.Title))
		}
		return nil, fmt.Errorf("query matches %d windows, use window_id to disambiguate: %s",
			len(matches), strings.Join(names, ", "))
	}
}

// compileQuery compiles a case-insensitive query regexp; "" means no
// constraint.
func compileQuery(pattern, field string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid %s pattern %q: %w", field, pattern, err)
	}
	return re, nil
}
