package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/lowtide/winsink/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the standard socket location.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithSocket(socketPath)
}

// NewClientWithSocket creates a client for an explicit socket path.
func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	// Connect to socket
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	// Set deadline
	conn.SetDeadline(time.Now().Add(c.timeout))

	// Marshal request
	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Send request
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	// Read response
	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// Parse response
	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// Check for error response
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.sendRequest(&Request{Command: CommandPing})
	return err
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}
	return &status, nil
}

// ListWindows retrieves all normal windows with their pin state.
func (c *Client) ListWindows() ([]ListedWindow, error) {
	resp, err := c.sendRequest(&Request{Command: CommandListWindows})
	if err != nil {
		return nil, err
	}

	var data WindowsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse windows data: %w", err)
	}
	return data.Windows, nil
}

func (c *Client) windowRequest(cmd CommandType, windowID uint32, source string) (*ActionData, error) {
	payload, err := json.Marshal(WindowPayload{WindowID: windowID, Source: source})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal window payload: %w", err)
	}

	resp, err := c.sendRequest(&Request{Command: cmd, Payload: payload})
	if err != nil {
		return nil, err
	}

	var action ActionData
	if err := json.Unmarshal(resp.Data, &action); err != nil {
		return nil, fmt.Errorf("failed to parse action data: %w", err)
	}
	return &action, nil
}

// PinWindow asks the daemon to pin a window to the bottom. An empty source
// is recorded as "manual".
func (c *Client) PinWindow(windowID uint32, source string) error {
	_, err := c.windowRequest(CommandPinWindow, windowID, source)
	return err
}

// ReleaseWindow asks the daemon to release a pinned window.
func (c *Client) ReleaseWindow(windowID uint32) error {
	_, err := c.windowRequest(CommandReleaseWindow, windowID, "")
	return err
}

// ToggleWindow flips a window's pin state and returns the action taken,
// "pinned" or "released".
func (c *Client) ToggleWindow(windowID uint32, source string) (string, error) {
	action, err := c.windowRequest(CommandToggleWindow, windowID, source)
	if err != nil {
		return "", err
	}
	return action.Action, nil
}

// ReleaseAll releases every window the daemon pinned and returns how many.
func (c *Client) ReleaseAll() (int, error) {
	resp, err := c.sendRequest(&Request{Command: CommandReleaseAll})
	if err != nil {
		return 0, err
	}

	var data ReleaseAllData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return 0, fmt.Errorf("failed to parse release data: %w", err)
	}
	return data.Released, nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	_, err := c.sendRequest(&Request{Command: CommandReload})
	return err
}
