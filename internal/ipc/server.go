package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"

	"github.com/lowtide/winsink/internal/config"
	"github.com/lowtide/winsink/internal/runtimepath"
)

// Controller is the daemon surface the IPC server drives.
type Controller interface {
	Status() StatusData
	ListWindows() ([]ListedWindow, error)
	PinWindow(windowID uint32, source string) error
	ReleaseWindow(windowID uint32) error
	// ToggleWindow returns the action taken, "pinned" or "released".
	ToggleWindow(windowID uint32, source string) (string, error)
	ReleaseAll() (int, error)
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	ctrl         Controller
	reloadChan   chan struct{}
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server. An empty socketPath resolves to the
// standard runtime location.
func NewServer(socketPath string, ctrl Controller, reloadChan chan struct{}) (*Server, error) {
	if socketPath == "" {
		path, err := runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
		socketPath = path
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		ctrl:       ctrl,
		reloadChan: reloadChan,
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	// Accept connections
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	// Parse request
	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// Handle command
	resp := s.handleCommand(req)

	// Send response
	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandPing:
		resp, _ := NewOKResponse(nil)
		return resp
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListWindows:
		return s.handleListWindows()
	case CommandPinWindow:
		return s.handlePinWindow(req.Payload)
	case CommandReleaseWindow:
		return s.handleReleaseWindow(req.Payload)
	case CommandToggleWindow:
		return s.handleToggleWindow(req.Payload)
	case CommandReleaseAll:
		return s.handleReleaseAll()
	case CommandReload:
		return s.handleReload()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetStatus() *Response {
	resp, _ := NewOKResponse(s.ctrl.Status())
	return resp
}

func (s *Server) handleListWindows() *Response {
	windows, err := s.ctrl.ListWindows()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to list windows: %v", err))
	}
	resp, _ := NewOKResponse(WindowsData{Windows: windows})
	return resp
}

func (s *Server) handlePinWindow(payload json.RawMessage) *Response {
	target, errResp := parseWindowPayload(payload)
	if errResp != nil {
		return errResp
	}
	if err := s.ctrl.PinWindow(target.WindowID, target.Source); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(ActionData{WindowID: target.WindowID, Action: "pinned"})
	return resp
}

func (s *Server) handleReleaseWindow(payload json.RawMessage) *Response {
	target, errResp := parseWindowPayload(payload)
	if errResp != nil {
		return errResp
	}
	if err := s.ctrl.ReleaseWindow(target.WindowID); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(ActionData{WindowID: target.WindowID, Action: "released"})
	return resp
}

func (s *Server) handleToggleWindow(payload json.RawMessage) *Response {
	target, errResp := parseWindowPayload(payload)
	if errResp != nil {
		return errResp
	}
	action, err := s.ctrl.ToggleWindow(target.WindowID, target.Source)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(ActionData{WindowID: target.WindowID, Action: action})
	return resp
}

func parseWindowPayload(payload json.RawMessage) (*WindowPayload, *Response) {
	var target WindowPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &target); err != nil {
			return nil, NewErrorResponse(fmt.Sprintf("Invalid window payload: %v", err))
		}
	}
	if target.WindowID == 0 {
		return nil, NewErrorResponse("window_id is required")
	}
	return &target, nil
}

func (s *Server) handleReleaseAll() *Response {
	released, err := s.ctrl.ReleaseAll()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to release all: %v", err))
	}
	resp, _ := NewOKResponse(ReleaseAllData{Released: released})
	return resp
}

// handleReload validates that the configuration still loads, then signals
// the daemon to pick it up.
func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	if _, err := config.Load(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	// Notify the main daemon via channel (non-blocking)
	select {
	case s.reloadChan <- struct{}{}:
	default:
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
