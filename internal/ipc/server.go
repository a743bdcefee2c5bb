package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/virtdisplay/internal/display"
	"github.com/1broseidon/virtdisplay/internal/runtimepath"
)

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	adapter      *display.Adapter
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server serving the given adapter. An empty
// socketPath resolves to the runtime-directory default.
func NewServer(adapter *display.Adapter, socketPath string) (*Server, error) {
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		adapter:    adapter,
		startTime:  time.Now(),
	}, nil
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

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
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
	case CommandCreateMonitor:
		return s.handleCreateMonitor(req.Payload)
	case CommandDestroyMonitor:
		return s.handleDestroyMonitor(req.Payload)
	case CommandGetAdapterInfo:
		return s.handleGetAdapterInfo()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListModes:
		return s.handleListModes()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleCreateMonitor(payload json.RawMessage) *Response {
	var create CreateMonitorPayload
	if err := json.Unmarshal(payload, &create); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid create payload: %v", err))
	}

	id, err := s.adapter.CreateMonitor(create.Width, create.Height, create.RefreshHz)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to create monitor: %v", err))
	}

	log.Printf("IPC: Created monitor %d (%dx%d@%d)", id, create.Width, create.Height, create.RefreshHz)

	resp, _ := NewOKResponse(CreateMonitorData{MonitorID: id})
	return resp
}

func (s *Server) handleDestroyMonitor(payload json.RawMessage) *Response {
	var destroy DestroyMonitorPayload
	if err := json.Unmarshal(payload, &destroy); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid destroy payload: %v", err))
	}

	if err := s.adapter.DestroyMonitor(destroy.MonitorID); err != nil {
		if errors.Is(err, display.ErrNotImplemented) {
			return NewErrorResponse("Destroying individual monitors is not implemented")
		}
		return NewErrorResponse(fmt.Sprintf("Failed to destroy monitor: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleGetAdapterInfo() *Response {
	info := s.adapter.Info()
	resp, _ := NewOKResponse(AdapterInfoData{
		Ready:        s.adapter.Ready(),
		MonitorCount: info.MonitorCount,
		MaxMonitors:  info.MaxMonitors,
	})
	return resp
}

func (s *Server) handleGetStatus() *Response {
	statuses := s.adapter.Monitors()
	monitors := make([]MonitorData, len(statuses))
	for i, m := range statuses {
		monitors[i] = MonitorData{
			ID:        m.ID,
			Width:     m.Mode.Width,
			Height:    m.Mode.Height,
			RefreshHz: m.Mode.RefreshHz,
			Active:    m.Active,
		}
	}

	status := StatusData{
		DaemonRunning: true,
		AdapterReady:  s.adapter.Ready(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Monitors:      monitors,
	}

	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleListModes() *Response {
	catalog := s.adapter.Modes()
	preferred := catalog.Preferred()

	modes := make([]ModeData, len(catalog))
	for i, m := range catalog {
		modes[i] = ModeData{
			Width:     m.Width,
			Height:    m.Height,
			RefreshHz: m.RefreshHz,
			Preferred: m == preferred,
		}
	}

	resp, _ := NewOKResponse(ModesData{Modes: modes})
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
