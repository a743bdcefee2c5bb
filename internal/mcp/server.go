package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/virtdisplay/internal/ipc"
)

const (
	ServerName    = "virtdisplay"
	ServerVersion = "0.1.0"
)

// Server exposes the daemon's control plane as MCP tools over stdio. Every
// tool call is forwarded to the daemon through the IPC client.
type Server struct {
	mcpServer *mcpsdk.Server
	client    *ipc.Client
}

// NewServer creates an MCP server backed by the given IPC client.
func NewServer(client *ipc.Client) (*Server, error) {
	if err := client.Ping(); err != nil {
		return nil, fmt.Errorf("daemon not reachable: %w", err)
	}

	s := &Server{client: client}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "create_monitor",
		Description: "Plug in a virtual monitor with the given resolution and refresh rate. Returns the monitor id for future reference.",
	}, s.handleCreateMonitor)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_adapter_info",
		Description: "Report adapter readiness, the number of live monitors and the monitor limit.",
	}, s.handleGetAdapterInfo)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_modes",
		Description: "List the display modes the adapter advertises to the host, with the preferred mode marked.",
	}, s.handleListModes)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report daemon uptime and the state of every virtual monitor.",
	}, s.handleGetStatus)
}

func (s *Server) handleCreateMonitor(_ context.Context, _ *mcpsdk.CallToolRequest, args CreateMonitorInput) (*mcpsdk.CallToolResult, CreateMonitorOutput, error) {
	refresh := args.RefreshHz
	if refresh == 0 {
		refresh = 60
	}

	id, err := s.client.CreateMonitor(args.Width, args.Height, refresh)
	if err != nil {
		return nil, CreateMonitorOutput{}, err
	}
	return nil, CreateMonitorOutput{MonitorID: id}, nil
}

func (s *Server) handleGetAdapterInfo(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetAdapterInfoInput) (*mcpsdk.CallToolResult, GetAdapterInfoOutput, error) {
	info, err := s.client.GetAdapterInfo()
	if err != nil {
		return nil, GetAdapterInfoOutput{}, err
	}
	return nil, GetAdapterInfoOutput{
		Ready:        info.Ready,
		MonitorCount: info.MonitorCount,
		MaxMonitors:  info.MaxMonitors,
	}, nil
}

func (s *Server) handleListModes(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListModesInput) (*mcpsdk.CallToolResult, ListModesOutput, error) {
	modes, err := s.client.ListModes()
	if err != nil {
		return nil, ListModesOutput{}, err
	}

	out := ListModesOutput{Modes: make([]ModeEntry, len(modes.Modes))}
	for i, m := range modes.Modes {
		out.Modes[i] = ModeEntry{
			Width:     m.Width,
			Height:    m.Height,
			RefreshHz: m.RefreshHz,
			Preferred: m.Preferred,
		}
	}
	return nil, out, nil
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	status, err := s.client.GetStatus()
	if err != nil {
		return nil, GetStatusOutput{}, err
	}

	out := GetStatusOutput{
		DaemonRunning: status.DaemonRunning,
		UptimeSeconds: status.UptimeSeconds,
		Monitors:      make([]MonitorEntry, len(status.Monitors)),
	}
	for i, m := range status.Monitors {
		out.Monitors[i] = MonitorEntry{
			ID:        m.ID,
			Width:     m.Width,
			Height:    m.Height,
			RefreshHz: m.RefreshHz,
			Active:    m.Active,
		}
	}
	return nil, out, nil
}
