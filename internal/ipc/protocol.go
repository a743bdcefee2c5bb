package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandCreateMonitor  CommandType = "CREATE_MONITOR"
	CommandDestroyMonitor CommandType = "DESTROY_MONITOR"
	CommandGetAdapterInfo CommandType = "GET_ADAPTER_INFO"
	CommandGetStatus      CommandType = "GET_STATUS"
	CommandListModes      CommandType = "LIST_MODES"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// CreateMonitorPayload carries the mode of the monitor to plug in.
type CreateMonitorPayload struct {
	Width     int `json:"width"`
	Height    int `json:"height"`
	RefreshHz int `json:"refresh_hz"`
}

// CreateMonitorData is returned by CREATE_MONITOR.
type CreateMonitorData struct {
	MonitorID uint32 `json:"monitor_id"`
}

// DestroyMonitorPayload names the monitor to unplug.
type DestroyMonitorPayload struct {
	MonitorID uint32 `json:"monitor_id"`
}

// AdapterInfoData is returned by GET_ADAPTER_INFO.
type AdapterInfoData struct {
	Ready        bool `json:"ready"`
	MonitorCount int  `json:"monitor_count"`
	MaxMonitors  int  `json:"max_monitors"`
}

// MonitorData describes one live monitor.
type MonitorData struct {
	ID        uint32 `json:"id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	RefreshHz int    `json:"refresh_hz"`
	Active    bool   `json:"active"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	DaemonRunning bool          `json:"daemon_running"`
	AdapterReady  bool          `json:"adapter_ready"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	Monitors      []MonitorData `json:"monitors"`
}

// ModeData describes one advertised mode.
type ModeData struct {
	Width     int  `json:"width"`
	Height    int  `json:"height"`
	RefreshHz int  `json:"refresh_hz"`
	Preferred bool `json:"preferred"`
}

// ModesData represents the data returned by LIST_MODES
type ModesData struct {
	Modes []ModeData `json:"modes"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
