package mcp

// CreateMonitorInput is the input for the create_monitor tool.
type CreateMonitorInput struct {
	Width     int `json:"width" jsonschema:"required,Horizontal resolution in pixels"`
	Height    int `json:"height" jsonschema:"required,Vertical resolution in pixels"`
	RefreshHz int `json:"refresh_hz,omitempty" jsonschema:"Refresh rate in Hz (default: 60)"`
}

// CreateMonitorOutput is the output for the create_monitor tool.
type CreateMonitorOutput struct {
	MonitorID uint32 `json:"monitor_id"`
}

// GetAdapterInfoInput is the input for the get_adapter_info tool.
type GetAdapterInfoInput struct{}

// GetAdapterInfoOutput is the output for the get_adapter_info tool.
type GetAdapterInfoOutput struct {
	Ready        bool `json:"ready"`
	MonitorCount int  `json:"monitor_count"`
	MaxMonitors  int  `json:"max_monitors"`
}

// ListModesInput is the input for the list_modes tool.
type ListModesInput struct{}

// ModeEntry describes one advertised mode.
type ModeEntry struct {
	Width     int  `json:"width"`
	Height    int  `json:"height"`
	RefreshHz int  `json:"refresh_hz"`
	Preferred bool `json:"preferred"`
}

// ListModesOutput is the output for the list_modes tool.
type ListModesOutput struct {
	Modes []ModeEntry `json:"modes"`
}

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// MonitorEntry describes one live monitor.
type MonitorEntry struct {
	ID        uint32 `json:"id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	RefreshHz int    `json:"refresh_hz"`
	Active    bool   `json:"active"`
}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	DaemonRunning bool           `json:"daemon_running"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Monitors      []MonitorEntry `json:"monitors"`
}
