package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/1broseidon/virtdisplay/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client against the default socket.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithSocket(socketPath)
}

// NewClientWithSocket creates a client against an explicit socket path.
func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// dial connects to the daemon socket, retrying briefly so clients racing a
// daemon restart do not fail on the first refused connection.
func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	return retry.DoWithData(
		func() (net.Conn, error) {
			return net.DialTimeout("unix", c.socketPath, c.timeout)
		},
		retry.Attempts(3),
		retry.Delay(100*time.Millisecond),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	conn, err := c.dial(ctx)
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

// CreateMonitor asks the daemon to plug in a monitor with the given mode.
func (c *Client) CreateMonitor(width, height, refreshHz int) (uint32, error) {
	payload, err := json.Marshal(CreateMonitorPayload{
		Width:     width,
		Height:    height,
		RefreshHz: refreshHz,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal create payload: %w", err)
	}

	resp, err := c.sendRequest(&Request{
		Command: CommandCreateMonitor,
		Payload: payload,
	})
	if err != nil {
		return 0, err
	}

	var data CreateMonitorData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return 0, fmt.Errorf("failed to parse create data: %w", err)
	}
	return data.MonitorID, nil
}

// DestroyMonitor asks the daemon to unplug a monitor.
func (c *Client) DestroyMonitor(id uint32) error {
	payload, err := json.Marshal(DestroyMonitorPayload{MonitorID: id})
	if err != nil {
		return fmt.Errorf("failed to marshal destroy payload: %w", err)
	}

	_, err = c.sendRequest(&Request{
		Command: CommandDestroyMonitor,
		Payload: payload,
	})
	return err
}

// GetAdapterInfo retrieves adapter-level counters.
func (c *Client) GetAdapterInfo() (*AdapterInfoData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetAdapterInfo})
	if err != nil {
		return nil, err
	}

	var info AdapterInfoData
	if err := json.Unmarshal(resp.Data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse adapter info: %w", err)
	}
	return &info, nil
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

// ListModes retrieves the advertised mode list.
func (c *Client) ListModes() (*ModesData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandListModes})
	if err != nil {
		return nil, err
	}

	var modes ModesData
	if err := json.Unmarshal(resp.Data, &modes); err != nil {
		return nil, fmt.Errorf("failed to parse modes data: %w", err)
	}
	return &modes, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
