package ipc

import (
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/virtdisplay/internal/display"
	"github.com/1broseidon/virtdisplay/internal/host/sim"
)

func startTestServer(t *testing.T) (*Server, *Client, *sim.Host) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := sim.New(logger)
	adapter := display.New(h, display.Options{Logger: logger})
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	h.Settle()
	t.Cleanup(adapter.Close)

	socket := filepath.Join(t.TempDir(), "virtdisplay.sock")
	srv, err := NewServer(adapter, socket)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Stop)

	return srv, NewClientWithSocket(socket), h
}

func TestServer_GetStatusListsDefaultMonitor(t *testing.T) {
	_, client, _ := startTestServer(t)

	status, err := client.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !status.DaemonRunning {
		t.Fatal("daemon not reported running")
	}
	if !status.AdapterReady {
		t.Fatal("adapter not reported ready")
	}
	if len(status.Monitors) != 1 {
		t.Fatalf("%d monitors reported, want 1", len(status.Monitors))
	}
	m := status.Monitors[0]
	if m.ID != 1 || m.Width != 1920 || m.Height != 1080 || m.RefreshHz != 60 {
		t.Fatalf("default monitor = %+v", m)
	}
	if !m.Active {
		t.Fatal("default monitor not active")
	}
}

func TestServer_CreateMonitorRoundTrip(t *testing.T) {
	_, client, h := startTestServer(t)

	id, err := client.CreateMonitor(1280, 720, 60)
	if err != nil {
		t.Fatalf("CreateMonitor: %v", err)
	}
	if id != 2 {
		t.Fatalf("monitor id = %d, want 2", id)
	}
	h.Settle()

	info, err := client.GetAdapterInfo()
	if err != nil {
		t.Fatalf("GetAdapterInfo: %v", err)
	}
	if !info.Ready {
		t.Fatal("adapter not ready")
	}
	if info.MonitorCount != 2 {
		t.Fatalf("monitor count = %d, want 2", info.MonitorCount)
	}
	if info.MaxMonitors != display.MaxMonitors {
		t.Fatalf("max monitors = %d, want %d", info.MaxMonitors, display.MaxMonitors)
	}
}

func TestServer_CreateMonitorRejectsBadMode(t *testing.T) {
	_, client, _ := startTestServer(t)

	if _, err := client.CreateMonitor(0, 720, 60); err == nil {
		t.Fatal("zero-width monitor accepted")
	}
}

func TestServer_DestroyMonitorReportsNotImplemented(t *testing.T) {
	_, client, _ := startTestServer(t)

	err := client.DestroyMonitor(1)
	if err == nil {
		t.Fatal("destroy succeeded, want not-implemented error")
	}
	if !strings.Contains(err.Error(), "not implemented") {
		t.Fatalf("destroy error = %v, want not-implemented message", err)
	}
}

func TestServer_ListModesMarksPreferred(t *testing.T) {
	_, client, _ := startTestServer(t)

	modes, err := client.ListModes()
	if err != nil {
		t.Fatalf("ListModes: %v", err)
	}
	if len(modes.Modes) != len(display.DefaultCatalog()) {
		t.Fatalf("%d modes, want %d", len(modes.Modes), len(display.DefaultCatalog()))
	}

	preferred := 0
	for _, m := range modes.Modes {
		if m.Preferred {
			preferred++
			if m.Width != 1920 || m.Height != 1080 || m.RefreshHz != 60 {
				t.Fatalf("preferred mode = %+v, want 1920x1080@60", m)
			}
		}
	}
	if preferred != 1 {
		t.Fatalf("%d preferred modes, want 1", preferred)
	}
}

func TestServer_UnknownCommandReturnsError(t *testing.T) {
	srv, _, _ := startTestServer(t)

	conn, err := net.Dial("unix", srv.SocketPath())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(`{"command":"FROBNICATE"}` + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(buf[:n]), "Unknown command") {
		t.Fatalf("response %q does not flag the unknown command", buf[:n])
	}
}
