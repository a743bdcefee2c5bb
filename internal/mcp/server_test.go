package mcp

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/1broseidon/virtdisplay/internal/display"
	"github.com/1broseidon/virtdisplay/internal/host/sim"
	"github.com/1broseidon/virtdisplay/internal/ipc"
)

func startBackend(t *testing.T) *ipc.Client {
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
	srv, err := ipc.NewServer(adapter, socket)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Stop)

	return ipc.NewClientWithSocket(socket)
}

func TestNewServer_RequiresReachableDaemon(t *testing.T) {
	client := ipc.NewClientWithSocket(filepath.Join(t.TempDir(), "absent.sock"))
	if _, err := NewServer(client); err == nil {
		t.Fatal("server created with no daemon behind the socket")
	}
}

func TestHandleCreateMonitor_DefaultsRefreshRate(t *testing.T) {
	srv, err := NewServer(startBackend(t))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	_, out, err := srv.handleCreateMonitor(context.Background(), nil, CreateMonitorInput{Width: 1280, Height: 720})
	if err != nil {
		t.Fatalf("create_monitor: %v", err)
	}
	if out.MonitorID != 2 {
		t.Fatalf("monitor id = %d, want 2", out.MonitorID)
	}

	_, status, err := srv.handleGetStatus(context.Background(), nil, GetStatusInput{})
	if err != nil {
		t.Fatalf("get_status: %v", err)
	}
	var created *MonitorEntry
	for i := range status.Monitors {
		if status.Monitors[i].ID == out.MonitorID {
			created = &status.Monitors[i]
		}
	}
	if created == nil {
		t.Fatalf("monitor %d missing from status %+v", out.MonitorID, status.Monitors)
	}
	if created.RefreshHz != 60 {
		t.Fatalf("refresh = %d, want defaulted 60", created.RefreshHz)
	}
}

func TestHandleGetAdapterInfo(t *testing.T) {
	srv, err := NewServer(startBackend(t))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	_, info, err := srv.handleGetAdapterInfo(context.Background(), nil, GetAdapterInfoInput{})
	if err != nil {
		t.Fatalf("get_adapter_info: %v", err)
	}
	if !info.Ready {
		t.Fatal("adapter not ready")
	}
	if info.MonitorCount != 1 || info.MaxMonitors != display.MaxMonitors {
		t.Fatalf("info = %+v", info)
	}
}

func TestHandleListModes_MarksOnePreferred(t *testing.T) {
	srv, err := NewServer(startBackend(t))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	_, out, err := srv.handleListModes(context.Background(), nil, ListModesInput{})
	if err != nil {
		t.Fatalf("list_modes: %v", err)
	}
	preferred := 0
	for _, m := range out.Modes {
		if m.Preferred {
			preferred++
		}
	}
	if preferred != 1 {
		t.Fatalf("%d preferred modes, want 1", preferred)
	}
}
