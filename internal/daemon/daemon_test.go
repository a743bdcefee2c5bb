package daemon

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/1broseidon/virtdisplay/internal/config"
	"github.com/1broseidon/virtdisplay/internal/host"
	"github.com/1broseidon/virtdisplay/internal/ipc"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDaemon_ServesStatusOverIPC(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SocketPath = filepath.Join(t.TempDir(), "virtdisplay.sock")
	cfg.Capture.Interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	d := New(cfg, testLogger())

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	client := ipc.NewClientWithSocket(cfg.SocketPath)
	var status *ipc.StatusData
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var err error
		status, err = client.GetStatus()
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if status == nil {
		cancel()
		t.Fatal("daemon never answered GET_STATUS")
	}
	if len(status.Monitors) != 1 || status.Monitors[0].Width != 1920 {
		t.Fatalf("status monitors = %+v, want one 1920-wide monitor", status.Monitors)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not shut down after cancel")
	}
}

type stubPresenter struct {
	sc        host.SwapChainHandle
	presented chan []byte
}

func (s *stubPresenter) Present(_ host.SwapChainHandle, data []byte, _ int) error {
	select {
	case s.presented <- append([]byte(nil), data...):
	default:
	}
	return nil
}

func (s *stubPresenter) SwapChainFor(uint32) (host.SwapChainHandle, bool) {
	if s.sc == "" {
		return "", false
	}
	return s.sc, true
}

func TestSynthetic_PresentsChangingFrames(t *testing.T) {
	sp := &stubPresenter{sc: "chain", presented: make(chan []byte, 2)}
	s := NewSynthetic(SyntheticConfig{
		Connector: 1,
		Width:     8,
		Height:    8,
		Interval:  time.Millisecond,
		Logger:    testLogger(),
	}, sp)

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	defer cancel()

	var first, second []byte
	select {
	case first = <-sp.presented:
	case <-time.After(2 * time.Second):
		t.Fatal("no frame presented")
	}
	select {
	case second = <-sp.presented:
	case <-time.After(2 * time.Second):
		t.Fatal("no second frame presented")
	}

	if len(first) != 8*8*4 {
		t.Fatalf("frame size = %d, want %d", len(first), 8*8*4)
	}
	same := true
	for i := range first {
		if first[i] != second[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("successive frames identical, pattern not advancing")
	}
}

func TestSynthetic_SkipsWhenUnassigned(t *testing.T) {
	sp := &stubPresenter{presented: make(chan []byte, 1)}
	s := NewSynthetic(SyntheticConfig{Width: 4, Height: 4, Logger: testLogger()}, sp)

	s.present()
	select {
	case <-sp.presented:
		t.Fatal("presented a frame with no swap chain assigned")
	default:
	}
}
