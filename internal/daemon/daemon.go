package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/1broseidon/virtdisplay/internal/config"
	"github.com/1broseidon/virtdisplay/internal/display"
	"github.com/1broseidon/virtdisplay/internal/host/sim"
	"github.com/1broseidon/virtdisplay/internal/ipc"
	"github.com/1broseidon/virtdisplay/internal/x11"
)

// Daemon owns the adapter, its host, the IPC surface and the frame source.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	host    *sim.Host
	adapter *display.Adapter
	server  *ipc.Server
}

// New assembles a daemon from the effective configuration.
func New(cfg *config.Config, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{cfg: cfg, logger: logger}
}

// Adapter exposes the live adapter, for tests and embedding.
func (d *Daemon) Adapter() *display.Adapter {
	return d.adapter
}

// Run brings up the adapter and serves until the context is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	catalog := display.DefaultCatalog()
	if len(d.cfg.Modes) > 0 {
		catalog = make(display.Catalog, len(d.cfg.Modes))
		for i, m := range d.cfg.Modes {
			catalog[i] = display.Mode{Width: m.Width, Height: m.Height, RefreshHz: m.RefreshHz}
		}
	}

	d.host = sim.New(d.logger)
	d.adapter = display.New(d.host, display.Options{
		Catalog: catalog,
		DefaultMode: display.Mode{
			Width:     d.cfg.DefaultMonitor.Width,
			Height:    d.cfg.DefaultMonitor.Height,
			RefreshHz: d.cfg.DefaultMonitor.RefreshHz,
		},
		Pump: display.PumpConfig{
			MinBackoff: d.cfg.Pump.MinBackoff,
			MaxBackoff: d.cfg.Pump.MaxBackoff,
		},
		Logger: d.logger,
	})

	if err := d.adapter.Initialize(); err != nil {
		return fmt.Errorf("adapter bring-up failed: %w", err)
	}
	defer d.adapter.Close()

	server, err := ipc.NewServer(d.adapter, d.cfg.SocketPath)
	if err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return err
	}
	d.server = server
	defer server.Stop()

	sourceCtx, cancelSource := context.WithCancel(ctx)
	defer cancelSource()
	d.startFrameSource(sourceCtx)

	d.logger.Info("daemon running", "socket", server.SocketPath())
	<-ctx.Done()
	d.logger.Info("daemon shutting down")
	return nil
}

// startFrameSource feeds the default monitor's connector. Screen capture is
// used when configured and reachable; otherwise the synthetic pattern runs.
func (d *Daemon) startFrameSource(ctx context.Context) {
	const connector = 1

	if d.cfg.Capture.Enabled {
		conn, err := x11.NewConnection(d.cfg.Capture.Display)
		if err != nil {
			d.logger.Warn("x11 unavailable, falling back to synthetic frames", "error", err)
		} else {
			capture := x11.NewCapture(conn, d.host, connector, d.cfg.Capture.Interval, d.logger)
			go func() {
				defer conn.Close()
				if err := capture.Run(ctx); err != nil && ctx.Err() == nil {
					d.logger.Error("capture source exited", "error", err)
				}
			}()
			return
		}
	}

	synthetic := NewSynthetic(SyntheticConfig{
		Connector: connector,
		Width:     d.cfg.DefaultMonitor.Width,
		Height:    d.cfg.DefaultMonitor.Height,
		Interval:  d.cfg.Capture.Interval,
		Logger:    d.logger,
	}, d.host)
	go synthetic.Run(ctx)
}
