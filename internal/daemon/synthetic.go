package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/virtdisplay/internal/host"
)

// Presenter is the producer side of a swap chain.
type Presenter interface {
	Present(sc host.SwapChainHandle, data []byte, dirtyRects int) error
	SwapChainFor(connector uint32) (host.SwapChainHandle, bool)
}

// SyntheticConfig holds configuration for the synthetic frame source.
type SyntheticConfig struct {
	Connector uint32
	Width     int
	Height    int
	Interval  time.Duration
	Logger    *slog.Logger
}

// Synthetic presents a moving test pattern into a connector's swap chain.
// It stands in for screen capture when no X server is available.
type Synthetic struct {
	presenter Presenter
	connector uint32
	width     int
	height    int
	interval  time.Duration
	logger    *slog.Logger

	frame []byte
	tick  uint8
}

// NewSynthetic creates a synthetic source with the given configuration.
func NewSynthetic(cfg SyntheticConfig, presenter Presenter) *Synthetic {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Synthetic{
		presenter: presenter,
		connector: cfg.Connector,
		width:     cfg.Width,
		height:    cfg.Height,
		interval:  interval,
		logger:    logger,
		frame:     make([]byte, cfg.Width*cfg.Height*4),
	}
}

// Run presents frames until the context is cancelled.
func (s *Synthetic) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("synthetic frame source started",
		"connector", s.connector,
		"interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("synthetic frame source stopped")
			return
		case <-ticker.C:
			s.present()
		}
	}
}

func (s *Synthetic) present() {
	sc, ok := s.presenter.SwapChainFor(s.connector)
	if !ok {
		return
	}

	s.tick++
	s.render()

	if err := s.presenter.Present(sc, s.frame, 1); err != nil {
		s.logger.Warn("synthetic present failed", "error", err)
	}
}

// render fills the frame with a sliding gradient so successive frames
// differ and downstream change detection has something to chew on.
func (s *Synthetic) render() {
	for y := 0; y < s.height; y++ {
		row := y * s.width * 4
		for x := 0; x < s.width; x++ {
			i := row + x*4
			s.frame[i] = uint8(x) + s.tick
			s.frame[i+1] = uint8(y) + s.tick
			s.frame[i+2] = s.tick
			s.frame[i+3] = 0xFF
		}
	}
}
