package display

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/1broseidon/virtdisplay/internal/host"
)

// PumpConfig bounds the wait between acquire attempts when the host
// reports no frame ready.
type PumpConfig struct {
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// DefaultPumpConfig returns the stock backoff bounds.
func DefaultPumpConfig() PumpConfig {
	return PumpConfig{
		MinBackoff: 2 * time.Millisecond,
		MaxBackoff: 50 * time.Millisecond,
	}
}

// Pump drives the acquire/inspect/release protocol for one swap chain on
// a dedicated goroutine. The owning monitor starts it on assign and must
// Stop it before the swap-chain handle is returned to the host.
type Pump struct {
	host   host.Host
	sc     host.SwapChainHandle
	sink   Sink
	cfg    PumpConfig
	logger *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func startPump(h host.Host, sc host.SwapChainHandle, sink Sink, cfg PumpConfig, logger *slog.Logger) *Pump {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pump{
		host:   h,
		sc:     sc,
		sink:   sink,
		cfg:    cfg,
		logger: logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go p.run(ctx)
	return p
}

// Stop cancels the pump and joins its goroutine. Any buffer held at
// cancellation time is released before the goroutine exits, and no
// further acquire is issued.
func (p *Pump) Stop() {
	p.cancel()
	<-p.done
}

func (p *Pump) run(ctx context.Context) {
	defer close(p.done)

	p.logger.Info("frame pump started")
	defer p.logger.Info("frame pump stopped")

	backoff := p.cfg.MinBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		frame, err := p.host.AcquireBuffer(ctx, p.sc)
		switch {
		case errors.Is(err, host.ErrPendingFrame):
			// Retry-later signal, not a failure. Wait with capped
			// exponential backoff so the loop never busy-spins.
			if !p.wait(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, p.cfg.MaxBackoff)
			continue
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return
		case err != nil:
			p.logger.Error("buffer acquire failed", "error", err)
			if !p.wait(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, p.cfg.MaxBackoff)
			continue
		}
		backoff = p.cfg.MinBackoff

		if frame.DirtyRects > 0 && p.sink != nil {
			if err := p.sink.HandleFrame(frame); err != nil {
				p.logger.Warn("frame sink failed", "error", err)
			}
		}

		// Exactly one release per successful acquire, dirty or not.
		// A skipped release stalls the host's ring.
		if err := p.host.ReleaseBuffer(p.sc, frame.Surface); err != nil {
			p.logger.Error("buffer release failed", "error", err)
		}
	}
}

func (p *Pump) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
