package x11

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/virtdisplay/internal/host"
)

// Presenter is the producer side of a swap chain: Capture renders grabbed
// screen contents into whichever chain is assigned to its connector.
type Presenter interface {
	Present(sc host.SwapChainHandle, data []byte, dirtyRects int) error
	SwapChainFor(connector uint32) (host.SwapChainHandle, bool)
}

// Capture grabs the root window at a fixed interval and presents each grab
// as a frame. Unchanged grabs are presented with zero dirty rects so the
// consumer can skip re-encoding a static desktop.
type Capture struct {
	conn      *Connection
	presenter Presenter
	connector uint32
	interval  time.Duration
	logger    *slog.Logger

	lastHash uint64
}

// NewCapture creates a capture source feeding the given connector.
func NewCapture(conn *Connection, presenter Presenter, connector uint32, interval time.Duration, logger *slog.Logger) *Capture {
	if logger == nil {
		logger = slog.Default()
	}
	return &Capture{
		conn:      conn,
		presenter: presenter,
		connector: connector,
		interval:  interval,
		logger:    logger,
	}
}

// Run grabs and presents frames until the context is cancelled.
func (c *Capture) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.grabAndPresent(); err != nil {
				c.logger.Warn("screen grab failed", "error", err)
			}
		}
	}
}

func (c *Capture) grabAndPresent() error {
	sc, ok := c.presenter.SwapChainFor(c.connector)
	if !ok {
		// Monitor not attached yet; nothing to feed.
		return nil
	}

	width, height := c.conn.RootGeometry()
	img, err := xproto.GetImage(
		c.conn.XUtil.Conn(),
		xproto.ImageFormatZPixmap,
		xproto.Drawable(c.conn.Root),
		0, 0,
		uint16(width), uint16(height),
		0xffffffff,
	).Reply()
	if err != nil {
		return fmt.Errorf("failed to grab root window: %w", err)
	}

	dirty := 0
	if h := hashFrame(img.Data); h != c.lastHash {
		c.lastHash = h
		dirty = 1
	}

	return c.presenter.Present(sc, img.Data, dirty)
}

func hashFrame(data []byte) uint64 {
	h := fnv.New64a()
	h.Write(data)
	return h.Sum64()
}
