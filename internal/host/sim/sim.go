// Package sim is an in-memory host compositor. It owns adapter, monitor
// and swap-chain objects the way a real host does: it issues opaque
// handles, finishes adapter bring-up asynchronously, enumerates a new
// monitor's modes on arrival and assigns it a swap chain sized to the
// preferred mode. The daemon and the tests drive the complete core
// lifecycle against it.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/1broseidon/virtdisplay/internal/host"
)

// ringDepth is the number of surfaces per swap chain.
const ringDepth = 3

// modeQueryLimit is how many modes the host asks a monitor for.
const modeQueryLimit = 16

// Faults lets tests inject failures at individual protocol steps. A nil
// field means the step succeeds.
type Faults struct {
	AdapterInit         error
	AdapterSetCallbacks error
	MonitorCreate       error
	MonitorSetCallbacks error
	MonitorArrival      error

	// InitStatus is handed to the adapter's InitFinished callback.
	InitStatus error
}

type adapterObj struct {
	caps host.AdapterCaps
	cb   host.AdapterCallbacks
}

type monitorObj struct {
	adapter host.AdapterHandle
	info    host.MonitorInfo
	cb      host.MonitorCallbacks
	chain   host.SwapChainHandle
}

type surface struct {
	handle host.SurfaceHandle
	data   []byte
}

// swapChain is a bounded producer/consumer ring. Present fills surfaces
// on the producer side; AcquireBuffer and ReleaseBuffer are the consumer
// protocol.
type swapChain struct {
	width  int
	height int

	free        chan *surface
	pending     chan *host.Frame
	mu          sync.Mutex
	outstanding map[host.SurfaceHandle]*surface
	dropped     int
}

// Host is the simulated compositor.
type Host struct {
	Faults Faults

	logger *slog.Logger

	mu       sync.Mutex
	adapters map[host.AdapterHandle]*adapterObj
	monitors map[host.MonitorHandle]*monitorObj
	chains   map[host.SwapChainHandle]*swapChain

	// callbacks dispatched on host goroutines; Settle joins them.
	wg sync.WaitGroup
}

// New creates an empty simulated host.
func New(logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		logger:   logger,
		adapters: make(map[host.AdapterHandle]*adapterObj),
		monitors: make(map[host.MonitorHandle]*monitorObj),
		chains:   make(map[host.SwapChainHandle]*swapChain),
	}
}

// Settle blocks until every host-side callback dispatched so far has
// completed. Deterministic tests call it after operations that trigger
// asynchronous sequencing (init finished, monitor arrival).
func (h *Host) Settle() {
	h.wg.Wait()
}

// AdapterInit validates and records the capability announcement.
func (h *Host) AdapterInit(caps host.AdapterCaps) (host.AdapterHandle, error) {
	if h.Faults.AdapterInit != nil {
		return "", h.Faults.AdapterInit
	}
	if caps.MaxMonitors <= 0 {
		return "", fmt.Errorf("sim: rejecting caps with max monitors %d", caps.MaxMonitors)
	}

	handle := host.AdapterHandle(uuid.NewString())
	h.mu.Lock()
	h.adapters[handle] = &adapterObj{caps: caps}
	h.mu.Unlock()

	h.logger.Debug("sim: adapter registered", "max_monitors", caps.MaxMonitors)
	return handle, nil
}

// AdapterSetCallbacks stores the callback table and finishes bring-up on
// a host goroutine, exactly once per adapter.
func (h *Host) AdapterSetCallbacks(adapter host.AdapterHandle, cb host.AdapterCallbacks) error {
	if h.Faults.AdapterSetCallbacks != nil {
		return h.Faults.AdapterSetCallbacks
	}

	h.mu.Lock()
	obj, ok := h.adapters[adapter]
	if !ok {
		h.mu.Unlock()
		return fmt.Errorf("sim: unknown adapter handle %q", adapter)
	}
	obj.cb = cb
	h.mu.Unlock()

	status := h.Faults.InitStatus
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if err := cb.InitFinished(status); err != nil {
			h.logger.Warn("sim: init finished callback failed", "error", err)
		}
	}()
	return nil
}

// MonitorCreate validates the monitor description the way a host's mode
// validator would: the descriptor must be a well-formed EDID base block.
func (h *Host) MonitorCreate(adapter host.AdapterHandle, info host.MonitorInfo) (host.MonitorHandle, error) {
	if h.Faults.MonitorCreate != nil {
		return "", h.Faults.MonitorCreate
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	a, ok := h.adapters[adapter]
	if !ok {
		return "", fmt.Errorf("sim: unknown adapter handle %q", adapter)
	}
	if len(info.Descriptor) != 128 {
		return "", fmt.Errorf("sim: descriptor is %d bytes, want 128", len(info.Descriptor))
	}
	var sum byte
	for _, b := range info.Descriptor {
		sum += b
	}
	if sum != 0 {
		return "", errors.New("sim: descriptor checksum mismatch")
	}

	count := 0
	for _, m := range h.monitors {
		if m.adapter == adapter {
			count++
		}
	}
	if count >= a.caps.MaxMonitors {
		return "", fmt.Errorf("sim: adapter full (%d monitors)", a.caps.MaxMonitors)
	}

	handle := host.MonitorHandle(uuid.NewString())
	h.monitors[handle] = &monitorObj{adapter: adapter, info: info}
	h.logger.Debug("sim: monitor registered", "connector", info.ConnectorIndex)
	return handle, nil
}

// MonitorSetCallbacks stores the monitor callback table.
func (h *Host) MonitorSetCallbacks(monitor host.MonitorHandle, cb host.MonitorCallbacks) error {
	if h.Faults.MonitorSetCallbacks != nil {
		return h.Faults.MonitorSetCallbacks
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.monitors[monitor]
	if !ok {
		return fmt.Errorf("sim: unknown monitor handle %q", monitor)
	}
	m.cb = cb
	return nil
}

// MonitorArrival runs the host's side of mode negotiation on a host
// goroutine: enumerate default modes, pick the preferred one, create a
// swap chain for it, assign it, and commit the new path configuration.
func (h *Host) MonitorArrival(monitor host.MonitorHandle) error {
	if h.Faults.MonitorArrival != nil {
		return h.Faults.MonitorArrival
	}

	h.mu.Lock()
	m, ok := h.monitors[monitor]
	if !ok || m.cb == nil {
		h.mu.Unlock()
		return fmt.Errorf("sim: monitor %q not ready for arrival", monitor)
	}
	h.mu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.sequenceArrival(monitor, m)
	}()
	return nil
}

func (h *Host) sequenceArrival(handle host.MonitorHandle, m *monitorObj) {
	modes, preferred := m.cb.DefaultModes(modeQueryLimit)
	m.cb.TargetModes(modeQueryLimit)
	if len(modes) == 0 || preferred < 0 || preferred >= len(modes) {
		h.logger.Warn("sim: monitor offered no usable modes")
		return
	}
	signal := modes[preferred].Signal

	sc := host.SwapChainHandle(uuid.NewString())
	chain := newSwapChain(signal.ActiveWidth, signal.ActiveHeight)

	h.mu.Lock()
	h.chains[sc] = chain
	m.chain = sc
	adapter := h.adapters[m.adapter]
	paths := 0
	for _, other := range h.monitors {
		if other.adapter == m.adapter && other.chain != "" {
			paths++
		}
	}
	h.mu.Unlock()

	if err := m.cb.AssignSwapChain(sc); err != nil {
		h.logger.Warn("sim: swap chain assignment rejected", "error", err)
		h.mu.Lock()
		delete(h.chains, sc)
		m.chain = ""
		h.mu.Unlock()
		return
	}

	if adapter != nil && adapter.cb != nil {
		if err := adapter.cb.CommitModes(paths); err != nil {
			h.logger.Warn("sim: commit modes failed", "error", err)
		}
	}
	h.logger.Debug("sim: monitor attached",
		"connector", m.info.ConnectorIndex,
		"size", fmt.Sprintf("%dx%d", signal.ActiveWidth, signal.ActiveHeight))
}

// MonitorDeparture revokes the monitor's swap chain (synchronously, so
// the handle is quiesced on return) and drops the host objects.
func (h *Host) MonitorDeparture(monitor host.MonitorHandle) error {
	h.mu.Lock()
	m, ok := h.monitors[monitor]
	var chain host.SwapChainHandle
	if ok {
		chain = m.chain
	}
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("sim: unknown monitor handle %q", monitor)
	}

	if m.cb != nil && chain != "" {
		if err := m.cb.UnassignSwapChain(); err != nil {
			h.logger.Warn("sim: unassign failed", "error", err)
		}
	}

	h.mu.Lock()
	delete(h.chains, chain)
	delete(h.monitors, monitor)
	h.mu.Unlock()
	return nil
}

// SwapChainFor returns the swap chain currently assigned to a connector
// index, for producers that present frames into it.
func (h *Host) SwapChainFor(connector uint32) (host.SwapChainHandle, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range h.monitors {
		if m.info.ConnectorIndex == connector && m.chain != "" {
			return m.chain, true
		}
	}
	return "", false
}

// SwapChains returns every live swap-chain handle.
func (h *Host) SwapChains() []host.SwapChainHandle {
	h.mu.Lock()
	defer h.mu.Unlock()
	handles := make([]host.SwapChainHandle, 0, len(h.chains))
	for sc := range h.chains {
		handles = append(handles, sc)
	}
	return handles
}

func newSwapChain(width, height int) *swapChain {
	c := &swapChain{
		width:       width,
		height:      height,
		free:        make(chan *surface, ringDepth),
		pending:     make(chan *host.Frame, ringDepth),
		outstanding: make(map[host.SurfaceHandle]*surface),
	}
	for i := 0; i < ringDepth; i++ {
		c.free <- &surface{
			handle: host.SurfaceHandle(uuid.NewString()),
			data:   make([]byte, width*height*4),
		}
	}
	return c
}

func (h *Host) chain(sc host.SwapChainHandle) (*swapChain, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.chains[sc]
	if !ok {
		return nil, fmt.Errorf("sim: unknown swap chain %q", sc)
	}
	return c, nil
}

// Present renders a frame into the swap chain on the producer side. When
// every surface is in flight the frame is dropped, which is what a real
// compositor does when the consumer falls behind.
func (h *Host) Present(sc host.SwapChainHandle, data []byte, dirtyRects int) error {
	c, err := h.chain(sc)
	if err != nil {
		return err
	}

	select {
	case s := <-c.free:
		copy(s.data, data)
		c.pending <- &host.Frame{Surface: s.handle, Data: s.data, DirtyRects: dirtyRects}
		c.mu.Lock()
		c.outstanding[s.handle] = s
		c.mu.Unlock()
		return nil
	default:
		c.mu.Lock()
		c.dropped++
		c.mu.Unlock()
		return nil
	}
}

// AcquireBuffer returns the next pending frame, or ErrPendingFrame when
// the ring is empty. Cancellation wins over a ready frame.
func (h *Host) AcquireBuffer(ctx context.Context, sc host.SwapChainHandle) (*host.Frame, error) {
	c, err := h.chain(sc)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	select {
	case frame := <-c.pending:
		return frame, nil
	default:
		return nil, host.ErrPendingFrame
	}
}

// ReleaseBuffer returns a surface to the free ring. Double release and
// unknown surfaces are protocol violations.
func (h *Host) ReleaseBuffer(sc host.SwapChainHandle, handle host.SurfaceHandle) error {
	c, err := h.chain(sc)
	if err != nil {
		return err
	}

	c.mu.Lock()
	s, ok := c.outstanding[handle]
	if ok {
		delete(c.outstanding, handle)
	}
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("sim: release of surface %q not outstanding", handle)
	}

	c.free <- s
	return nil
}

// Outstanding reports how many surfaces of a swap chain are currently
// held by the consumer or queued for it. Zero after a pump has drained
// and released everything.
func (h *Host) Outstanding(sc host.SwapChainHandle) (int, error) {
	c, err := h.chain(sc)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.outstanding), nil
}
