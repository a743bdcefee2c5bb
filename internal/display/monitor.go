package display

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/virtdisplay/internal/edid"
	"github.com/1broseidon/virtdisplay/internal/host"
)

// monitorState tracks the per-monitor lifecycle.
type monitorState int

const (
	stateCreated monitorState = iota
	stateNegotiating
	stateAttached
	stateDetached
	stateDestroyed
)

func (s monitorState) String() string {
	switch s {
	case stateCreated:
		return "created"
	case stateNegotiating:
		return "negotiating"
	case stateAttached:
		return "attached"
	case stateDetached:
		return "detached"
	case stateDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// Monitor is one virtual display output. The adapter owns it; the host
// drives its callbacks. Invariant: active is true iff swapChain is set.
type Monitor struct {
	id      uint32
	handle  host.MonitorHandle
	adapter *Adapter // non-owning back-reference
	mode    Mode
	logger  *slog.Logger

	mu        sync.Mutex
	state     monitorState
	active    bool
	swapChain host.SwapChainHandle
	pump      *Pump
}

// newMonitor allocates a monitor id, builds the EDID descriptor, submits
// the monitor to the host, registers callbacks and announces arrival.
// A failure at any step leaves no monitor state behind; the caller only
// inserts the monitor into the adapter map on success. Ids are never
// reused, even for monitors that fail late or are destroyed.
func (a *Adapter) newMonitor(mode Mode) (*Monitor, error) {
	id := a.nextMonitorID.Add(1)

	descriptor, err := edid.Encode(mode.Width, mode.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: descriptor: %v", ErrMonitorCreate, err)
	}

	info := host.MonitorInfo{
		ConnectorIndex: id,
		Type:           host.ConnectorDisplayPortExternal,
		Descriptor:     descriptor,
	}

	handle, err := a.host.MonitorCreate(a.handle, info)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMonitorCreate, err)
	}

	mon := &Monitor{
		id:      id,
		handle:  handle,
		adapter: a,
		mode:    mode,
		logger:  a.logger.With("monitor_id", id),
		state:   stateCreated,
	}

	if err := a.host.MonitorSetCallbacks(handle, mon); err != nil {
		return nil, fmt.Errorf("%w: register callbacks: %v", ErrMonitorCreate, err)
	}

	if err := a.host.MonitorArrival(handle); err != nil {
		return nil, fmt.Errorf("%w: arrival: %v", ErrMonitorCreate, err)
	}

	return mon, nil
}

// ID returns the monitor's connector index.
func (m *Monitor) ID() uint32 { return m.id }

// DefaultModes serves the host's default description mode query from the
// adapter's catalog, in catalog order. Index 0 is the preferred mode.
func (m *Monitor) DefaultModes(max int) ([]host.MonitorMode, int) {
	catalog := m.adapter.catalog
	n := catalog.Clamp(max)

	modes := make([]host.MonitorMode, n)
	for i := 0; i < n; i++ {
		modes[i] = host.MonitorMode{Signal: catalog[i].Signal()}
	}

	m.mu.Lock()
	if m.state == stateCreated {
		m.state = stateNegotiating
	}
	m.mu.Unlock()

	m.logger.Debug("default modes served", "requested", max, "returned", n)
	return modes, 0
}

// TargetModes serves the host's target mode query. Its traversal and
// field derivation must stay in lock-step with DefaultModes: the host
// cross-matches the two sets.
func (m *Monitor) TargetModes(max int) []host.TargetMode {
	catalog := m.adapter.catalog
	n := catalog.Clamp(max)

	modes := make([]host.TargetMode, n)
	for i := 0; i < n; i++ {
		modes[i] = host.TargetMode{Signal: catalog[i].Signal()}
	}

	m.logger.Debug("target modes served", "requested", max, "returned", n)
	return modes
}

// AssignSwapChain stores the swap-chain handle and starts a frame pump
// against it. A repeated assignment without an intervening unassign stops
// the previous pump first.
func (m *Monitor) AssignSwapChain(sc host.SwapChainHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateDestroyed {
		return fmt.Errorf("%w: monitor %d destroyed", ErrInvalidArgument, m.id)
	}

	if m.pump != nil {
		m.pump.Stop()
		m.pump = nil
	}

	m.swapChain = sc
	m.active = true
	m.state = stateAttached
	m.pump = startPump(m.adapter.host, sc, m.adapter.sink, m.adapter.pumpCfg, m.logger)

	m.logger.Info("swap chain assigned")
	return nil
}

// UnassignSwapChain stops the pump and clears the handle. The pump is
// fully joined before this returns: the host reuses or frees the handle
// immediately afterwards.
func (m *Monitor) UnassignSwapChain() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pump != nil {
		m.pump.Stop()
		m.pump = nil
	}
	m.swapChain = ""
	m.active = false
	if m.state == stateAttached {
		m.state = stateDetached
	}

	m.logger.Info("swap chain unassigned")
	return nil
}

// destroy quiesces the monitor and reports its departure to the host.
// Called with the adapter mutex held during adapter teardown.
func (m *Monitor) destroy() error {
	if err := m.UnassignSwapChain(); err != nil {
		return err
	}

	m.mu.Lock()
	m.state = stateDestroyed
	m.mu.Unlock()

	if err := m.adapter.host.MonitorDeparture(m.handle); err != nil {
		return fmt.Errorf("departure: %w", err)
	}
	return nil
}

func (m *Monitor) status() MonitorStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MonitorStatus{ID: m.id, Mode: m.mode, Active: m.active}
}
