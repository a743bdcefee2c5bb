// Package display implements the control core of the virtual display
// adapter: the adapter/monitor/swap-chain lifecycle, the mode catalog, and
// the frame pump. The host compositor drives it through the callback
// interfaces in internal/host.
package display

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/1broseidon/virtdisplay/internal/host"
)

// MaxMonitors is the monitor cap announced in the adapter capabilities.
const MaxMonitors = 4

// Sink consumes frames with dirty content pulled off a swap chain. The
// encode/transport pipeline behind it is out of scope; implementations in
// this repo only observe frames.
type Sink interface {
	HandleFrame(frame *host.Frame) error
}

// Options configures an Adapter. Zero fields fall back to defaults.
type Options struct {
	Catalog     Catalog
	DefaultMode Mode
	Pump        PumpConfig
	Sink        Sink
	Logger      *slog.Logger
}

// Adapter owns the adapter-wide state: the capability announcement, the
// monitor map and count, and monitor-id allocation. One Adapter exists per
// host adapter object.
type Adapter struct {
	host    host.Host
	logger  *slog.Logger
	catalog Catalog
	defMode Mode
	pumpCfg PumpConfig
	sink    Sink

	handle host.AdapterHandle
	caps   host.AdapterCaps

	// monitorCount and nextMonitorID follow the atomic-counter
	// discipline: control-plane queries read them without taking mu.
	monitorCount  atomic.Int64
	nextMonitorID atomic.Uint32

	ready atomic.Bool

	mu       sync.Mutex
	monitors map[uint32]*Monitor
}

// AdapterInfo is the control-plane view of the adapter.
type AdapterInfo struct {
	MonitorCount int
	MaxMonitors  int
}

// MonitorStatus is the control-plane view of one monitor.
type MonitorStatus struct {
	ID     uint32
	Mode   Mode
	Active bool
}

// New creates an Adapter bound to the given host. The adapter is unusable
// until Initialize succeeds and the host reports init finished.
func New(h host.Host, opts Options) *Adapter {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if len(opts.Catalog) == 0 {
		opts.Catalog = DefaultCatalog()
	}
	if !opts.DefaultMode.Valid() {
		opts.DefaultMode = opts.Catalog.Preferred()
	}
	if opts.Pump.MinBackoff <= 0 || opts.Pump.MaxBackoff <= 0 {
		opts.Pump = DefaultPumpConfig()
	}

	return &Adapter{
		host:     h,
		logger:   opts.Logger,
		catalog:  opts.Catalog,
		defMode:  opts.DefaultMode,
		pumpCfg:  opts.Pump,
		sink:     opts.Sink,
		monitors: make(map[uint32]*Monitor),
	}
}

// Initialize submits the fixed capability set to the host and registers
// the adapter callback table. On failure the adapter must not proceed to
// monitor creation.
func (a *Adapter) Initialize() error {
	caps := host.AdapterCaps{
		MaxMonitors:                 MaxMonitors,
		GammaSupport:                host.FeatureNone,
		Transmission:                host.TransmissionWiredOther,
		StaticDesktopReencodeFrames: 0,
	}

	handle, err := a.host.AdapterInit(caps)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInit, err)
	}
	a.handle = handle
	a.caps = caps

	if err := a.host.AdapterSetCallbacks(handle, a); err != nil {
		return fmt.Errorf("%w: register callbacks: %v", ErrInit, err)
	}

	a.logger.Info("adapter initialized", "max_monitors", caps.MaxMonitors)
	return nil
}

// InitFinished is the host's bring-up completion callback. A failed status
// is propagated unchanged; on success the adapter creates its single
// default monitor.
func (a *Adapter) InitFinished(status error) error {
	if status != nil {
		a.logger.Error("adapter init finished with failure", "error", status)
		return status
	}

	id, err := a.CreateMonitor(a.defMode.Width, a.defMode.Height, a.defMode.RefreshHz)
	if err != nil {
		a.logger.Error("default monitor creation failed", "error", err)
		return err
	}

	a.ready.Store(true)
	a.logger.Info("default monitor created", "monitor_id", id)
	return nil
}

// CommitModes accepts every proposed mode configuration. Validation
// happens at mode-query time, never at commit time.
func (a *Adapter) CommitModes(pathCount int) error {
	a.logger.Info("modes committed", "path_count", pathCount)
	return nil
}

// Ready reports whether the host has finished adapter bring-up.
func (a *Adapter) Ready() bool {
	return a.ready.Load()
}

// CreateMonitor brings up one virtual monitor with the given mode and
// returns its id. The 4-monitor cap is enforced here, before any host
// object is created.
func (a *Adapter) CreateMonitor(width, height, refreshHz int) (uint32, error) {
	mode := Mode{Width: width, Height: height, RefreshHz: refreshHz}
	if !mode.Valid() {
		return 0, fmt.Errorf("%w: mode %dx%d@%d", ErrInvalidArgument, width, height, refreshHz)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.monitorCount.Load() >= int64(a.caps.MaxMonitors) {
		return 0, fmt.Errorf("%w: %d monitors", ErrMonitorLimit, a.caps.MaxMonitors)
	}

	mon, err := a.newMonitor(mode)
	if err != nil {
		return 0, err
	}

	a.monitors[mon.id] = mon
	a.monitorCount.Add(1)

	a.logger.Info("monitor created",
		"monitor_id", mon.id,
		"mode", fmt.Sprintf("%dx%d@%d", width, height, refreshHz))
	return mon.id, nil
}

// DestroyMonitor is the control-plane monitor teardown operation. It is
// recognized but unfinished; callers get ErrNotImplemented and no state
// changes.
func (a *Adapter) DestroyMonitor(id uint32) error {
	a.logger.Warn("monitor destroy requested", "monitor_id", id)
	return fmt.Errorf("%w: destroy monitor", ErrNotImplemented)
}

// Info reports the current monitor count and the fixed maximum.
func (a *Adapter) Info() AdapterInfo {
	return AdapterInfo{
		MonitorCount: int(a.monitorCount.Load()),
		MaxMonitors:  MaxMonitors,
	}
}

// Modes returns a copy of the advertised mode list.
func (a *Adapter) Modes() Catalog {
	modes := make(Catalog, len(a.catalog))
	copy(modes, a.catalog)
	return modes
}

// Monitors returns a snapshot of every live monitor, ordered by id.
func (a *Adapter) Monitors() []MonitorStatus {
	a.mu.Lock()
	defer a.mu.Unlock()

	statuses := make([]MonitorStatus, 0, len(a.monitors))
	for _, mon := range a.monitors {
		statuses = append(statuses, mon.status())
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ID < statuses[j].ID })
	return statuses
}

// Close tears down every monitor: pumps stopped and joined, departure
// reported to the host, map entries removed, count decremented.
func (a *Adapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for id, mon := range a.monitors {
		if err := mon.destroy(); err != nil {
			a.logger.Warn("monitor teardown", "monitor_id", id, "error", err)
		}
		delete(a.monitors, id)
		a.monitorCount.Add(-1)
	}
	a.ready.Store(false)
	a.logger.Info("adapter closed")
}
