// Package host defines the protocol between the display core and the host
// compositor: the party that owns every adapter, monitor and swap-chain
// object. The core only ever holds the opaque handles the host issues and
// never frees or fabricates them.
package host

import (
	"context"
	"errors"
)

// Opaque handles issued by the host. The zero value means "no handle".
type (
	AdapterHandle   string
	MonitorHandle   string
	SwapChainHandle string
	SurfaceHandle   string
)

// FeatureSupport describes how far the endpoint implements a capability.
type FeatureSupport int

const (
	FeatureNone FeatureSupport = iota
	FeatureDriver
	FeatureHardware
)

// TransmissionType classifies the physical link the adapter reports.
type TransmissionType int

const (
	TransmissionWiredOther TransmissionType = iota
	TransmissionWiredUSB
	TransmissionWirelessOther
)

// ConnectorType identifies the connector technology a monitor reports.
type ConnectorType int

const (
	ConnectorOther ConnectorType = iota
	ConnectorDisplayPortExternal
	ConnectorHDMI
)

// AdapterCaps is the capability announcement submitted at adapter init.
// It is immutable once accepted by the host.
type AdapterCaps struct {
	MaxMonitors                 int
	GammaSupport                FeatureSupport
	Transmission                TransmissionType
	StaticDesktopReencodeFrames int
}

// MonitorInfo describes one virtual monitor at creation time. Descriptor
// holds the monitor's EDID block.
type MonitorInfo struct {
	ConnectorIndex uint32
	Type           ConnectorType
	Descriptor     []byte
}

// VideoSignal carries the timing fields the host matches modes against.
type VideoSignal struct {
	ActiveWidth  int
	ActiveHeight int
	VSyncHz      int
	HSyncHz      int
	PixelRate    uint64
	Progressive  bool
}

// MonitorMode is one entry of a monitor's default description mode set.
type MonitorMode struct {
	Signal VideoSignal
}

// TargetMode is one entry of a monitor's target mode set.
type TargetMode struct {
	Signal VideoSignal
}

// Frame is one acquired swap-chain buffer. Surface must be released back
// to the host exactly once. DirtyRects counts the regions that changed
// since the previous frame; zero means nothing to process.
type Frame struct {
	Surface    SurfaceHandle
	Data       []byte
	DirtyRects int
}

// ErrPendingFrame reports that no frame is ready on the swap chain. It is
// the sole retry-later signal of the acquire path, not a failure.
var ErrPendingFrame = errors.New("host: frame not ready")

// AdapterCallbacks is the callback table an adapter registers with the
// host. The host invokes these on threads of its own choosing.
type AdapterCallbacks interface {
	// InitFinished is called once adapter bring-up completes. A non-nil
	// status means the host failed the init; the implementation must
	// propagate it unchanged.
	InitFinished(status error) error

	// CommitModes is called on every mode-configuration commit with the
	// number of active display paths.
	CommitModes(pathCount int) error
}

// MonitorCallbacks is the callback table a monitor registers with the
// host.
type MonitorCallbacks interface {
	// DefaultModes fills up to max default description modes and reports
	// the index of the preferred one.
	DefaultModes(max int) (modes []MonitorMode, preferred int)

	// TargetModes fills up to max target modes.
	TargetModes(max int) []TargetMode

	// AssignSwapChain hands the monitor a swap chain to pump.
	AssignSwapChain(sc SwapChainHandle) error

	// UnassignSwapChain revokes the swap chain. The handle must be fully
	// quiesced (no further buffer calls) before this returns.
	UnassignSwapChain() error
}

// Host is the set of operations the core calls on the compositor side.
type Host interface {
	AdapterInit(caps AdapterCaps) (AdapterHandle, error)
	AdapterSetCallbacks(adapter AdapterHandle, cb AdapterCallbacks) error

	MonitorCreate(adapter AdapterHandle, info MonitorInfo) (MonitorHandle, error)
	MonitorSetCallbacks(monitor MonitorHandle, cb MonitorCallbacks) error
	MonitorArrival(monitor MonitorHandle) error
	MonitorDeparture(monitor MonitorHandle) error

	// AcquireBuffer blocks until a frame is ready, the context is
	// cancelled, or the host decides to report ErrPendingFrame.
	AcquireBuffer(ctx context.Context, sc SwapChainHandle) (*Frame, error)

	// ReleaseBuffer returns an acquired surface to the host ring.
	ReleaseBuffer(sc SwapChainHandle, surface SurfaceHandle) error
}
