package display

import "errors"

// Error taxonomy for the adapter control core. Host-callback failures are
// propagated unchanged; everything detected locally wraps one of these.
var (
	// ErrInit means adapter bring-up failed. Fatal, never retried here;
	// no monitors exist after it.
	ErrInit = errors.New("display: adapter init failed")

	// ErrMonitorCreate means one monitor could not be brought up. Other
	// monitors and the adapter are unaffected.
	ErrMonitorCreate = errors.New("display: monitor create failed")

	// ErrInvalidArgument reports malformed input to a control operation.
	ErrInvalidArgument = errors.New("display: invalid argument")

	// ErrNotImplemented marks an operation that is recognized but
	// intentionally unfinished.
	ErrNotImplemented = errors.New("display: not implemented")

	// ErrMonitorLimit reports that the adapter already hosts the maximum
	// number of monitors.
	ErrMonitorLimit = errors.New("display: monitor limit reached")
)
