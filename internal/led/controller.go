// Package led drives the streaming status LEDs: green while frames are
// flowing, red while capture is stopped, both dark after a reset.
//
// Three backends exist. The cam_stream kernel helper device is tried
// first since it drives the wired LEDs directly; boards without it fall
// back to sysfs LEDs; everything else gets a no-op controller so the
// pipeline never has to care whether LEDs are present.
package led

// Controller is the status signal the capture pipeline calls into.
// StreamOn and StreamOff are invoked synchronously when capture starts
// and stops; Reset clears both LEDs at startup and shutdown.
type Controller interface {
	// StreamOn signals that frames are flowing (green on, red off).
	StreamOn() error

	// StreamOff signals that capture has stopped (green off, red on).
	StreamOff() error

	// Reset turns both LEDs off.
	Reset() error

	// Available reports whether this controller drives real hardware.
	Available() bool

	// Describe identifies the backend for logs and the status API.
	Describe() string

	// Close releases any held resources.
	Close() error
}
