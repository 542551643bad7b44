package led

import "github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/logging"

// noop implements Controller for systems without LED support
type noop struct {
	logger logging.Logger
}

// newNoop creates a new no-op LED controller
func newNoop(logger logging.Logger) *noop {
	return &noop{
		logger: logger,
	}
}

func (n *noop) StreamOn() error {
	n.logger.Debug("LED control not available (no-op)", "state", "streaming")
	return nil
}

func (n *noop) StreamOff() error {
	n.logger.Debug("LED control not available (no-op)", "state", "stopped")
	return nil
}

func (n *noop) Reset() error {
	n.logger.Debug("LED control not available (no-op)", "state", "reset")
	return nil
}

func (n *noop) Available() bool {
	return false
}

func (n *noop) Describe() string {
	return "none"
}

func (n *noop) Close() error {
	return nil
}
