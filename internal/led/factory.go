package led

import (
	"os"
	"strings"

	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/logging"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// ledPair names the sysfs LEDs used for the green/red status pair.
type ledPair struct {
	green string
	red   string
}

// New picks the best available LED backend. The cam_stream control
// device wins when present; otherwise the board model selects sysfs LED
// candidates; boards with neither get a no-op controller.
func New(logger logging.Logger) Controller {
	ctrl, err := newIoctl(camStreamDevice, logger)
	if err == nil {
		logger.Info("Using control device for status LEDs", "device", camStreamDevice)
		return ctrl
	}
	logger.Debug("Control device unavailable", "device", camStreamDevice, "error", err)

	boardModel := detectBoard()
	logger.Info("Detecting board for LED control", "board_model", boardModel)

	for _, pair := range sysfsCandidates(boardModel) {
		ctrl := newSysfs(sysfsLEDPath, pair.green, pair.red)
		if ctrl.Available() {
			logger.Info("Using sysfs LED controller", "green", pair.green, "red", pair.red)
			return ctrl
		}
	}

	logger.Info("No LED support detected, using no-op controller", "board_model", boardModel)
	return newNoop(logger)
}

// sysfsCandidates maps a board model to the LED pairs worth probing.
func sysfsCandidates(boardModel string) []ledPair {
	switch {
	case strings.Contains(boardModel, "Raspberry Pi"):
		// Older Pi firmware names the LEDs led0/led1 instead of ACT/PWR.
		return []ledPair{{green: "ACT", red: "PWR"}, {green: "led0", red: "led1"}}

	case strings.Contains(boardModel, "Orange Pi"):
		return []ledPair{{green: "green_led", red: "red_led"}}

	case strings.Contains(boardModel, "NanoPC-T6"):
		return []ledPair{{green: "usr_led", red: "sys_led"}}

	default:
		return nil
	}
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	model := strings.TrimRight(string(data), "\x00")
	return model
}
