package led

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/logging"
)

// fakeLEDTree creates sysfs-shaped LED directories under a temp dir.
func fakeLEDTree(t *testing.T, names ...string) string {
	t.Helper()
	base := t.TempDir()
	for _, name := range names {
		if err := os.MkdirAll(filepath.Join(base, name), 0755); err != nil {
			t.Fatalf("failed to create fake LED %s: %v", name, err)
		}
	}
	return base
}

func readLEDFile(t *testing.T, base, name, file string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(base, name, file))
	if err != nil {
		t.Fatalf("failed to read %s/%s: %v", name, file, err)
	}
	return string(data)
}

func TestNoopController(t *testing.T) {
	ctrl := newNoop(logging.GetLogger("led"))

	if err := ctrl.StreamOn(); err != nil {
		t.Errorf("StreamOn() returned error: %v", err)
	}
	if err := ctrl.StreamOff(); err != nil {
		t.Errorf("StreamOff() returned error: %v", err)
	}
	if err := ctrl.Reset(); err != nil {
		t.Errorf("Reset() returned error: %v", err)
	}

	if ctrl.Available() {
		t.Error("Available() = true, want false for no-op controller")
	}
	if got := ctrl.Describe(); got != "none" {
		t.Errorf("Describe() = %q, want %q", got, "none")
	}
	if err := ctrl.Close(); err != nil {
		t.Errorf("Close() returned error: %v", err)
	}
}

func TestSysfsControllerStates(t *testing.T) {
	tests := []struct {
		name      string
		op        func(Controller) error
		wantGreen string
		wantRed   string
	}{
		{
			name:      "stream on lights green",
			op:        Controller.StreamOn,
			wantGreen: "1",
			wantRed:   "0",
		},
		{
			name:      "stream off lights red",
			op:        Controller.StreamOff,
			wantGreen: "0",
			wantRed:   "1",
		},
		{
			name:      "reset darkens both",
			op:        Controller.Reset,
			wantGreen: "0",
			wantRed:   "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := fakeLEDTree(t, "ACT", "PWR")
			ctrl := newSysfs(base, "ACT", "PWR")

			if err := tt.op(ctrl); err != nil {
				t.Fatalf("operation returned error: %v", err)
			}

			if got := readLEDFile(t, base, "ACT", "brightness"); got != tt.wantGreen {
				t.Errorf("green brightness = %q, want %q", got, tt.wantGreen)
			}
			if got := readLEDFile(t, base, "PWR", "brightness"); got != tt.wantRed {
				t.Errorf("red brightness = %q, want %q", got, tt.wantRed)
			}
		})
	}
}

func TestSysfsDisablesTrigger(t *testing.T) {
	base := fakeLEDTree(t, "ACT", "PWR")
	ctrl := newSysfs(base, "ACT", "PWR")

	if err := ctrl.StreamOn(); err != nil {
		t.Fatalf("StreamOn() returned error: %v", err)
	}

	for _, name := range []string{"ACT", "PWR"} {
		if got := readLEDFile(t, base, name, "trigger"); got != "none" {
			t.Errorf("trigger for %s = %q, want %q", name, got, "none")
		}
	}
}

func TestSysfsMissingLED(t *testing.T) {
	base := fakeLEDTree(t, "ACT")
	ctrl := newSysfs(base, "ACT", "PWR")

	if err := ctrl.StreamOff(); err == nil {
		t.Error("StreamOff() with missing red LED should return error")
	}
	if ctrl.Available() {
		t.Error("Available() = true with missing red LED, want false")
	}
}

func TestSysfsAvailable(t *testing.T) {
	tests := []struct {
		name string
		leds []string
		want bool
	}{
		{name: "both present", leds: []string{"green_led", "red_led"}, want: true},
		{name: "one missing", leds: []string{"green_led"}, want: false},
		{name: "none present", leds: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := fakeLEDTree(t, tt.leds...)
			ctrl := newSysfs(base, "green_led", "red_led")
			if got := ctrl.Available(); got != tt.want {
				t.Errorf("Available() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSysfsDescribe(t *testing.T) {
	ctrl := newSysfs(sysfsLEDPath, "ACT", "PWR")
	if got := ctrl.Describe(); got != "sysfs:ACT+PWR" {
		t.Errorf("Describe() = %q, want %q", got, "sysfs:ACT+PWR")
	}
}

func TestIoctlOpenFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cam_stream")
	if _, err := newIoctl(path, logging.GetLogger("led")); err == nil {
		t.Error("newIoctl() with nonexistent device should return error")
	}
}
