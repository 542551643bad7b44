package led

import (
	"fmt"
	"os"
	"path/filepath"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs drives a pair of kernel LEDs through /sys/class/leds. The green
// LED is lit while streaming, the red LED while stopped.
type sysfs struct {
	base  string
	green string
	red   string
}

func newSysfs(base, green, red string) *sysfs {
	return &sysfs{base: base, green: green, red: red}
}

func (s *sysfs) StreamOn() error {
	if err := s.set(s.green, true); err != nil {
		return err
	}
	return s.set(s.red, false)
}

func (s *sysfs) StreamOff() error {
	if err := s.set(s.green, false); err != nil {
		return err
	}
	return s.set(s.red, true)
}

func (s *sysfs) Reset() error {
	if err := s.set(s.green, false); err != nil {
		return err
	}
	return s.set(s.red, false)
}

func (s *sysfs) Available() bool {
	for _, name := range []string{s.green, s.red} {
		if _, err := os.Stat(filepath.Join(s.base, name)); err != nil {
			return false
		}
	}
	return true
}

func (s *sysfs) Describe() string {
	return fmt.Sprintf("sysfs:%s+%s", s.green, s.red)
}

func (s *sysfs) Close() error {
	return nil
}

// set drives one LED. The trigger is forced to "none" first so boards
// that ship the LED bound to a default trigger (mmc activity, heartbeat)
// hand over manual brightness control.
func (s *sysfs) set(name string, on bool) error {
	ledPath := filepath.Join(s.base, name)
	if _, err := os.Stat(ledPath); err != nil {
		return fmt.Errorf("LED %s not found at %s", name, ledPath)
	}

	triggerPath := filepath.Join(ledPath, "trigger")
	if err := os.WriteFile(triggerPath, []byte("none"), 0644); err != nil {
		return fmt.Errorf("failed to set trigger for LED %s: %w", name, err)
	}

	brightness := "0"
	if on {
		brightness = "1"
	}
	brightnessPath := filepath.Join(ledPath, "brightness")
	if err := os.WriteFile(brightnessPath, []byte(brightness), 0644); err != nil {
		return fmt.Errorf("failed to set brightness for LED %s: %w", name, err)
	}
	return nil
}
