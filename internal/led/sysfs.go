package led

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs drives LEDs through /sys/class/leds.
type sysfs struct {
	root string
	leds map[string]string // role -> sysfs LED name
}

func newSysfs(leds map[string]string) *sysfs {
	return &sysfs{root: sysfsLEDPath, leds: leds}
}

// Set writes the trigger and brightness of the LED.
func (s *sysfs) Set(name string, pattern Pattern) error {
	sysfsName, ok := s.leds[name]
	if !ok {
		return fmt.Errorf("LED %q not available on this board", name)
	}
	ledPath := filepath.Join(s.root, sysfsName)
	if _, err := os.Stat(ledPath); err != nil {
		return fmt.Errorf("LED %q not found: %w", name, err)
	}

	trigger, brightness := "none", "0"
	switch pattern {
	case PatternSolid:
		brightness = "1"
	case PatternBlink:
		trigger, brightness = "heartbeat", "1"
	case PatternOff:
	default:
		return fmt.Errorf("unknown LED pattern %q", pattern)
	}

	if err := os.WriteFile(filepath.Join(ledPath, "trigger"), []byte(trigger), 0o644); err != nil {
		return fmt.Errorf("failed to set LED trigger: %w", err)
	}
	// The heartbeat trigger owns brightness.
	if pattern == PatternBlink {
		return nil
	}
	if err := os.WriteFile(filepath.Join(ledPath, "brightness"), []byte(brightness), 0o644); err != nil {
		return fmt.Errorf("failed to set LED brightness: %w", err)
	}
	return nil
}

// Available returns the LED roles in name order.
func (s *sysfs) Available() []string {
	names := make([]string, 0, len(s.leds))
	for name := range s.leds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
