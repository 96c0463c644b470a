package led

import (
	"log/slog"
	"os"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// boards maps a device tree model substring to the LED of the "system" role.
var boards = []struct {
	model string
	led   string
}{
	{"NanoPC-T6", "sys_led"},
	{"Orange Pi", "green_led"},
	{"Raspberry Pi", "ACT"},
	{"Radxa ROCK", "status"},
}

// New returns a controller for the board. sysfsName, when set, selects the
// LED directly and skips board detection.
func New(logger *slog.Logger, sysfsName string) Controller {
	if sysfsName != "" {
		logger.Info("Using configured status LED", "led", sysfsName)
		return newSysfs(map[string]string{"system": sysfsName})
	}

	model := detectBoard(deviceTreeModelPath)
	for _, b := range boards {
		if strings.Contains(model, b.model) {
			logger.Info("Detected board with status LED", "board_model", model, "led", b.led)
			return newSysfs(map[string]string{"system": b.led})
		}
	}
	logger.Info("No status LED detected", "board_model", model)
	return newNoop(logger)
}

// detectBoard reads the device tree model.
func detectBoard(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	return strings.TrimRight(string(data), "\x00")
}
