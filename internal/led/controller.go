// Package led shows the display state on a board status LED.
package led

// Pattern is what an LED shows.
type Pattern string

// Supported patterns.
const (
	PatternOff   Pattern = "off"
	PatternSolid Pattern = "solid"
	PatternBlink Pattern = "blink"
)

// Controller drives the status LEDs of a board.
type Controller interface {
	// Set shows pattern on the LED called name, a board-neutral role such
	// as "system".
	Set(name string, pattern Pattern) error

	// Available returns the LED roles this board provides.
	Available() []string
}
