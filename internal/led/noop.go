package led

import "log/slog"

// noop stands in on boards without known LEDs.
type noop struct {
	logger *slog.Logger
}

func newNoop(logger *slog.Logger) *noop {
	return &noop{logger: logger}
}

// Set only logs.
func (n *noop) Set(name string, pattern Pattern) error {
	n.logger.Debug("LED control not available", "led", name, "pattern", pattern)
	return nil
}

// Available returns no roles.
func (n *noop) Available() []string {
	return []string{}
}
