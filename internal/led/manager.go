package led

import (
	"log/slog"
	"sync"

	"github.com/smazurov/kmsvout/internal/events"
)

// Manager keeps the "system" LED in step with the display session: solid
// while frames are shown, blinking while there is no session or commits
// fail.
type Manager struct {
	controller Controller
	eventBus   *events.Bus
	logger     *slog.Logger

	mu      sync.Mutex
	current Pattern
	unsubs  []func()
}

// NewManager creates a manager driving controller from eventBus.
func NewManager(controller Controller, eventBus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{
		controller: controller,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// Start blinks the LED until a session opens and subscribes to session
// events.
func (m *Manager) Start() {
	m.set(PatternBlink)
	m.unsubs = []func(){
		m.eventBus.Subscribe(func(events.SessionOpenedEvent) { m.set(PatternSolid) }),
		m.eventBus.Subscribe(func(events.FramePresentedEvent) { m.set(PatternSolid) }),
		m.eventBus.Subscribe(func(events.CommitFailedEvent) { m.set(PatternBlink) }),
		m.eventBus.Subscribe(func(events.SessionClosedEvent) { m.set(PatternBlink) }),
	}
	m.logger.Info("LED manager started")
}

// Stop unsubscribes and turns the LED off.
func (m *Manager) Stop() {
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.unsubs = nil
	m.set(PatternOff)
	m.logger.Info("LED manager stopped")
}

// Pattern returns the pattern last shown.
func (m *Manager) Pattern() Pattern {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// set changes the LED only on transitions so frame events stay cheap.
func (m *Manager) set(p Pattern) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == p {
		return
	}
	if err := m.controller.Set("system", p); err != nil {
		m.logger.Warn("Failed to set status LED", "pattern", p, "error", err)
		return
	}
	m.logger.Debug("Status LED changed", "from", m.current, "to", p)
	m.current = p
}
