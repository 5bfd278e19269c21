package modes

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/quentin-h/embra/internal/config"
	"github.com/quentin-h/embra/internal/events"
)

// SwitchListener observes completed mode switches.
type SwitchListener func(from, to string, reason string)

// Manager owns the active-mode pointer. Switches are validated here, then
// announced on the bus and persisted to mode memory when enabled.
type Manager struct {
	cfg   *config.SystemConfig
	bus   *events.Bus
	store *MemoryStore

	mu        sync.Mutex
	current   string
	listeners []SwitchListener
}

// NewManager creates a manager starting at the resolved initial mode.
// When mode memory is enabled and remembers a mode that still exists, that
// mode wins over default_mode.
func NewManager(cfg *config.SystemConfig, bus *events.Bus, store *MemoryStore) (*Manager, error) {
	m := &Manager{cfg: cfg, bus: bus, store: store}

	initial := cfg.DefaultMode
	if cfg.ModeMemoryEnabled && store != nil {
		remembered, err := store.LastMode(cfg.ConfigName)
		if err != nil {
			slog.Warn("mode memory unavailable, using default mode", "error", err)
		} else if remembered != "" {
			if cfg.Mode(remembered) != nil {
				initial = remembered
				slog.Info("restored last mode", "mode", remembered)
			} else {
				slog.Warn("remembered mode no longer exists, using default", "mode", remembered)
			}
		}
	}

	if cfg.Mode(initial) == nil {
		return nil, fmt.Errorf("initial mode %q not found", initial)
	}
	m.current = initial
	return m, nil
}

// Current returns the active mode name.
func (m *Manager) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// CurrentMode returns the active mode's config section.
func (m *Manager) CurrentMode() *config.ModeConfig {
	return m.cfg.Mode(m.Current())
}

// OnSwitch registers a listener invoked after every completed switch.
func (m *Manager) OnSwitch(fn SwitchListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Switch moves to the named mode. reason is the trigger mechanism
// ("manual", "input_triggered", ...). Manual switches are rejected when the
// config does not allow them.
func (m *Manager) Switch(to, reason string) error {
	if m.cfg.Mode(to) == nil {
		return fmt.Errorf("unknown mode %q", to)
	}
	if reason == string(config.TransitionManual) && !m.cfg.AllowManualSwitching {
		return fmt.Errorf("manual mode switching is disabled")
	}

	m.mu.Lock()
	from := m.current
	if from == to {
		m.mu.Unlock()
		return nil
	}
	m.current = to
	listeners := append([]SwitchListener(nil), m.listeners...)
	m.mu.Unlock()

	slog.Info("mode switched", "from", from, "to", to, "reason", reason)

	if m.cfg.ModeMemoryEnabled && m.store != nil {
		if err := m.store.SaveLastMode(m.cfg.ConfigName, to); err != nil {
			slog.Warn("persisting mode memory", "error", err)
		}
	}

	if m.bus != nil {
		m.bus.Publish(events.New(events.EventModeSwitched, events.SourceRuntime, map[string]any{
			"from":   from,
			"to":     to,
			"reason": reason,
		}))
	}

	for _, fn := range listeners {
		fn(from, to, reason)
	}
	return nil
}

// Names lists the configured mode names.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.cfg.Modes))
	for name := range m.cfg.Modes {
		names = append(names, name)
	}
	return names
}
