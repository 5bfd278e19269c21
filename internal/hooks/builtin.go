package hooks

import (
	"context"
	"log/slog"

	"github.com/quentin-h/embra/internal/events"
)

// DefaultRegistry returns a registry with the built-in hook types.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("log", newLogHook)
	r.Register("announce", newAnnounceHook)
	r.Register("farewell", newFarewellHook)
	return r
}

// logHook writes a configurable message to the structured log.
type logHook struct {
	message string
}

func newLogHook(cfg map[string]any, _ Deps) (Hook, error) {
	msg, _ := cfg["message"].(string)
	if msg == "" {
		msg = "lifecycle hook fired"
	}
	return &logHook{message: msg}, nil
}

func (h *logHook) Name() string { return "log" }

func (h *logHook) Fire(_ context.Context, hc Context) error {
	slog.Info(h.message, "mode", hc.Mode, "trigger", string(hc.Trigger))
	return nil
}

// announceHook publishes the lifecycle moment on the event bus so gateway
// clients can react.
type announceHook struct {
	bus *events.Bus
}

func newAnnounceHook(_ map[string]any, deps Deps) (Hook, error) {
	return &announceHook{bus: deps.Bus}, nil
}

func (h *announceHook) Name() string { return "announce" }

func (h *announceHook) Fire(_ context.Context, hc Context) error {
	if h.bus == nil {
		return nil
	}
	h.bus.Publish(events.New(events.EventModeSwitched, events.SourceHook, map[string]any{
		"mode":    hc.Mode,
		"trigger": string(hc.Trigger),
	}))
	return nil
}

// farewellHook summarizes the conversation when a mode is left or the
// daemon shuts down.
type farewellHook struct{}

func newFarewellHook(_ map[string]any, _ Deps) (Hook, error) {
	return &farewellHook{}, nil
}

func (h *farewellHook) Name() string { return "farewell" }

func (h *farewellHook) Fire(_ context.Context, hc Context) error {
	snap := hc.Conversation
	slog.Info("conversation wrapped up",
		"mode", hc.Mode,
		"state", string(snap.State),
		"turns", snap.Turns,
		"max_turns", snap.MaxTurns,
	)
	return nil
}
