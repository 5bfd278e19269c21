package plugins

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// clockInput reports the current wall-clock time once per interval. It gives
// the cortex a sense of elapsed time between cycles.
type clockInput struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func newClockInput(cfg map[string]any, _ Deps) (Input, error) {
	interval := time.Minute
	if v, ok := cfg["interval_seconds"].(float64); ok && v > 0 {
		interval = time.Duration(v * float64(time.Second))
	}
	return &clockInput{interval: interval}, nil
}

func (c *clockInput) Name() string { return "clock" }

func (c *clockInput) Poll(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if !c.last.IsZero() && now.Sub(c.last) < c.interval {
		return "", nil
	}
	c.last = now
	return fmt.Sprintf("Current time: %s", now.Format(time.RFC1123)), nil
}

// mockInput replays a configured list of messages, one per poll. Used in
// tests and for dry runs without real sensors.
type mockInput struct {
	mu       sync.Mutex
	messages []string
	pos      int
	loop     bool
}

func newMockInput(cfg map[string]any, _ Deps) (Input, error) {
	in := &mockInput{}
	if raw, ok := cfg["messages"].([]any); ok {
		for _, m := range raw {
			if s, ok := m.(string); ok {
				in.messages = append(in.messages, s)
			}
		}
	}
	if v, ok := cfg["loop"].(bool); ok {
		in.loop = v
	}
	return in, nil
}

func (m *mockInput) Name() string { return "mock" }

func (m *mockInput) Poll(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.messages) == 0 {
		return "", nil
	}
	if m.pos >= len(m.messages) {
		if !m.loop {
			return "", nil
		}
		m.pos = 0
	}
	msg := m.messages[m.pos]
	m.pos++
	return msg, nil
}
