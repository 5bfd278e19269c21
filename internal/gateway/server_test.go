package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quentin-h/embra/internal/config"
	"github.com/quentin-h/embra/internal/conversation"
	"github.com/quentin-h/embra/internal/events"
	"github.com/quentin-h/embra/internal/modes"
)

func newTestServer(t *testing.T, allowManual bool) (*Server, *httptest.Server) {
	t.Helper()

	cfg := &config.SystemConfig{
		ConfigName:           "robot",
		DefaultMode:          "greeter",
		AllowManualSwitching: allowManual,
		Modes: map[string]*config.ModeConfig{
			"greeter": {Name: "greeter", DisplayName: "Greeter", Description: "greets people"},
			"patrol":  {Name: "patrol", DisplayName: "Patrol", Description: "walks the floor"},
		},
	}

	bus := events.NewBus(16)
	t.Cleanup(bus.Close)

	manager, err := modes.NewManager(cfg, bus, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	conv := conversation.NewMachine(10)

	s := NewServer(cfg, bus, manager, conv, "127.0.0.1", 0)
	ts := httptest.NewServer(s.httpServer.Handler)
	t.Cleanup(ts.Close)
	return s, ts
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := newTestServer(t, true)

	var body map[string]string
	getJSON(t, ts.URL+"/api/health", &body)

	if body["status"] != "ok" || body["mode"] != "greeter" {
		t.Errorf("body = %v", body)
	}
}

func TestModesEndpoint(t *testing.T) {
	_, ts := newTestServer(t, true)

	var body []struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Current     bool   `json:"current"`
	}
	getJSON(t, ts.URL+"/api/modes", &body)

	if len(body) != 2 {
		t.Fatalf("got %d modes", len(body))
	}
	// Sorted by name.
	if body[0].Name != "greeter" || body[1].Name != "patrol" {
		t.Errorf("order = %q, %q", body[0].Name, body[1].Name)
	}
	if !body[0].Current || body[1].Current {
		t.Errorf("current flags wrong: %+v", body)
	}
}

func TestSwitchModeEndpoint(t *testing.T) {
	s, ts := newTestServer(t, true)

	resp, err := http.Post(ts.URL+"/api/modes/patrol", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := s.manager.Current(); got != "patrol" {
		t.Errorf("mode = %q", got)
	}
}

func TestSwitchModeRejectsUnknown(t *testing.T) {
	_, ts := newTestServer(t, true)

	resp, err := http.Post(ts.URL+"/api/modes/ghost", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSwitchModeManualGate(t *testing.T) {
	s, ts := newTestServer(t, false)

	resp, err := http.Post(ts.URL+"/api/modes/patrol", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if got := s.manager.Current(); got != "greeter" {
		t.Errorf("mode changed to %q despite the gate", got)
	}
}

func TestConversationEndpoint(t *testing.T) {
	s, ts := newTestServer(t, true)
	s.conv.ResetState(conversation.StateEngaging)
	s.conv.CompleteTurn()

	var body struct {
		State    string `json:"state"`
		Turns    int    `json:"turns"`
		MaxTurns int    `json:"max_turns"`
	}
	getJSON(t, ts.URL+"/api/conversation", &body)

	if body.State != string(conversation.StateEngaging) || body.Turns != 1 || body.MaxTurns != 10 {
		t.Errorf("body = %+v", body)
	}
}

func TestEventsEndpoint(t *testing.T) {
	s, ts := newTestServer(t, true)

	// A switch publishes a mode.switched event into history.
	if err := s.manager.Switch("patrol", "input_triggered"); err != nil {
		t.Fatalf("Switch: %v", err)
	}

	var body []struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	getJSON(t, ts.URL+"/api/events?limit=10", &body)

	found := false
	for _, e := range body {
		if e.Type == string(events.EventModeSwitched) && e.Payload["to"] == "patrol" {
			found = true
		}
	}
	if !found {
		t.Errorf("mode.switched not in history: %+v", body)
	}
}

func TestStateSnapshot(t *testing.T) {
	s, _ := newTestServer(t, true)

	state := s.State()
	if state["config"] != "robot" || state["mode"] != "greeter" {
		t.Errorf("state = %v", state)
	}
	if state["conversation_state"] != string(conversation.StateFinished) {
		t.Errorf("conversation_state = %v", state["conversation_state"])
	}
}
