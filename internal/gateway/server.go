// Package gateway is the local HTTP and WebSocket surface of the daemon.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/quentin-h/embra/internal/config"
	"github.com/quentin-h/embra/internal/conversation"
	"github.com/quentin-h/embra/internal/events"
	"github.com/quentin-h/embra/internal/gateway/ws"
	"github.com/quentin-h/embra/internal/modes"
)

// Server is the embra gateway HTTP server.
type Server struct {
	httpServer *http.Server
	hub        *ws.Hub
	bus        *events.Bus
	cfg        *config.SystemConfig
	manager    *modes.Manager
	conv       *conversation.Machine
}

// NewServer creates a gateway over the running agent's collaborators.
func NewServer(cfg *config.SystemConfig, bus *events.Bus, manager *modes.Manager, conv *conversation.Machine, host string, port int) *Server {
	s := &Server{
		bus:     bus,
		cfg:     cfg,
		manager: manager,
		conv:    conv,
	}
	s.hub = ws.NewHub(bus, s)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/ws", s.hub.ServeWS)
	r.Get("/api/events", s.handleEvents)
	r.Get("/api/modes", s.handleModes)
	r.Post("/api/modes/{name}", s.handleSwitchMode)
	r.Get("/api/conversation", s.handleConversation)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: r,
	}
	return s
}

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	slog.Info("embra gateway listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

// SwitchMode implements ws.Controller. Socket-initiated switches are manual.
func (s *Server) SwitchMode(name string) error {
	return s.manager.Switch(name, string(config.TransitionManual))
}

// State implements ws.Controller.
func (s *Server) State() map[string]any {
	snap := s.conv.Snapshot()
	return map[string]any{
		"config":             s.cfg.ConfigName,
		"mode":               s.manager.Current(),
		"conversation_state": string(snap.State),
		"turns":              snap.Turns,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"mode":   s.manager.Current(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limitStr := r.URL.Query().Get("limit")
	limit := 50
	if limitStr != "" {
		fmt.Sscanf(limitStr, "%d", &limit)
	}

	history := s.bus.History(limit)

	type eventJSON struct {
		ID        string         `json:"id"`
		Type      string         `json:"type"`
		Timestamp string         `json:"timestamp"`
		Source    events.Source  `json:"source"`
		Payload   map[string]any `json:"payload"`
	}

	result := make([]eventJSON, len(history))
	for i, e := range history {
		result[i] = eventJSON{
			ID:        e.ID,
			Type:      string(e.Type),
			Timestamp: e.Timestamp.Format(time.RFC3339Nano),
			Source:    e.Source,
			Payload:   e.Payload,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (s *Server) handleModes(w http.ResponseWriter, r *http.Request) {
	type modeJSON struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Description string `json:"description"`
		Current     bool   `json:"current"`
	}

	current := s.manager.Current()
	names := s.manager.Names()
	sort.Strings(names)

	result := make([]modeJSON, 0, len(names))
	for _, name := range names {
		mode := s.cfg.Mode(name)
		result = append(result, modeJSON{
			Name:        name,
			DisplayName: mode.DisplayName,
			Description: mode.Description,
			Current:     name == current,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (s *Server) handleSwitchMode(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.SwitchMode(name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"mode": name})
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	snap := s.conv.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"state":     string(snap.State),
		"turns":     snap.Turns,
		"max_turns": snap.MaxTurns,
	})
}
