// Package ws bridges the event bus to WebSocket clients and handles the
// small request protocol the gateway exposes over the socket.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/quentin-h/embra/internal/events"
)

// Controller is the runtime surface the hub exposes to clients.
type Controller interface {
	SwitchMode(name string) error
	State() map[string]any
}

// Client represents a connected WebSocket client.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub manages WebSocket clients and bridges them to the event bus.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]struct{}
	bus         *events.Bus
	ctrl        Controller
	unsubscribe func()
}

// NewHub creates a hub connected to an event bus.
func NewHub(bus *events.Bus, ctrl Controller) *Hub {
	h := &Hub{
		clients: make(map[*Client]struct{}),
		bus:     bus,
		ctrl:    ctrl,
	}

	h.unsubscribe = bus.Subscribe(func(e events.Event) {
		frame, err := NewEventFrame(string(e.Type), e)
		if err != nil {
			slog.Error("marshal event frame", "error", err)
			return
		}
		data, err := MarshalFrame(frame)
		if err != nil {
			slog.Error("marshal frame", "error", err)
			return
		}
		h.broadcast(data)
	})

	return h
}

// broadcast sends data to all connected clients.
func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client too slow, skip
		}
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	slog.Info("ws client connected", "clients", len(h.clients))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		slog.Info("ws client disconnected", "clients", len(h.clients))
	}
}

// ServeWS handles a WebSocket upgrade and manages the client lifecycle.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow any origin for dev
	})
	if err != nil {
		slog.Error("ws accept", "error", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}

	h.register(client)

	ctx := r.Context()
	go client.writePump(ctx)
	client.readPump(ctx)
}

// readPump reads frames from the WS connection and dispatches them.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("ws read closed", "status", websocket.CloseStatus(err))
			} else {
				slog.Debug("ws read error", "error", err)
			}
			return
		}

		frame, err := ParseFrame(data)
		if err != nil {
			slog.Error("ws parse frame", "error", err)
			continue
		}

		if frame.Type == FrameTypeRequest {
			c.handleRequest(frame)
		}
	}
}

// handleRequest processes a request frame (method dispatch).
func (c *Client) handleRequest(frame *Frame) {
	switch Method(frame.Method) {
	case MethodSwitchMode:
		var params SwitchModeParams
		if err := json.Unmarshal(frame.Params, &params); err != nil || params.Mode == "" {
			c.sendError(frame.ID, "invalid params")
			return
		}
		if err := c.hub.ctrl.SwitchMode(params.Mode); err != nil {
			c.sendError(frame.ID, err.Error())
			return
		}
		c.sendOK(frame.ID, map[string]string{"mode": params.Mode})

	case MethodGetState:
		c.sendOK(frame.ID, c.hub.ctrl.State())

	default:
		c.sendError(frame.ID, "unknown method: "+frame.Method)
	}
}

// writePump writes queued messages to the WS connection.
func (c *Client) writePump(ctx context.Context) {
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) sendOK(id string, payload any) {
	c.sendFrame(func() (*Frame, error) { return NewResponseFrame(id, true, payload, "") })
}

func (c *Client) sendError(id string, errMsg string) {
	c.sendFrame(func() (*Frame, error) { return NewResponseFrame(id, false, nil, errMsg) })
}

func (c *Client) sendFrame(build func() (*Frame, error)) {
	f, err := build()
	if err != nil {
		return
	}
	data, err := MarshalFrame(f)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// Close shuts down the hub and all client connections.
func (h *Hub) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close(websocket.StatusGoingAway, "server shutdown")
		delete(h.clients, c)
	}
}
