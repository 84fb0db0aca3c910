package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/loteria/go/internal/relay/protocol"
)

// WebSocketHandler handles WebSocket upgrade requests for room connections
type WebSocketHandler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	config   ConnectionConfig
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *Hub, config ConnectionConfig) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// HandleRoomConnection upgrades GET /ws/rooms/{code}?role=... and attaches the
// connection to its room
func (h *WebSocketHandler) HandleRoomConnection(w http.ResponseWriter, r *http.Request) {
	code, err := NormalizeRoomCode(r.PathValue("code"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		log.Error().Err(err).Str("room", code).Msg("failed to upgrade WebSocket connection")
		return
	}

	role, ok := protocol.ParseRole(r.URL.Query().Get("role"))
	conn := newConnection(ws, code, role, h.config)
	go conn.writePump()

	if !ok {
		h.rejectRole(conn, r.URL.Query().Get("role"))
		return
	}

	rm := h.hub.Attach(code)
	if !rm.Connect(conn, role) {
		conn.Close(protocol.CloseGoingAway, "server shutting down")
		go conn.readPump(func([]byte) {}, func() { h.hub.Detach(code, conn.ID()) })
		return
	}

	log.Info().
		Str("connection_id", conn.ID()).
		Str("room", code).
		Str("role", string(role)).
		Msg("WebSocket connection established")

	go conn.readPump(
		func(message []byte) { rm.Deliver(conn.ID(), message) },
		func() {
			h.hub.Detach(code, conn.ID())
			log.Info().
				Str("connection_id", conn.ID()).
				Str("room", code).
				Dur("duration", time.Since(conn.connectedAt)).
				Msg("WebSocket connection closed")
		},
	)
}

func (h *WebSocketHandler) rejectRole(conn *Connection, role string) {
	data, err := protocol.Encode(protocol.NewError(protocol.ErrCodeInvalidRole, "role must be host, controller or spectator"))
	if err == nil {
		_ = conn.Send(data)
	}
	conn.Close(protocol.CloseInvalidRole, "invalid role")
	log.Info().Str("connection_id", conn.ID()).Str("role", role).Msg("rejected connection with invalid role")
	go conn.readPump(func([]byte) {}, func() {})
}

// HandleConnectionStats returns statistics about active connections. With
// ?room=CODE it reports that room's occupancy instead.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	var body interface{} = h.hub.GetConnectionStats()

	if raw := r.URL.Query().Get("room"); raw != "" {
		code, err := NormalizeRoomCode(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rm, ok := h.hub.Room(code)
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		stats, err := rm.Inspect(ctx)
		if err != nil {
			http.Error(w, "room unavailable", http.StatusServiceUnavailable)
			return
		}
		body = stats
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to write stats response")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/rooms/{code}", h.HandleRoomConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}
