package gateway

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/loteria/go/internal/relay/events"
	"github.com/mcdev12/loteria/go/internal/relay/room"
)

// Hub maps room codes to running rooms. A room is created by its first
// connection and stopped when its last connection detaches.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*hubEntry

	roomConfig room.Config
	clock      clockwork.Clock
	publisher  events.Publisher

	runCtx    context.Context
	cancelRun context.CancelFunc
}

type hubEntry struct {
	room        *room.Room
	connections int
}

func NewHub(roomConfig room.Config, clock clockwork.Clock, publisher events.Publisher) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		rooms:      make(map[string]*hubEntry),
		roomConfig: roomConfig,
		clock:      clock,
		publisher:  publisher,
		runCtx:     ctx,
		cancelRun:  cancel,
	}
}

// Start blocks until ctx is done, then shuts every room down
func (h *Hub) Start(ctx context.Context) {
	log.Info().Msg("room hub started")
	<-ctx.Done()
	log.Info().Msg("room hub shutting down")
	h.Shutdown()
}

// Shutdown cancels all rooms and waits for their actors to exit
func (h *Hub) Shutdown() {
	h.cancelRun()

	h.mu.Lock()
	rooms := make([]*room.Room, 0, len(h.rooms))
	for code, entry := range h.rooms {
		rooms = append(rooms, entry.room)
		delete(h.rooms, code)
	}
	h.mu.Unlock()

	for _, rm := range rooms {
		<-rm.Done()
	}
}

// Attach returns the room for code, starting it if needed, and counts one
// more connection against it
func (h *Hub) Attach(code string) *room.Room {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.rooms[code]
	if !ok {
		rm := room.New(code, h.roomConfig, h.clock, h.publisher)
		go rm.Run(h.runCtx)
		entry = &hubEntry{room: rm}
		h.rooms[code] = entry
		log.Info().Str("room", code).Msg("room created")
	}
	entry.connections++
	return entry.room
}

// Detach reports connID closed and stops the room once nobody is attached
func (h *Hub) Detach(code, connID string) {
	h.mu.Lock()
	entry, ok := h.rooms[code]
	if !ok {
		h.mu.Unlock()
		return
	}
	entry.connections--
	empty := entry.connections <= 0
	if empty {
		delete(h.rooms, code)
	}
	h.mu.Unlock()

	entry.room.Disconnect(connID)
	if empty {
		entry.room.Stop()
		log.Info().Str("room", code).Msg("room released")
	}
}

// Room returns the running room for code, if any
func (h *Hub) Room(code string) (*room.Room, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entry, ok := h.rooms[code]
	if !ok {
		return nil, false
	}
	return entry.room, true
}

// GetConnectionStats returns statistics about active rooms and connections
func (h *Hub) GetConnectionStats() map[string]interface{} {
	h.mu.Lock()
	defer h.mu.Unlock()

	totalConnections := 0
	roomCounts := make(map[string]int, len(h.rooms))
	for code, entry := range h.rooms {
		totalConnections += entry.connections
		roomCounts[code] = entry.connections
	}

	return map[string]interface{}{
		"total_connections": totalConnections,
		"active_rooms":      len(h.rooms),
		"room_connections":  roomCounts,
	}
}
