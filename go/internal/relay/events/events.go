package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names a room lifecycle event published outside the relay
type EventType string

const (
	EventHostConnected          EventType = "host_connected"
	EventHostDisconnected       EventType = "host_disconnected"
	EventControllerConnected    EventType = "controller_connected"
	EventControllerDisconnected EventType = "controller_disconnected"
	EventControllerReplaced     EventType = "controller_replaced"
	EventSpectatorJoined        EventType = "spectator_joined"
	EventSpectatorLeft          EventType = "spectator_left"
	EventStateUpdated           EventType = "state_updated"
	EventReactionBurst          EventType = "reaction_burst"
	EventRoomIdle               EventType = "room_idle"
	EventRoomClosed             EventType = "room_closed"
)

// RoomEvent is one observation about a room. Payload is already JSON.
type RoomEvent struct {
	ID        uuid.UUID
	Room      string
	Type      EventType
	Timestamp time.Time
	Payload   json.RawMessage
}

// NewRoomEvent stamps an event with a fresh id. A nil payload encodes as {}.
func NewRoomEvent(room string, eventType EventType, payload any, now time.Time) (RoomEvent, error) {
	raw := json.RawMessage("{}")
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return RoomEvent{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
		}
		raw = data
	}
	return RoomEvent{
		ID:        uuid.New(),
		Room:      room,
		Type:      eventType,
		Timestamp: now.UTC(),
		Payload:   raw,
	}, nil
}

// Envelope is the wire shape published for every event
func (e RoomEvent) Envelope() ([]byte, error) {
	env := map[string]interface{}{
		"eventId":   e.ID.String(),
		"eventType": e.Type,
		"roomId":    e.Room,
		"timestamp": e.Timestamp,
		"payload":   e.Payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Publisher delivers room events to an external system. Implementations must
// not block the caller for long; rooms publish from their actor goroutine.
type Publisher interface {
	Publish(ctx context.Context, event RoomEvent) error
}

// Payload shapes used by the room

type ConnectionPayload struct {
	ConnectionID string `json:"connectionId"`
}

type SpectatorPayload struct {
	ConnectionID string `json:"connectionId"`
	Spectators   int    `json:"spectators"`
}

type ReplacedPayload struct {
	PreviousID   string `json:"previousId"`
	ControllerID string `json:"controllerId"`
}

type StatePayload struct {
	CurrentIndex int    `json:"currentIndex"`
	TotalItems   int    `json:"totalItems"`
	Status       string `json:"status"`
}

type BurstPayload struct {
	Total    int `json:"total"`
	Distinct int `json:"distinct"`
}
