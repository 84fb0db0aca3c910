package protocol

import "encoding/json"

// Message is one variant of the wire union. Every variant carries its own
// Type field so it encodes with the discriminator in place.
type Message interface {
	Kind() Type
}

// GameState is the host-authored snapshot of the deck. Payload fields the
// relay does not model are kept in Extra and written back out unchanged.
type GameState struct {
	CurrentIndex  int             `json:"currentIndex"`
	TotalItems    int             `json:"totalItems"`
	Status        GameStatus      `json:"status"`
	HistoryCount  int             `json:"historyCount"`
	IsHistoryOpen bool            `json:"isHistoryOpen"`
	CurrentItem   json.RawMessage `json:"currentItem,omitempty"`
	History       json.RawMessage `json:"history,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var gameStateFields = []string{
	"currentIndex", "totalItems", "status", "historyCount",
	"isHistoryOpen", "currentItem", "history",
}

type plainGameState GameState

func (s *GameState) UnmarshalJSON(data []byte) error {
	var p plainGameState
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var extra map[string]json.RawMessage
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}
	for _, key := range gameStateFields {
		delete(extra, key)
	}
	if len(extra) == 0 {
		extra = nil
	}
	p.Extra = extra
	*s = GameState(p)
	return nil
}

func (s GameState) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(plainGameState(s))
	if err != nil || len(s.Extra) == 0 {
		return data, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for key, value := range s.Extra {
		if _, modelled := merged[key]; !modelled {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

// ReactionCount is one entry of a REACTION_BURST
type ReactionCount struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// RoomCreated confirms the host seat
type RoomCreated struct {
	Type   Type   `json:"type"`
	RoomID string `json:"roomId"`
}

// RoomJoined confirms a controller or spectator seat
type RoomJoined struct {
	Type   Type   `json:"type"`
	RoomID string `json:"roomId"`
	Role   Role   `json:"role"`
}

// ControllerConnected announces the seated controller
type ControllerConnected struct {
	Type         Type   `json:"type"`
	ControllerID string `json:"controllerId"`
}

// ControllerDisconnected is broadcast when the controller leaves
type ControllerDisconnected struct {
	Type Type `json:"type"`
}

// HostDisconnected tells the controller and spectators the host left
type HostDisconnected struct {
	Type Type `json:"type"`
}

// SpectatorCount carries the number of seated spectators
type SpectatorCount struct {
	Type  Type `json:"type"`
	Count int  `json:"count"`
}

// TakeoverController is sent by a controller that was turned away with
// CONTROLLER_ALREADY_CONNECTED and wants to replace the current one
type TakeoverController struct {
	Type Type `json:"type"`
}

// ControllerReplaced tells the old controller it lost the slot
type ControllerReplaced struct {
	Type Type `json:"type"`
}

// Command covers DRAW_CARD, PAUSE_GAME, RESUME_GAME, RESET_GAME and FLIP_CARD.
// Commands are relayed to the host byte for byte, so extra fields survive.
type Command struct {
	Type Type `json:"type"`
}

// StateUpdate carries a host snapshot to the controller and spectators
type StateUpdate struct {
	Type    Type      `json:"type"`
	Payload GameState `json:"payload"`
}

// FullStateSync is a STATE_UPDATE that always carries a history array
type FullStateSync struct {
	Type    Type      `json:"type"`
	Payload GameState `json:"payload"`
}

// Error reports a rejected frame or admission
type Error struct {
	Type    Type      `json:"type"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// HistoryToggle covers OPEN_HISTORY and CLOSE_HISTORY
type HistoryToggle struct {
	Type Type `json:"type"`
}

// ToggleDetailed mirrors the detailed-text switch
type ToggleDetailed struct {
	Type         Type  `json:"type"`
	ShowDetailed *bool `json:"showDetailed,omitempty"`
}

// SendReaction is a spectator reaction. Count is whatever number the client
// sent; ClampReactionCount turns it into a contribution.
type SendReaction struct {
	Type  Type     `json:"type"`
	Emoji string   `json:"emoji"`
	Count *float64 `json:"count,omitempty"`
}

// ReactionBurst is the aggregated reactions of one flush window
type ReactionBurst struct {
	Type      Type            `json:"type"`
	Reactions []ReactionCount `json:"reactions"`
	Timestamp int64           `json:"timestamp"`
}

// SoundPreference relays a sound on/off change between host and controller
type SoundPreference struct {
	Type    Type  `json:"type"`
	Enabled bool  `json:"enabled"`
	Source  Role  `json:"source,omitempty"`
	Scope   Scope `json:"scope,omitempty"`
}

// SoundPreferenceAck confirms the host applied a controller preference
type SoundPreferenceAck struct {
	Type    Type `json:"type"`
	Enabled bool `json:"enabled"`
}

// Ping is a client keepalive; an omitted timestamp is filled by the relay
type Ping struct {
	Type      Type   `json:"type"`
	Timestamp *int64 `json:"timestamp,omitempty"`
}

// Pong echoes a Ping timestamp
type Pong struct {
	Type      Type  `json:"type"`
	Timestamp int64 `json:"timestamp"`
}

func (m *RoomCreated) Kind() Type            { return m.Type }
func (m *RoomJoined) Kind() Type             { return m.Type }
func (m *ControllerConnected) Kind() Type    { return m.Type }
func (m *ControllerDisconnected) Kind() Type { return m.Type }
func (m *HostDisconnected) Kind() Type       { return m.Type }
func (m *SpectatorCount) Kind() Type         { return m.Type }
func (m *TakeoverController) Kind() Type     { return m.Type }
func (m *ControllerReplaced) Kind() Type     { return m.Type }
func (m *Command) Kind() Type                { return m.Type }
func (m *StateUpdate) Kind() Type            { return m.Type }
func (m *FullStateSync) Kind() Type          { return m.Type }
func (m *Error) Kind() Type                  { return m.Type }
func (m *HistoryToggle) Kind() Type          { return m.Type }
func (m *ToggleDetailed) Kind() Type         { return m.Type }
func (m *SendReaction) Kind() Type           { return m.Type }
func (m *ReactionBurst) Kind() Type          { return m.Type }
func (m *SoundPreference) Kind() Type        { return m.Type }
func (m *SoundPreferenceAck) Kind() Type     { return m.Type }
func (m *Ping) Kind() Type                   { return m.Type }
func (m *Pong) Kind() Type                   { return m.Type }

// EffectiveScope returns the scope, treating an omitted one as local
func (m *SoundPreference) EffectiveScope() Scope {
	if m.Scope == "" {
		return ScopeLocal
	}
	return m.Scope
}
