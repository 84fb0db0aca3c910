package protocol

import "encoding/json"

var emptyHistory = json.RawMessage("[]")

var defaultErrorMessages = map[ErrorCode]string{
	ErrCodeInvalidRole:                "Invalid role",
	ErrCodeHostAlreadyExists:          "Room already has a host",
	ErrCodeControllerAlreadyConnected: "A controller is already connected",
	ErrCodeRoomNotFound:               "Room not found",
	ErrCodeUnauthorized:               "Not authorized to send this message",
	ErrCodeHostNotConnected:           "Host is not connected",
	ErrCodeInvalidMessage:             "Invalid message",
	ErrCodeUnknownMessageType:         "Unknown message type",
}

// NewRoomCreated builds the host admission reply
func NewRoomCreated(roomID string) *RoomCreated {
	return &RoomCreated{Type: TypeRoomCreated, RoomID: roomID}
}

// NewRoomJoined builds the controller/spectator admission reply
func NewRoomJoined(roomID string, role Role) *RoomJoined {
	return &RoomJoined{Type: TypeRoomJoined, RoomID: roomID, Role: role}
}

// NewControllerConnected builds the controller announcement
func NewControllerConnected(controllerID string) *ControllerConnected {
	return &ControllerConnected{Type: TypeControllerConnected, ControllerID: controllerID}
}

// NewControllerDisconnected builds the controller-left notice
func NewControllerDisconnected() *ControllerDisconnected {
	return &ControllerDisconnected{Type: TypeControllerDisconnected}
}

// NewHostDisconnected builds the host-left notice
func NewHostDisconnected() *HostDisconnected {
	return &HostDisconnected{Type: TypeHostDisconnected}
}

// NewSpectatorCount builds a spectator count update
func NewSpectatorCount(count int) *SpectatorCount {
	return &SpectatorCount{Type: TypeSpectatorCount, Count: count}
}

// NewTakeoverController builds a takeover request
func NewTakeoverController() *TakeoverController {
	return &TakeoverController{Type: TypeTakeoverController}
}

// NewControllerReplaced builds the notice for a displaced controller
func NewControllerReplaced() *ControllerReplaced {
	return &ControllerReplaced{Type: TypeControllerReplaced}
}

// NewCommand builds a controller command. It panics on a non-command type.
func NewCommand(t Type) *Command {
	if !t.IsCommand() {
		panic("protocol: not a command type: " + string(t))
	}
	return &Command{Type: t}
}

// NewStateUpdate wraps a snapshot for the controller and spectators
func NewStateUpdate(state GameState) *StateUpdate {
	return &StateUpdate{Type: TypeStateUpdate, Payload: state}
}

// NewFullStateSync always carries a history array, empty if the host sent none
func NewFullStateSync(state GameState) *FullStateSync {
	if state.History == nil {
		state.History = emptyHistory
	}
	return &FullStateSync{Type: TypeFullStateSync, Payload: state}
}

// NewError builds an ERROR frame. An empty message falls back to the code's default text.
func NewError(code ErrorCode, message string) *Error {
	if message == "" {
		message = defaultErrorMessages[code]
	}
	return &Error{Type: TypeError, Code: code, Message: message}
}

// NewHistoryToggle builds OPEN_HISTORY or CLOSE_HISTORY
func NewHistoryToggle(open bool) *HistoryToggle {
	if open {
		return &HistoryToggle{Type: TypeOpenHistory}
	}
	return &HistoryToggle{Type: TypeCloseHistory}
}

// NewReactionBurst builds a flushed reaction burst
func NewReactionBurst(reactions []ReactionCount, timestamp int64) *ReactionBurst {
	return &ReactionBurst{Type: TypeReactionBurst, Reactions: reactions, Timestamp: timestamp}
}

// NewSoundPreference builds a sound preference relay frame
func NewSoundPreference(enabled bool, source Role, scope Scope) *SoundPreference {
	return &SoundPreference{Type: TypeSoundPreference, Enabled: enabled, Source: source, Scope: scope}
}

// NewSoundPreferenceAck builds the host confirmation
func NewSoundPreferenceAck(enabled bool) *SoundPreferenceAck {
	return &SoundPreferenceAck{Type: TypeSoundPreferenceAck, Enabled: enabled}
}

// NewPing builds a keepalive with the given timestamp
func NewPing(timestamp int64) *Ping {
	return &Ping{Type: TypePing, Timestamp: &timestamp}
}

// NewPong builds a keepalive reply
func NewPong(timestamp int64) *Pong {
	return &Pong{Type: TypePong, Timestamp: timestamp}
}
