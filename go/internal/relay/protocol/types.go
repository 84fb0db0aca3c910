package protocol

import "math"

// Type is the discriminator carried in the "type" field of every frame
type Type string

const (
	// Room management
	TypeRoomCreated Type = "ROOM_CREATED"
	TypeRoomJoined  Type = "ROOM_JOINED"

	// Connection events
	TypeControllerConnected    Type = "CONTROLLER_CONNECTED"
	TypeControllerDisconnected Type = "CONTROLLER_DISCONNECTED"
	TypeHostDisconnected       Type = "HOST_DISCONNECTED"
	TypeSpectatorCount         Type = "SPECTATOR_COUNT"
	TypeTakeoverController     Type = "TAKEOVER_CONTROLLER"
	TypeControllerReplaced     Type = "CONTROLLER_REPLACED"

	// Game commands
	TypeDrawCard   Type = "DRAW_CARD"
	TypePauseGame  Type = "PAUSE_GAME"
	TypeResumeGame Type = "RESUME_GAME"
	TypeResetGame  Type = "RESET_GAME"
	TypeFlipCard   Type = "FLIP_CARD"

	// State updates
	TypeStateUpdate   Type = "STATE_UPDATE"
	TypeFullStateSync Type = "FULL_STATE_SYNC"

	// Errors
	TypeError Type = "ERROR"

	// History modal and detailed text sync
	TypeOpenHistory    Type = "OPEN_HISTORY"
	TypeCloseHistory   Type = "CLOSE_HISTORY"
	TypeToggleDetailed Type = "TOGGLE_DETAILED"

	// Reactions
	TypeSendReaction  Type = "SEND_REACTION"
	TypeReactionBurst Type = "REACTION_BURST"

	// Sound preference sync
	TypeSoundPreference    Type = "SOUND_PREFERENCE"
	TypeSoundPreferenceAck Type = "SOUND_PREFERENCE_ACK"

	// Keepalive
	TypePing Type = "PING"
	TypePong Type = "PONG"
)

// inboundTypes are the types a client is allowed to send. Everything else in
// the known set is emitted by the relay only.
var inboundTypes = map[Type]bool{
	TypeDrawCard:           true,
	TypePauseGame:          true,
	TypeResumeGame:         true,
	TypeResetGame:          true,
	TypeFlipCard:           true,
	TypeStateUpdate:        true,
	TypeToggleDetailed:     true,
	TypeOpenHistory:        true,
	TypeCloseHistory:       true,
	TypeSendReaction:       true,
	TypeSoundPreference:    true,
	TypeSoundPreferenceAck: true,
	TypePing:               true,
	TypeTakeoverController: true,
}

// Inbound reports whether clients may send messages of this type
func (t Type) Inbound() bool {
	return inboundTypes[t]
}

// IsCommand reports whether t is one of the controller game commands
func (t Type) IsCommand() bool {
	switch t {
	case TypeDrawCard, TypePauseGame, TypeResumeGame, TypeResetGame, TypeFlipCard:
		return true
	}
	return false
}

// Role is declared by a connection at connect time and never changes
type Role string

const (
	RoleHost       Role = "host"
	RoleController Role = "controller"
	RoleSpectator  Role = "spectator"
)

// ParseRole validates a role declared by a client
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleHost, RoleController, RoleSpectator:
		return r, true
	}
	return "", false
}

// GameStatus is the host-reported phase of the deck
type GameStatus string

const (
	StatusWaiting  GameStatus = "waiting"
	StatusReady    GameStatus = "ready"
	StatusPlaying  GameStatus = "playing"
	StatusPaused   GameStatus = "paused"
	StatusFinished GameStatus = "finished"
)

// Valid reports whether s is a known status
func (s GameStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusReady, StatusPlaying, StatusPaused, StatusFinished:
		return true
	}
	return false
}

// Scope selects which devices a sound preference change applies to
type Scope string

const (
	ScopeLocal    Scope = "local"
	ScopeHostOnly Scope = "host_only"
	ScopeBoth     Scope = "both"
)

// Valid reports whether s is a known scope
func (s Scope) Valid() bool {
	switch s {
	case ScopeLocal, ScopeHostOnly, ScopeBoth:
		return true
	}
	return false
}

// ErrorCode is the machine-readable code of an ERROR frame
type ErrorCode string

const (
	ErrCodeInvalidRole                ErrorCode = "INVALID_ROLE"
	ErrCodeHostAlreadyExists          ErrorCode = "HOST_ALREADY_EXISTS"
	ErrCodeControllerAlreadyConnected ErrorCode = "CONTROLLER_ALREADY_CONNECTED"
	ErrCodeRoomNotFound               ErrorCode = "ROOM_NOT_FOUND"
	ErrCodeUnauthorized               ErrorCode = "UNAUTHORIZED"
	ErrCodeHostNotConnected           ErrorCode = "HOST_NOT_CONNECTED"
	ErrCodeInvalidMessage             ErrorCode = "INVALID_MESSAGE"
	ErrCodeUnknownMessageType         ErrorCode = "UNKNOWN_MESSAGE_TYPE"
)

// WebSocket close codes used by the relay
const (
	CloseNormal             = 1000
	CloseGoingAway          = 1001
	CloseInvalidRole        = 4000
	CloseHostConflict       = 4001 // host already exists, or host left and spectators must go
	CloseControllerReplaced = 4002
	CloseRoomNotFound       = 4004
)

// Reaction emoji accepted from spectators. Anything else is dropped.
const (
	EmojiClap     = "👏"
	EmojiHeart    = "❤️"
	EmojiLaugh    = "😂"
	EmojiSurprise = "😮"
	EmojiParty    = "🎉"
	EmojiFire     = "🔥"
)

// Emojis lists the accepted reactions in broadcast order
var Emojis = []string{EmojiClap, EmojiHeart, EmojiLaugh, EmojiSurprise, EmojiParty, EmojiFire}

// ValidEmoji reports whether e belongs to the reaction set
func ValidEmoji(e string) bool {
	for _, known := range Emojis {
		if e == known {
			return true
		}
	}
	return false
}

const (
	// MinReactionCount and MaxReactionCount bound what one SEND_REACTION contributes
	MinReactionCount = 1
	MaxReactionCount = 10
)

// ClampReactionCount turns a client-reported count into a contribution: the
// integer part bounded to [MinReactionCount, MaxReactionCount], 1 when absent
func ClampReactionCount(count *float64) int {
	if count == nil || math.IsNaN(*count) || *count < MinReactionCount {
		return MinReactionCount
	}
	if *count > MaxReactionCount {
		return MaxReactionCount
	}
	return int(math.Floor(*count))
}
