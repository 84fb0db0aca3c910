package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// ErrInvalidMessage is returned by Parse for frames that cannot be routed
var ErrInvalidMessage = errors.New("invalid message")

type decodeFunc func(fields map[string]json.RawMessage, data []byte) (Message, error)

var decoders = map[Type]decodeFunc{
	TypeRoomCreated:            decodeAs[RoomCreated],
	TypeRoomJoined:             decodeAs[RoomJoined],
	TypeControllerConnected:    decodeAs[ControllerConnected],
	TypeControllerDisconnected: decodeAs[ControllerDisconnected],
	TypeHostDisconnected:       decodeAs[HostDisconnected],
	TypeSpectatorCount:         decodeAs[SpectatorCount],
	TypeTakeoverController:     decodeAs[TakeoverController],
	TypeControllerReplaced:     decodeAs[ControllerReplaced],
	TypeDrawCard:               decodeAs[Command],
	TypePauseGame:              decodeAs[Command],
	TypeResumeGame:             decodeAs[Command],
	TypeResetGame:              decodeAs[Command],
	TypeFlipCard:               decodeAs[Command],
	TypeStateUpdate:            decodeStateUpdate,
	TypeFullStateSync:          decodeAs[FullStateSync],
	TypeError:                  decodeAs[Error],
	TypeOpenHistory:            decodeAs[HistoryToggle],
	TypeCloseHistory:           decodeAs[HistoryToggle],
	TypeToggleDetailed:         decodeAs[ToggleDetailed],
	TypeSendReaction:           decodeSendReaction,
	TypeReactionBurst:          decodeAs[ReactionBurst],
	TypeSoundPreference:        decodeSoundPreference,
	TypeSoundPreferenceAck:     decodeSoundPreferenceAck,
	TypePing:                   decodeAs[Ping],
	TypePong:                   decodeAs[Pong],
}

// Parse decodes one frame into its message variant. Every failure wraps
// ErrInvalidMessage.
func Parse(data []byte) (Message, error) {
	// frames may be relayed verbatim as text frames, which must be UTF-8
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: frame is not valid UTF-8", ErrInvalidMessage)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: frame is not a JSON object", ErrInvalidMessage)
	}

	rawType, ok := fields["type"]
	if !ok {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidMessage)
	}
	var t Type
	if err := json.Unmarshal(rawType, &t); err != nil || isNull(rawType) {
		return nil, fmt.Errorf("%w: type must be a string", ErrInvalidMessage)
	}

	decode, ok := decoders[t]
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, t)
	}
	msg, err := decode(fields, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMessage, t, err)
	}
	return msg, nil
}

// Encode serializes a message for the wire
func Encode(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", m.Kind(), err)
	}
	return data, nil
}

func decodeAs[T any, PT interface {
	*T
	Message
}](_ map[string]json.RawMessage, data []byte) (Message, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return PT(&v), nil
}

func decodeStateUpdate(fields map[string]json.RawMessage, data []byte) (Message, error) {
	raw, ok := fields["payload"]
	if !ok || !isObject(raw) {
		return nil, errors.New("payload must be an object")
	}
	var msg StateUpdate
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Payload.Status.Valid() {
		return nil, fmt.Errorf("invalid status %q", msg.Payload.Status)
	}
	if isNull(msg.Payload.History) {
		msg.Payload.History = nil
	}
	if isNull(msg.Payload.CurrentItem) {
		msg.Payload.CurrentItem = nil
	}
	return &msg, nil
}

// decodeSendReaction never fails on emoji or count shapes: a non-string emoji
// is left empty so the reaction is dropped, and a non-numeric count is treated
// as absent
func decodeSendReaction(fields map[string]json.RawMessage, _ []byte) (Message, error) {
	msg := SendReaction{Type: TypeSendReaction}
	if raw, ok := fields["emoji"]; ok && isString(raw) {
		if err := json.Unmarshal(raw, &msg.Emoji); err != nil {
			return nil, err
		}
	}
	if raw, ok := fields["count"]; ok && isNumber(raw) {
		count, err := strconv.ParseFloat(string(bytes.TrimSpace(raw)), 64)
		if err == nil || errors.Is(err, strconv.ErrRange) {
			msg.Count = &count
		}
	}
	return &msg, nil
}

func decodeSoundPreference(fields map[string]json.RawMessage, data []byte) (Message, error) {
	if err := requireBool(fields, "enabled"); err != nil {
		return nil, err
	}
	var msg SoundPreference
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Scope != "" && !msg.Scope.Valid() {
		return nil, fmt.Errorf("invalid scope %q", msg.Scope)
	}
	return &msg, nil
}

func decodeSoundPreferenceAck(fields map[string]json.RawMessage, data []byte) (Message, error) {
	if err := requireBool(fields, "enabled"); err != nil {
		return nil, err
	}
	var msg SoundPreferenceAck
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func requireBool(fields map[string]json.RawMessage, key string) error {
	raw, ok := fields[key]
	if !ok {
		return fmt.Errorf("missing %s", key)
	}
	switch string(bytes.TrimSpace(raw)) {
	case "true", "false":
		return nil
	}
	return fmt.Errorf("%s must be a boolean", key)
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func isNumber(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && (trimmed[0] == '-' || (trimmed[0] >= '0' && trimmed[0] <= '9'))
}

func isString(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}
