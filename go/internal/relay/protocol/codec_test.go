package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{"not json", `hello`},
		{"array", `[1,2,3]`},
		{"null", `null`},
		{"string", `"PING"`},
		{"missing type", `{"timestamp":1}`},
		{"numeric type", `{"type":42}`},
		{"null type", `{"type":null}`},
		{"unknown type", `{"type":"SHUFFLE_DECK"}`},
		{"lowercase type", `{"type":"ping"}`},
		{"state update without payload", `{"type":"STATE_UPDATE"}`},
		{"state update with null payload", `{"type":"STATE_UPDATE","payload":null}`},
		{"state update with bad status", `{"type":"STATE_UPDATE","payload":{"currentIndex":0,"totalItems":36,"status":"dancing","historyCount":0}}`},
		{"state update missing status", `{"type":"STATE_UPDATE","payload":{"currentIndex":0,"totalItems":36,"historyCount":0}}`},
		{"state update with string index", `{"type":"STATE_UPDATE","payload":{"currentIndex":"0","totalItems":36,"status":"playing","historyCount":0}}`},
		{"sound preference missing enabled", `{"type":"SOUND_PREFERENCE","scope":"both"}`},
		{"sound preference string enabled", `{"type":"SOUND_PREFERENCE","enabled":"yes","scope":"both"}`},
		{"sound preference bad scope", `{"type":"SOUND_PREFERENCE","enabled":true,"scope":"everyone"}`},
		{"ack missing enabled", `{"type":"SOUND_PREFERENCE_ACK"}`},
		{"toggle detailed non bool", `{"type":"TOGGLE_DETAILED","showDetailed":"on"}`},
		{"ping string timestamp", `{"type":"PING","timestamp":"now"}`},
		{"invalid utf-8", "{\"type\":\"PING\",\"note\":\"\xff\"}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse([]byte(tt.frame))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidMessage)
			assert.Nil(t, msg)
		})
	}
}

func TestParse_Commands(t *testing.T) {
	for _, typ := range []Type{TypeDrawCard, TypePauseGame, TypeResumeGame, TypeResetGame, TypeFlipCard} {
		t.Run(string(typ), func(t *testing.T) {
			msg, err := Parse([]byte(`{"type":"` + string(typ) + `","extra":1}`))
			require.NoError(t, err)
			cmd, ok := msg.(*Command)
			require.True(t, ok)
			assert.Equal(t, typ, cmd.Kind())
			assert.True(t, cmd.Kind().IsCommand())
			assert.True(t, cmd.Kind().Inbound())
		})
	}
}

func TestParse_StateUpdate(t *testing.T) {
	frame := `{"type":"STATE_UPDATE","payload":{"currentIndex":3,"totalItems":36,"status":"playing","historyCount":4,"isHistoryOpen":true,"currentItem":{"id":"07"},"history":null}}`

	msg, err := Parse([]byte(frame))
	require.NoError(t, err)

	update, ok := msg.(*StateUpdate)
	require.True(t, ok)
	assert.Equal(t, 3, update.Payload.CurrentIndex)
	assert.Equal(t, 36, update.Payload.TotalItems)
	assert.Equal(t, StatusPlaying, update.Payload.Status)
	assert.Equal(t, 4, update.Payload.HistoryCount)
	assert.True(t, update.Payload.IsHistoryOpen)
	assert.JSONEq(t, `{"id":"07"}`, string(update.Payload.CurrentItem))
	assert.Nil(t, update.Payload.History, "null history is treated as absent")
}

func TestParse_SendReaction(t *testing.T) {
	msg, err := Parse([]byte(`{"type":"SEND_REACTION","emoji":"🎉","count":25}`))
	require.NoError(t, err)
	reaction := msg.(*SendReaction)
	assert.Equal(t, EmojiParty, reaction.Emoji)
	require.NotNil(t, reaction.Count)
	assert.Equal(t, 25.0, *reaction.Count)

	msg, err = Parse([]byte(`{"type":"SEND_REACTION","emoji":"🦄"}`))
	require.NoError(t, err, "unknown emoji is a silent drop, not a parse error")
	reaction = msg.(*SendReaction)
	assert.Nil(t, reaction.Count)
	assert.False(t, ValidEmoji(reaction.Emoji))
}

func TestParse_SendReactionShapes(t *testing.T) {
	tests := []struct {
		name      string
		frame     string
		wantEmoji string
		wantCount int
	}{
		{"exponent count", `{"type":"SEND_REACTION","emoji":"🔥","count":1e3}`, EmojiFire, 10},
		{"fractional count", `{"type":"SEND_REACTION","emoji":"🔥","count":2.5}`, EmojiFire, 2},
		{"huge count", `{"type":"SEND_REACTION","emoji":"🔥","count":99999999999999999999}`, EmojiFire, 10},
		{"out of float range", `{"type":"SEND_REACTION","emoji":"🔥","count":1e999}`, EmojiFire, 10},
		{"string count", `{"type":"SEND_REACTION","emoji":"🔥","count":"7"}`, EmojiFire, 1},
		{"null count", `{"type":"SEND_REACTION","emoji":"🔥","count":null}`, EmojiFire, 1},
		{"object count", `{"type":"SEND_REACTION","emoji":"🔥","count":{}}`, EmojiFire, 1},
		{"numeric emoji", `{"type":"SEND_REACTION","emoji":5}`, "", 1},
		{"missing emoji", `{"type":"SEND_REACTION"}`, "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse([]byte(tt.frame))
			require.NoError(t, err)
			reaction := msg.(*SendReaction)
			assert.Equal(t, TypeSendReaction, reaction.Kind())
			assert.Equal(t, tt.wantEmoji, reaction.Emoji)
			assert.Equal(t, tt.wantCount, ClampReactionCount(reaction.Count))
		})
	}
}

func TestParse_InvalidUTF8(t *testing.T) {
	frames := []string{
		"{\"type\":\"DRAW_CARD\",\"x\":\"\xff\xfe\"}",
		"{\"type\":\"TOGGLE_DETAILED\",\"note\":\"\xc3\"}",
	}
	for _, frame := range frames {
		_, err := Parse([]byte(frame))
		assert.ErrorIs(t, err, ErrInvalidMessage)
		assert.ErrorContains(t, err, "UTF-8")
	}
}

func TestGameState_KeepsUnknownFields(t *testing.T) {
	frame := `{"type":"STATE_UPDATE","payload":{"currentIndex":2,"totalItems":36,"status":"playing","historyCount":2,"deckId":"barranquilla","theme":{"dark":true}}}`
	msg, err := Parse([]byte(frame))
	require.NoError(t, err)
	update := msg.(*StateUpdate)
	assert.JSONEq(t, `"barranquilla"`, string(update.Payload.Extra["deckId"]))

	data, err := Encode(NewFullStateSync(update.Payload))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FULL_STATE_SYNC","payload":{"currentIndex":2,"totalItems":36,"status":"playing","historyCount":2,"isHistoryOpen":false,"history":[],"deckId":"barranquilla","theme":{"dark":true}}}`, string(data))

	plain, err := Parse([]byte(`{"type":"STATE_UPDATE","payload":{"currentIndex":0,"totalItems":36,"status":"waiting","historyCount":0}}`))
	require.NoError(t, err)
	assert.Nil(t, plain.(*StateUpdate).Payload.Extra)
}

func TestParse_SoundPreference(t *testing.T) {
	msg, err := Parse([]byte(`{"type":"SOUND_PREFERENCE","enabled":false,"source":"controller","scope":"host_only"}`))
	require.NoError(t, err)
	pref := msg.(*SoundPreference)
	assert.False(t, pref.Enabled)
	assert.Equal(t, RoleController, pref.Source)
	assert.Equal(t, ScopeHostOnly, pref.EffectiveScope())

	msg, err = Parse([]byte(`{"type":"SOUND_PREFERENCE","enabled":true}`))
	require.NoError(t, err)
	assert.Equal(t, ScopeLocal, msg.(*SoundPreference).EffectiveScope())
}

func TestParse_OutboundTypesAreParseable(t *testing.T) {
	msg, err := Parse([]byte(`{"type":"REACTION_BURST","reactions":[],"timestamp":1}`))
	require.NoError(t, err)
	assert.False(t, msg.Kind().Inbound())

	msg, err = Parse([]byte(`{"type":"ROOM_CREATED","roomId":"ABCD"}`))
	require.NoError(t, err)
	assert.False(t, msg.Kind().Inbound())
}

func TestEncode_Factories(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"room created", NewRoomCreated("ABCD"), `{"type":"ROOM_CREATED","roomId":"ABCD"}`},
		{"room joined", NewRoomJoined("ABCD", RoleSpectator), `{"type":"ROOM_JOINED","roomId":"ABCD","role":"spectator"}`},
		{"controller connected", NewControllerConnected("c-1"), `{"type":"CONTROLLER_CONNECTED","controllerId":"c-1"}`},
		{"host disconnected", NewHostDisconnected(), `{"type":"HOST_DISCONNECTED"}`},
		{"spectator count", NewSpectatorCount(0), `{"type":"SPECTATOR_COUNT","count":0}`},
		{"controller replaced", NewControllerReplaced(), `{"type":"CONTROLLER_REPLACED"}`},
		{"error default text", NewError(ErrCodeHostNotConnected, ""), `{"type":"ERROR","code":"HOST_NOT_CONNECTED","message":"Host is not connected"}`},
		{"error custom text", NewError(ErrCodeInvalidMessage, "bad frame"), `{"type":"ERROR","code":"INVALID_MESSAGE","message":"bad frame"}`},
		{"burst", NewReactionBurst([]ReactionCount{{Emoji: EmojiFire, Count: 3}}, 1700), `{"type":"REACTION_BURST","reactions":[{"emoji":"🔥","count":3}],"timestamp":1700}`},
		{"ack", NewSoundPreferenceAck(false), `{"type":"SOUND_PREFERENCE_ACK","enabled":false}`},
		{"pong", NewPong(42), `{"type":"PONG","timestamp":42}`},
		{"open history", NewHistoryToggle(true), `{"type":"OPEN_HISTORY"}`},
		{"close history", NewHistoryToggle(false), `{"type":"CLOSE_HISTORY"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestNewFullStateSync_DefaultsHistory(t *testing.T) {
	state := GameState{CurrentIndex: 1, TotalItems: 36, Status: StatusPaused, HistoryCount: 2}

	data, err := Encode(NewFullStateSync(state))
	require.NoError(t, err)

	var decoded struct {
		Type    Type `json:"type"`
		Payload struct {
			History json.RawMessage `json:"history"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, TypeFullStateSync, decoded.Type)
	assert.JSONEq(t, `[]`, string(decoded.Payload.History))

	state.History = json.RawMessage(`[{"id":"01"}]`)
	data, err = Encode(NewFullStateSync(state))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.JSONEq(t, `[{"id":"01"}]`, string(decoded.Payload.History))
}

func TestNewCommand_PanicsOnNonCommand(t *testing.T) {
	assert.Panics(t, func() { NewCommand(TypePing) })
	assert.Equal(t, TypeDrawCard, NewCommand(TypeDrawCard).Kind())
}
