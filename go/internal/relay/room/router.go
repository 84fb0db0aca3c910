package room

import (
	"github.com/mcdev12/loteria/go/internal/relay/events"
	"github.com/mcdev12/loteria/go/internal/relay/protocol"
)

// route parses one frame and dispatches it by type and sender role
func (r *Room) route(sender string, data []byte) {
	if _, ok := r.conns[sender]; !ok {
		r.logger.Debug().Str("connection_id", sender).Msg("Frame from untracked connection dropped")
		return
	}

	msg, err := protocol.Parse(data)
	if err != nil {
		r.logger.Debug().Err(err).Str("connection_id", sender).Msg("Invalid message")
		r.sendError(sender, protocol.ErrCodeInvalidMessage, "")
		return
	}
	if !msg.Kind().Inbound() {
		r.sendError(sender, protocol.ErrCodeUnknownMessageType, "Unknown message type: "+string(msg.Kind()))
		return
	}

	switch m := msg.(type) {
	case *protocol.Command:
		r.handleCommand(sender, m, data)
	case *protocol.StateUpdate:
		r.handleStateUpdate(sender, m)
	case *protocol.ToggleDetailed:
		r.handleToggleDetailed(sender, data)
	case *protocol.HistoryToggle:
		r.handleHistoryToggle(sender, m, data)
	case *protocol.SendReaction:
		r.handleReaction(sender, m)
	case *protocol.SoundPreference:
		r.relayPreference(sender, m)
	case *protocol.SoundPreferenceAck:
		r.relayPreferenceAck(sender, m)
	case *protocol.Ping:
		r.handlePing(sender, m)
	case *protocol.TakeoverController:
		r.takeover(sender)
	default:
		r.sendError(sender, protocol.ErrCodeUnknownMessageType, "Unknown message type: "+string(msg.Kind()))
	}
}

func (r *Room) handleCommand(sender string, msg *protocol.Command, data []byte) {
	if sender != r.controllerID {
		r.sendError(sender, protocol.ErrCodeUnauthorized, "Only the controller can send game commands")
		return
	}
	if _, ok := r.live(r.hostID); !ok {
		r.sendError(sender, protocol.ErrCodeHostNotConnected, "")
		return
	}
	r.logger.Debug().Str("command", string(msg.Kind())).Msg("Relaying command to host")
	r.sendRaw(r.hostID, data)
}

func (r *Room) handleStateUpdate(sender string, msg *protocol.StateUpdate) {
	if sender != r.hostID {
		r.sendError(sender, protocol.ErrCodeUnauthorized, "Only the host can update game state")
		return
	}

	state := r.cache.update(msg.Payload)
	data, err := protocol.Encode(protocol.NewStateUpdate(state))
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to encode state update")
		return
	}
	r.sendRaw(r.controllerID, data)
	r.sendToSpectators(data)

	r.publish(events.EventStateUpdated, events.StatePayload{
		CurrentIndex: state.CurrentIndex,
		TotalItems:   state.TotalItems,
		Status:       string(state.Status),
	})
}

// handleToggleDetailed mirrors the detailed-text toggle to the other party
// and every spectator
func (r *Room) handleToggleDetailed(sender string, data []byte) {
	other, ok := r.counterpart(sender)
	if !ok {
		return
	}
	r.sendRaw(other, data)
	r.sendToSpectators(data)
}

// handleHistoryToggle mirrors the history modal between host and controller only
func (r *Room) handleHistoryToggle(sender string, msg *protocol.HistoryToggle, data []byte) {
	other, ok := r.counterpart(sender)
	if !ok {
		return
	}
	r.cache.setHistoryOpen(msg.Kind() == protocol.TypeOpenHistory)
	r.sendRaw(other, data)
}

func (r *Room) handlePing(sender string, msg *protocol.Ping) {
	ts := r.clock.Now().UnixMilli()
	if msg.Timestamp != nil {
		ts = *msg.Timestamp
	}
	r.send(sender, protocol.NewPong(ts))
}

// counterpart returns the other half of the host/controller pair. Senders that
// are neither get false.
func (r *Room) counterpart(sender string) (string, bool) {
	switch sender {
	case r.hostID:
		return r.controllerID, true
	case r.controllerID:
		return r.hostID, true
	}
	return "", false
}
