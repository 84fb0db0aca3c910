package room

import (
	"github.com/mcdev12/loteria/go/internal/relay/events"
	"github.com/mcdev12/loteria/go/internal/relay/protocol"
)

// disconnect handles the close event of one connection. Occupancy is only
// cleared when the closing id is the current occupant.
func (r *Room) disconnect(id string) {
	if _, tracked := r.conns[id]; !tracked {
		return
	}
	delete(r.conns, id)

	switch {
	case id == r.hostID:
		r.hostDisconnected()
	case id == r.controllerID:
		r.controllerID = ""
		r.broadcast(protocol.NewControllerDisconnected())
		r.logger.Info().Str("connection_id", id).Msg("Controller disconnected")
		r.publish(events.EventControllerDisconnected, events.ConnectionPayload{ConnectionID: id})
	default:
		if _, ok := r.spectators[id]; ok {
			delete(r.spectators, id)
			r.reactions.forget(id)
			r.broadcast(protocol.NewSpectatorCount(len(r.spectators)))
			r.logger.Debug().Str("connection_id", id).Int("spectators", len(r.spectators)).Msg("Spectator left")
			r.publish(events.EventSpectatorLeft, events.SpectatorPayload{ConnectionID: id, Spectators: len(r.spectators)})
		}
		delete(r.pending, id)
	}

	if r.idle() {
		r.cleanupIdle()
	}
}

// hostDisconnected tells the controller side and sends every spectator away
func (r *Room) hostDisconnected() {
	id := r.hostID
	r.hostID = ""

	notice, err := protocol.Encode(protocol.NewHostDisconnected())
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to encode host disconnect")
		return
	}

	r.sendRaw(r.controllerID, notice)
	for pendingID := range r.pending {
		r.sendRaw(pendingID, notice)
	}

	for spectatorID := range r.spectators {
		if conn, ok := r.live(spectatorID); ok {
			if err := conn.Send(notice); err != nil {
				r.logger.Debug().Err(err).Str("connection_id", spectatorID).Msg("Failed to notify spectator")
			}
			if err := conn.Close(protocol.CloseHostConflict, "host disconnected"); err != nil {
				r.logger.Debug().Err(err).Str("connection_id", spectatorID).Msg("Close of spectator failed")
			}
		}
		delete(r.conns, spectatorID)
		r.reactions.forget(spectatorID)
	}
	clear(r.spectators)

	r.logger.Info().Str("connection_id", id).Msg("Host disconnected")
	r.publish(events.EventHostDisconnected, events.ConnectionPayload{ConnectionID: id})
}

// idle reports whether nobody holds a seat in the room, or nobody is connected at all
func (r *Room) idle() bool {
	if len(r.conns) == 0 {
		return true
	}
	return r.hostID == "" && r.controllerID == "" && len(r.spectators) == 0
}

// cleanupIdle cancels the pending flush and drops reaction state
func (r *Room) cleanupIdle() {
	flushWasPending := r.reactions.pending()
	r.reactions.reset()
	r.logger.Debug().Bool("flush_cancelled", flushWasPending).Msg("Room idle, reaction state cleared")
	r.publish(events.EventRoomIdle, nil)
}
