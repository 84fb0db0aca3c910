package room

import (
	"github.com/mcdev12/loteria/go/internal/relay/events"
	"github.com/mcdev12/loteria/go/internal/relay/protocol"
)

func (r *Room) admit(conn Conn, role protocol.Role) {
	id := conn.ID()
	if _, exists := r.conns[id]; exists {
		r.logger.Warn().Str("connection_id", id).Msg("Connection already admitted, ignoring")
		return
	}

	switch role {
	case protocol.RoleHost:
		r.admitHost(conn)
	case protocol.RoleController:
		r.admitController(conn)
	case protocol.RoleSpectator:
		r.admitSpectator(conn)
	default:
		r.reject(conn, protocol.ErrCodeInvalidRole, protocol.CloseInvalidRole)
	}
}

func (r *Room) admitHost(conn Conn) {
	id := conn.ID()
	if _, ok := r.live(r.hostID); ok {
		r.reject(conn, protocol.ErrCodeHostAlreadyExists, protocol.CloseHostConflict)
		return
	}
	if r.hostID != "" {
		r.logger.Info().
			Str("previous_id", r.hostID).
			Str("connection_id", id).
			Msg("Replacing stale host")
		delete(r.conns, r.hostID)
	}

	r.conns[id] = conn
	r.hostID = id
	r.send(id, protocol.NewRoomCreated(r.code))
	if _, ok := r.live(r.controllerID); ok {
		r.send(id, protocol.NewControllerConnected(r.controllerID))
	}

	r.logger.Info().Str("connection_id", id).Msg("Host connected")
	r.publish(events.EventHostConnected, events.ConnectionPayload{ConnectionID: id})
}

func (r *Room) admitController(conn Conn) {
	id := conn.ID()
	if _, ok := r.live(r.controllerID); ok {
		// Left open so the client can offer a takeover
		r.conns[id] = conn
		r.pending[id] = struct{}{}
		r.sendError(id, protocol.ErrCodeControllerAlreadyConnected, "")
		r.logger.Info().Str("connection_id", id).Msg("Controller slot taken, connection pending")
		return
	}
	if r.hostID == "" {
		r.reject(conn, protocol.ErrCodeRoomNotFound, protocol.CloseRoomNotFound)
		return
	}
	if r.controllerID != "" {
		delete(r.conns, r.controllerID)
	}

	r.conns[id] = conn
	r.seatController(id)
}

// seatController makes id the controller and brings it up to date
func (r *Room) seatController(id string) {
	r.controllerID = id
	r.send(id, protocol.NewRoomJoined(r.code, protocol.RoleController))
	r.broadcast(protocol.NewControllerConnected(id), id)
	if state, ok := r.cache.current(); ok {
		r.send(id, protocol.NewFullStateSync(state))
	}

	r.logger.Info().Str("connection_id", id).Msg("Controller connected")
	r.publish(events.EventControllerConnected, events.ConnectionPayload{ConnectionID: id})
}

func (r *Room) admitSpectator(conn Conn) {
	id := conn.ID()
	if r.hostID == "" {
		r.reject(conn, protocol.ErrCodeRoomNotFound, protocol.CloseRoomNotFound)
		return
	}

	r.conns[id] = conn
	r.spectators[id] = struct{}{}
	r.send(id, protocol.NewRoomJoined(r.code, protocol.RoleSpectator))
	if state, ok := r.cache.current(); ok {
		r.send(id, protocol.NewStateUpdate(state))
	}
	r.broadcast(protocol.NewSpectatorCount(len(r.spectators)))

	r.logger.Debug().Str("connection_id", id).Int("spectators", len(r.spectators)).Msg("Spectator joined")
	r.publish(events.EventSpectatorJoined, events.SpectatorPayload{ConnectionID: id, Spectators: len(r.spectators)})
}

// takeover replaces the current controller with a pending one
func (r *Room) takeover(id string) {
	if _, ok := r.pending[id]; !ok {
		r.sendError(id, protocol.ErrCodeUnauthorized, "Only a waiting controller can take over")
		return
	}
	conn := r.conns[id]
	delete(r.pending, id)

	if r.hostID == "" {
		delete(r.conns, id)
		r.reject(conn, protocol.ErrCodeRoomNotFound, protocol.CloseRoomNotFound)
		return
	}

	previous := r.controllerID
	if old, ok := r.live(previous); ok {
		r.send(previous, protocol.NewControllerReplaced())
		if err := old.Close(protocol.CloseControllerReplaced, "controller replaced"); err != nil {
			r.logger.Debug().Err(err).Str("connection_id", previous).Msg("Close of replaced controller failed")
		}
	}
	if previous != "" {
		delete(r.conns, previous)
		r.logger.Info().
			Str("previous_id", previous).
			Str("connection_id", id).
			Msg("Controller taken over")
		r.publish(events.EventControllerReplaced, events.ReplacedPayload{PreviousID: previous, ControllerID: id})
	}

	r.seatController(id)
}

// reject answers with an error and closes a connection that was never tracked
func (r *Room) reject(conn Conn, code protocol.ErrorCode, closeCode int) {
	data, err := protocol.Encode(protocol.NewError(code, ""))
	if err == nil {
		if err := conn.Send(data); err != nil {
			r.logger.Debug().Err(err).Str("connection_id", conn.ID()).Msg("Failed to send rejection")
		}
	}
	if err := conn.Close(closeCode, string(code)); err != nil {
		r.logger.Debug().Err(err).Str("connection_id", conn.ID()).Msg("Close of rejected connection failed")
	}
	r.logger.Info().
		Str("connection_id", conn.ID()).
		Str("code", string(code)).
		Msg("Connection rejected")
}
