package room

import "github.com/mcdev12/loteria/go/internal/relay/protocol"

// relayPreference routes a sound preference by sender role and scope:
//
//	host, any scope          -> controller
//	controller, local        -> nobody
//	controller, host_only    -> host
//	controller, both         -> host
func (r *Room) relayPreference(sender string, msg *protocol.SoundPreference) {
	switch sender {
	case r.hostID:
		r.send(r.controllerID, protocol.NewSoundPreference(msg.Enabled, protocol.RoleHost, msg.EffectiveScope()))
	case r.controllerID:
		switch msg.EffectiveScope() {
		case protocol.ScopeHostOnly, protocol.ScopeBoth:
			r.send(r.hostID, protocol.NewSoundPreference(msg.Enabled, protocol.RoleController, msg.EffectiveScope()))
		}
	default:
		r.logger.Debug().Str("connection_id", sender).Msg("Sound preference from non-participant ignored")
	}
}

// relayPreferenceAck forwards the host's confirmation to the controller
func (r *Room) relayPreferenceAck(sender string, msg *protocol.SoundPreferenceAck) {
	if sender != r.hostID {
		r.logger.Warn().Str("connection_id", sender).Msg("Sound preference ack from non-host ignored")
		return
	}
	r.send(r.controllerID, protocol.NewSoundPreferenceAck(msg.Enabled))
}
