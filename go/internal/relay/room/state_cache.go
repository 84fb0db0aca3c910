package room

import "github.com/mcdev12/loteria/go/internal/relay/protocol"

// stateCache keeps the last host-authored snapshot. historyOpen is owned by
// the relay and folded into every snapshot it hands out.
type stateCache struct {
	snapshot    *protocol.GameState
	historyOpen bool
}

func (c *stateCache) present() bool {
	return c.snapshot != nil
}

// update stores a host snapshot and returns the copy to relay
func (c *stateCache) update(state protocol.GameState) protocol.GameState {
	state.IsHistoryOpen = c.historyOpen
	c.snapshot = &state
	return state
}

func (c *stateCache) setHistoryOpen(open bool) {
	c.historyOpen = open
	if c.snapshot != nil {
		c.snapshot.IsHistoryOpen = open
	}
}

// current returns the cached snapshot, if any
func (c *stateCache) current() (protocol.GameState, bool) {
	if c.snapshot == nil {
		return protocol.GameState{}, false
	}
	return *c.snapshot, true
}
