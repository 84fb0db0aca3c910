package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/loteria/go/internal/relay/events"
	"github.com/mcdev12/loteria/go/internal/relay/protocol"
)

func TestAdmitHost(t *testing.T) {
	h := newHarness(t)

	host := h.connect(protocol.RoleHost)
	created := host.ofType(protocol.TypeRoomCreated)
	require.Len(t, created, 1)
	assert.Equal(t, "ABCD", created[0].str("roomId"))
	assert.False(t, host.Closed())

	second := h.connect(protocol.RoleHost)
	assert.Equal(t, []protocol.ErrorCode{protocol.ErrCodeHostAlreadyExists}, second.errorCodes())
	assert.True(t, second.Closed())
	assert.Equal(t, protocol.CloseHostConflict, second.code())

	stats := h.sync()
	assert.True(t, stats.HasHost)
	assert.Equal(t, 1, stats.Connections)
	assert.Contains(t, h.pub.types(), events.EventHostConnected)
}

func TestAdmitHost_ReplacesStaleHost(t *testing.T) {
	h := newHarness(t)

	oldHost := h.connect(protocol.RoleHost)
	controller := h.connect(protocol.RoleController)
	oldHost.kill()

	newHost := h.connect(protocol.RoleHost)
	assert.Len(t, newHost.ofType(protocol.TypeRoomCreated), 1)
	connected := newHost.ofType(protocol.TypeControllerConnected)
	require.Len(t, connected, 1)
	assert.Equal(t, controller.id, connected[0].str("controllerId"))

	// The late close event of the old host must not unseat the new one
	require.True(t, h.room.Disconnect(oldHost.id))
	stats := h.sync()
	assert.True(t, stats.HasHost)
	assert.Empty(t, controller.ofType(protocol.TypeHostDisconnected))
}

func TestAdmitController_RequiresHost(t *testing.T) {
	h := newHarness(t)

	controller := h.connect(protocol.RoleController)
	assert.Equal(t, []protocol.ErrorCode{protocol.ErrCodeRoomNotFound}, controller.errorCodes())
	assert.True(t, controller.Closed())
	assert.Equal(t, protocol.CloseRoomNotFound, controller.code())

	stats := h.sync()
	assert.False(t, stats.HasController)
	assert.Equal(t, 0, stats.Connections)
}

func TestAdmitSpectator_RequiresHost(t *testing.T) {
	h := newHarness(t)

	spectator := h.connect(protocol.RoleSpectator)
	assert.Equal(t, []protocol.ErrorCode{protocol.ErrCodeRoomNotFound}, spectator.errorCodes())
	assert.Equal(t, protocol.CloseRoomNotFound, spectator.code())
	assert.Equal(t, 0, h.sync().Spectators)
}

func TestAdmitController(t *testing.T) {
	h := newHarness(t)

	host := h.connect(protocol.RoleHost)
	spectator := h.connect(protocol.RoleSpectator)
	controller := h.connect(protocol.RoleController)

	joined := controller.ofType(protocol.TypeRoomJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, "controller", joined[0].str("role"))
	assert.Empty(t, controller.ofType(protocol.TypeFullStateSync), "no snapshot cached yet")

	for _, c := range []*fakeConn{host, spectator} {
		connected := c.ofType(protocol.TypeControllerConnected)
		require.Len(t, connected, 1)
		assert.Equal(t, controller.id, connected[0].str("controllerId"))
	}
	assert.Empty(t, controller.ofType(protocol.TypeControllerConnected))

	stats := h.sync()
	assert.True(t, stats.HasController)
	assert.Equal(t, controller.id, stats.ControllerID)
}

func TestAdmitController_SlotTakenLeavesConnectionOpen(t *testing.T) {
	h := newHarness(t)

	h.connect(protocol.RoleHost)
	first := h.connect(protocol.RoleController)
	second := h.connect(protocol.RoleController)

	assert.Equal(t, []protocol.ErrorCode{protocol.ErrCodeControllerAlreadyConnected}, second.errorCodes())
	assert.False(t, second.Closed())

	stats := h.sync()
	assert.Equal(t, first.id, stats.ControllerID)
	assert.Equal(t, 1, stats.PendingControllers)

	h.send(second, `{"type":"DRAW_CARD"}`)
	h.sync()
	assert.Equal(t, []protocol.ErrorCode{
		protocol.ErrCodeControllerAlreadyConnected,
		protocol.ErrCodeUnauthorized,
	}, second.errorCodes())
}

func TestAdmitSpectator(t *testing.T) {
	h := newHarness(t)

	host := h.connect(protocol.RoleHost)
	first := h.connect(protocol.RoleSpectator)
	second := h.connect(protocol.RoleSpectator)

	joined := second.ofType(protocol.TypeRoomJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, "spectator", joined[0].str("role"))
	assert.Empty(t, second.ofType(protocol.TypeStateUpdate))

	counts := host.ofType(protocol.TypeSpectatorCount)
	require.Len(t, counts, 2)
	assert.JSONEq(t, `2`, string(counts[1]["count"]))
	assert.Len(t, first.ofType(protocol.TypeSpectatorCount), 2)
	assert.Equal(t, 2, h.sync().Spectators)
}

func TestAdmit_IgnoresDuplicateConnect(t *testing.T) {
	h := newHarness(t)

	host := h.connect(protocol.RoleHost)
	require.True(t, h.room.Connect(host, protocol.RoleSpectator))

	stats := h.sync()
	assert.True(t, stats.HasHost)
	assert.Equal(t, 0, stats.Spectators)
	assert.Len(t, host.received(), 1)
}

func TestRoleExclusivity(t *testing.T) {
	h := newHarness(t)

	var hosts, controllers []*fakeConn
	for i := 0; i < 5; i++ {
		hosts = append(hosts, h.connect(protocol.RoleHost))
		controllers = append(controllers, h.connect(protocol.RoleController))
	}

	seatedHosts := 0
	for _, c := range hosts {
		seatedHosts += len(c.ofType(protocol.TypeRoomCreated))
	}
	seatedControllers := 0
	for _, c := range controllers {
		seatedControllers += len(c.ofType(protocol.TypeRoomJoined))
	}
	assert.Equal(t, 1, seatedHosts)
	assert.Equal(t, 1, seatedControllers)

	stats := h.sync()
	assert.Equal(t, controllers[0].id, stats.ControllerID)
	assert.Equal(t, 4, stats.PendingControllers)
}

func TestTakeover(t *testing.T) {
	h := newHarness(t)

	host := h.connect(protocol.RoleHost)
	spectator := h.connect(protocol.RoleSpectator)
	oldController := h.connect(protocol.RoleController)
	newController := h.connect(protocol.RoleController)
	host.reset()
	spectator.reset()

	h.send(newController, `{"type":"TAKEOVER_CONTROLLER"}`)
	stats := h.sync()

	assert.Len(t, oldController.ofType(protocol.TypeControllerReplaced), 1)
	assert.True(t, oldController.Closed())
	assert.Equal(t, protocol.CloseControllerReplaced, oldController.code())

	joined := newController.ofType(protocol.TypeRoomJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, "controller", joined[0].str("role"))

	for _, c := range []*fakeConn{host, spectator} {
		connected := c.ofType(protocol.TypeControllerConnected)
		require.Len(t, connected, 1)
		assert.Equal(t, newController.id, connected[0].str("controllerId"))
	}

	assert.Equal(t, newController.id, stats.ControllerID)
	assert.Equal(t, 0, stats.PendingControllers)
	assert.Contains(t, h.pub.types(), events.EventControllerReplaced)

	// The replaced controller's close event must not clear the new one
	require.True(t, h.room.Disconnect(oldController.id))
	stats = h.sync()
	assert.Equal(t, newController.id, stats.ControllerID)
	assert.Empty(t, host.ofType(protocol.TypeControllerDisconnected))
}

func TestTakeover_SyncsStateToNewController(t *testing.T) {
	h := newHarness(t)

	host := h.connect(protocol.RoleHost)
	h.connect(protocol.RoleController)
	waiting := h.connect(protocol.RoleController)
	h.send(host, stateUpdateFrame)
	h.send(waiting, `{"type":"TAKEOVER_CONTROLLER"}`)
	h.sync()

	syncs := waiting.ofType(protocol.TypeFullStateSync)
	require.Len(t, syncs, 1)
	assert.JSONEq(t, `{"currentIndex":5,"totalItems":36,"status":"playing","historyCount":5,"isHistoryOpen":false,"currentItem":{"id":"06"},"history":[]}`, string(syncs[0]["payload"]))
}

func TestTakeover_AfterControllerLeft(t *testing.T) {
	h := newHarness(t)

	h.connect(protocol.RoleHost)
	first := h.connect(protocol.RoleController)
	waiting := h.connect(protocol.RoleController)

	h.disconnect(first)
	h.sync()
	assert.Len(t, waiting.ofType(protocol.TypeControllerDisconnected), 1)

	h.send(waiting, `{"type":"TAKEOVER_CONTROLLER"}`)
	stats := h.sync()
	assert.Equal(t, waiting.id, stats.ControllerID)
	assert.Len(t, waiting.ofType(protocol.TypeRoomJoined), 1)
}

func TestTakeover_Unauthorized(t *testing.T) {
	h := newHarness(t)

	host := h.connect(protocol.RoleHost)
	controller := h.connect(protocol.RoleController)
	spectator := h.connect(protocol.RoleSpectator)

	for _, c := range []*fakeConn{host, controller, spectator} {
		h.send(c, `{"type":"TAKEOVER_CONTROLLER"}`)
	}
	stats := h.sync()

	for _, c := range []*fakeConn{host, controller, spectator} {
		assert.Equal(t, []protocol.ErrorCode{protocol.ErrCodeUnauthorized}, c.errorCodes())
	}
	assert.Equal(t, controller.id, stats.ControllerID)
	assert.False(t, controller.Closed())
}

func TestTakeover_WithoutHost(t *testing.T) {
	h := newHarness(t)

	host := h.connect(protocol.RoleHost)
	controller := h.connect(protocol.RoleController)
	waiting := h.connect(protocol.RoleController)

	h.disconnect(host)
	h.sync()
	assert.Len(t, controller.ofType(protocol.TypeHostDisconnected), 1)
	assert.Len(t, waiting.ofType(protocol.TypeHostDisconnected), 1)

	h.send(waiting, `{"type":"TAKEOVER_CONTROLLER"}`)
	stats := h.sync()

	assert.Contains(t, waiting.errorCodes(), protocol.ErrCodeRoomNotFound)
	assert.Equal(t, protocol.CloseRoomNotFound, waiting.code())
	assert.Equal(t, controller.id, stats.ControllerID)
	assert.Equal(t, 0, stats.PendingControllers)
}
