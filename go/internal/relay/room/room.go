package room

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/loteria/go/internal/relay/events"
	"github.com/mcdev12/loteria/go/internal/relay/protocol"
)

// ErrRoomStopped is returned when a request reaches a room whose actor has exited
var ErrRoomStopped = errors.New("room stopped")

// Config holds reaction timings and the inbox depth of a room
type Config struct {
	FlushWindow time.Duration
	Cooldown    time.Duration
	InboxSize   int
}

func DefaultConfig() Config {
	return Config{
		FlushWindow: 300 * time.Millisecond,
		Cooldown:    350 * time.Millisecond,
		InboxSize:   256,
	}
}

// Room is a single-goroutine actor owning all state of one game session.
// Every exported method hands work to the actor through the inbox; nothing
// else touches the fields below the inbox.
type Room struct {
	code      string
	clock     clockwork.Clock
	publisher events.Publisher
	logger    zerolog.Logger

	inbox   chan func()
	done    chan struct{}
	stopped bool

	conns        map[string]Conn
	hostID       string
	controllerID string
	spectators   map[string]struct{}
	pending      map[string]struct{}

	cache     stateCache
	reactions *reactionAggregator
}

// New creates a room. A nil clock uses the real clock and a nil publisher
// logs events.
func New(code string, cfg Config, clock clockwork.Clock, publisher events.Publisher) *Room {
	def := DefaultConfig()
	if cfg.FlushWindow <= 0 {
		cfg.FlushWindow = def.FlushWindow
	}
	if cfg.Cooldown < 0 {
		cfg.Cooldown = def.Cooldown
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = def.InboxSize
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	logger := log.With().Str("room", code).Logger()
	if publisher == nil {
		publisher = events.NewLogPublisher(logger)
	}

	r := &Room{
		code:       code,
		clock:      clock,
		publisher:  publisher,
		logger:     logger,
		inbox:      make(chan func(), cfg.InboxSize),
		done:       make(chan struct{}),
		conns:      make(map[string]Conn),
		spectators: make(map[string]struct{}),
		pending:    make(map[string]struct{}),
	}
	r.reactions = newReactionAggregator(clock, cfg.FlushWindow, cfg.Cooldown, func(gen uint64) {
		r.enqueue(func() { r.flushReactions(gen) })
	})
	return r
}

func (r *Room) Code() string {
	return r.code
}

// Run processes the inbox until Stop is handled or ctx is cancelled
func (r *Room) Run(ctx context.Context) {
	defer close(r.done)

	r.logger.Debug().Msg("Room started")
	for {
		select {
		case <-ctx.Done():
			r.shutdown(protocol.CloseGoingAway, "server shutting down")
			r.logger.Debug().Msg("Room stopped by context")
			return
		case fn := <-r.inbox:
			r.handle(fn)
			if r.stopped {
				r.logger.Debug().Msg("Room stopped")
				return
			}
		}
	}
}

// Done is closed once the actor has exited
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Connect admits conn under the declared role
func (r *Room) Connect(conn Conn, role protocol.Role) bool {
	return r.enqueue(func() { r.admit(conn, role) })
}

// Deliver routes one inbound frame from connID
func (r *Room) Deliver(connID string, data []byte) bool {
	return r.enqueue(func() { r.route(connID, data) })
}

// Disconnect reports that connID's transport has closed
func (r *Room) Disconnect(connID string) bool {
	return r.enqueue(func() { r.disconnect(connID) })
}

// Stop asks the actor to exit after everything already queued
func (r *Room) Stop() {
	r.enqueue(func() {
		r.shutdown(protocol.CloseNormal, "room closed")
		r.stopped = true
	})
}

// Stats is a point-in-time view of room occupancy
type Stats struct {
	Code               string `json:"code"`
	HasHost            bool   `json:"hasHost"`
	HasController      bool   `json:"hasController"`
	ControllerID       string `json:"controllerId,omitempty"`
	Spectators         int    `json:"spectators"`
	PendingControllers int    `json:"pendingControllers"`
	Connections        int    `json:"connections"`
	HasState           bool   `json:"hasState"`
	HistoryOpen        bool   `json:"historyOpen"`
	BufferedReactions  int    `json:"bufferedReactions"`
	FlushPending       bool   `json:"flushPending"`
	Cooldowns          int    `json:"cooldowns"`
}

// Inspect returns room stats once every previously queued event has been handled
func (r *Room) Inspect(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	if !r.enqueue(func() { reply <- r.stats() }) {
		return Stats{}, ErrRoomStopped
	}
	select {
	case s := <-reply:
		return s, nil
	case <-r.done:
		select {
		case s := <-reply:
			return s, nil
		default:
			return Stats{}, ErrRoomStopped
		}
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

func (r *Room) stats() Stats {
	return Stats{
		Code:               r.code,
		HasHost:            r.hostID != "",
		HasController:      r.controllerID != "",
		ControllerID:       r.controllerID,
		Spectators:         len(r.spectators),
		PendingControllers: len(r.pending),
		Connections:        len(r.conns),
		HasState:           r.cache.present(),
		HistoryOpen:        r.cache.historyOpen,
		BufferedReactions:  r.reactions.buffered(),
		FlushPending:       r.reactions.pending(),
		Cooldowns:          len(r.reactions.cooldowns),
	}
}

func (r *Room) enqueue(fn func()) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.inbox <- fn:
		return true
	case <-r.done:
		return false
	}
}

func (r *Room) handle(fn func()) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error().Interface("panic", p).Msg("Recovered from panic in room handler")
		}
	}()
	fn()
}

// shutdown closes every tracked connection and clears all room state
func (r *Room) shutdown(code int, reason string) {
	for id, conn := range r.conns {
		if err := conn.Close(code, reason); err != nil {
			r.logger.Debug().Err(err).Str("connection_id", id).Msg("Close during shutdown failed")
		}
	}
	clear(r.conns)
	clear(r.spectators)
	clear(r.pending)
	r.hostID = ""
	r.controllerID = ""
	r.reactions.reset()
	r.publish(events.EventRoomClosed, nil)
}

// send encodes msg and writes it to one connection, skipping stale handles
func (r *Room) send(id string, msg protocol.Message) {
	data, err := protocol.Encode(msg)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to encode message")
		return
	}
	r.sendRaw(id, data)
}

func (r *Room) sendRaw(id string, data []byte) {
	conn, ok := r.live(id)
	if !ok {
		return
	}
	if err := conn.Send(data); err != nil {
		r.logger.Warn().Err(err).Str("connection_id", id).Msg("Failed to send message")
	}
}

// broadcast sends msg to every tracked connection except the listed ids
func (r *Room) broadcast(msg protocol.Message, except ...string) {
	data, err := protocol.Encode(msg)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to encode broadcast")
		return
	}
	r.broadcastRaw(data, except...)
}

func (r *Room) broadcastRaw(data []byte, except ...string) {
	for id := range r.conns {
		if contains(except, id) {
			continue
		}
		r.sendRaw(id, data)
	}
}

// sendToSpectators writes one frame to every spectator
func (r *Room) sendToSpectators(data []byte) {
	for id := range r.spectators {
		r.sendRaw(id, data)
	}
}

func (r *Room) sendError(id string, code protocol.ErrorCode, message string) {
	r.send(id, protocol.NewError(code, message))
}

// live resolves id to a connection that is still open
func (r *Room) live(id string) (Conn, bool) {
	if id == "" {
		return nil, false
	}
	conn, ok := r.conns[id]
	if !ok || conn.Closed() {
		return nil, false
	}
	return conn, true
}

func (r *Room) publish(eventType events.EventType, payload any) {
	event, err := events.NewRoomEvent(r.code, eventType, payload, r.clock.Now())
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to build room event")
		return
	}
	if err := r.publisher.Publish(context.Background(), event); err != nil {
		r.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Failed to publish room event")
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
