package room

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/loteria/go/internal/relay/events"
	"github.com/mcdev12/loteria/go/internal/relay/protocol"
)

var errConnClosed = errors.New("connection closed")

// fakeConn records every frame and the close code it receives
type fakeConn struct {
	id string

	mu          sync.Mutex
	frames      [][]byte
	closed      bool
	closeCode   int
	closeReason string
}

func newFakeConn() *fakeConn {
	return &fakeConn{id: uuid.NewString()}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errConnClosed
	}
	c.frames = append(c.frames, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.closeCode = code
	c.closeReason = reason
	return nil
}

func (c *fakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) code() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode
}

// kill simulates the socket dying without a close handshake
func (c *fakeConn) kill() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

type frame map[string]json.RawMessage

func (f frame) str(key string) string {
	var s string
	_ = json.Unmarshal(f[key], &s)
	return s
}

func (f frame) kind() protocol.Type {
	return protocol.Type(f.str("type"))
}

func (c *fakeConn) received() []frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]frame, 0, len(c.frames))
	for _, data := range c.frames {
		var f frame
		if err := json.Unmarshal(data, &f); err == nil {
			out = append(out, f)
		}
	}
	return out
}

func (c *fakeConn) ofType(t protocol.Type) []frame {
	var out []frame
	for _, f := range c.received() {
		if f.kind() == t {
			out = append(out, f)
		}
	}
	return out
}

func (c *fakeConn) raw() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.frames...)
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

func (c *fakeConn) errorCodes() []protocol.ErrorCode {
	var codes []protocol.ErrorCode
	for _, f := range c.ofType(protocol.TypeError) {
		codes = append(codes, protocol.ErrorCode(f.str("code")))
	}
	return codes
}

// recordingPublisher keeps every event a room publishes
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.RoomEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.RoomEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type harness struct {
	t     *testing.T
	room  *Room
	clock fakeClock
	pub   *recordingPublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	clock := clockwork.NewFakeClock()
	pub := &recordingPublisher{}
	r := New("ABCD", DefaultConfig(), clock, pub)

	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-r.Done()
	})

	return &harness{t: t, room: r, clock: clock, pub: pub}
}

func (h *harness) connect(role protocol.Role) *fakeConn {
	h.t.Helper()
	c := newFakeConn()
	require.True(h.t, h.room.Connect(c, role))
	h.sync()
	return c
}

func (h *harness) send(c *fakeConn, msg string) {
	h.t.Helper()
	require.True(h.t, h.room.Deliver(c.id, []byte(msg)))
}

func (h *harness) disconnect(c *fakeConn) {
	h.t.Helper()
	c.kill()
	require.True(h.t, h.room.Disconnect(c.id))
}

// sync waits until the room has handled everything queued so far
func (h *harness) sync() Stats {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	stats, err := h.room.Inspect(ctx)
	require.NoError(h.t, err)
	return stats
}

const stateUpdateFrame = `{"type":"STATE_UPDATE","payload":{"currentIndex":5,"totalItems":36,"status":"playing","historyCount":5,"currentItem":{"id":"06"}}}`
