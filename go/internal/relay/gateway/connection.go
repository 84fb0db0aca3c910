package gateway

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/mcdev12/loteria/go/internal/relay/protocol"
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
)

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout      time.Duration
	ReadTimeout       time.Duration
	PingInterval      time.Duration
	CloseGracePeriod  time.Duration
	MaxMessageSize    int64
	ReadBufferSize    int
	WriteBufferSize   int
	SendBufferSize    int
	MessagesPerSecond float64
	MessageBurst      int
	CheckOrigin       func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:      10 * time.Second,
		ReadTimeout:       60 * time.Second,
		PingInterval:      30 * time.Second,
		CloseGracePeriod:  time.Second,
		MaxMessageSize:    64 * 1024, // state updates carry the draw history
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		SendBufferSize:    256,
		MessagesPerSecond: 20,
		MessageBurst:      40,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

type closeRequest struct {
	code   int
	reason string
}

// Connection wraps one WebSocket client. It satisfies room.Conn.
type Connection struct {
	id          string
	room        string
	role        protocol.Role
	ws          *websocket.Conn
	config      ConnectionConfig
	limiter     *rate.Limiter
	connectedAt time.Time

	send     chan []byte
	closing  chan struct{}
	readDone chan struct{}

	closeOnce sync.Once
	closeReq  closeRequest
	closed    atomic.Bool
}

func newConnection(ws *websocket.Conn, roomCode string, role protocol.Role, config ConnectionConfig) *Connection {
	limit := rate.Inf
	if config.MessagesPerSecond > 0 {
		limit = rate.Limit(config.MessagesPerSecond)
	}
	burst := config.MessageBurst
	if burst <= 0 {
		burst = 1
	}
	sendSize := config.SendBufferSize
	if sendSize <= 0 {
		sendSize = 256
	}

	return &Connection{
		id:          uuid.New().String(),
		room:        roomCode,
		role:        role,
		ws:          ws,
		config:      config,
		limiter:     rate.NewLimiter(limit, burst),
		connectedAt: time.Now(),
		send:        make(chan []byte, sendSize),
		closing:     make(chan struct{}),
		readDone:    make(chan struct{}),
	}
}

func (c *Connection) ID() string {
	return c.id
}

// Send queues a text frame. A client that cannot keep up is closed.
func (c *Connection) Send(data []byte) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		log.Warn().
			Str("connection_id", c.id).
			Str("room", c.room).
			Msg("connection send buffer full, closing connection")
		c.closed.Store(true)
		c.ws.Close()
		return ErrSendBufferFull
	}
}

// Close writes any queued frames followed by a close frame with code.
// Only the first call has an effect.
func (c *Connection) Close(code int, reason string) error {
	c.closeOnce.Do(func() {
		c.closeReq = closeRequest{code: code, reason: reason}
		c.closed.Store(true)
		close(c.closing)
	})
	return nil
}

func (c *Connection) Closed() bool {
	return c.closed.Load()
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message := <-c.send:
			if err := c.write(websocket.TextMessage, message); err != nil {
				log.Debug().
					Err(err).
					Str("connection_id", c.id).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-c.closing:
			c.flush()
			c.writeClose()
			select {
			case <-c.readDone:
			case <-time.After(c.config.CloseGracePeriod):
			}
			return

		case <-c.readDone:
			return

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				log.Debug().
					Err(err).
					Str("connection_id", c.id).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// flush writes frames queued before Close
func (c *Connection) flush() {
	for {
		select {
		case message := <-c.send:
			if err := c.write(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Connection) writeClose() {
	payload := websocket.FormatCloseMessage(c.closeReq.code, c.closeReq.reason)
	deadline := time.Now().Add(c.config.WriteTimeout)
	if err := c.ws.WriteControl(websocket.CloseMessage, payload, deadline); err != nil {
		log.Debug().Err(err).Str("connection_id", c.id).Msg("failed to write close frame")
	}
}

func (c *Connection) write(messageType int, data []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, data)
}

// readPump reads frames until the socket fails, then calls onClose once
func (c *Connection) readPump(onMessage func([]byte), onClose func()) {
	defer func() {
		c.closed.Store(true)
		close(c.readDone)
		onClose()
	}()

	c.ws.SetReadLimit(c.config.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNoStatusReceived,
			) {
				log.Debug().
					Err(err).
					Str("connection_id", c.id).
					Msg("unexpected WebSocket close error")
			}
			return
		}

		if !c.limiter.Allow() {
			log.Warn().
				Str("connection_id", c.id).
				Str("room", c.room).
				Msg("inbound rate limit exceeded, dropping frame")
			continue
		}

		onMessage(message)
		_ = c.ws.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	}
}
