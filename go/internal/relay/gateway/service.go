package gateway

import (
	"context"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/loteria/go/internal/relay/events"
	"github.com/mcdev12/loteria/go/internal/relay/room"
)

// Service is the relay gateway: it accepts WebSocket connections and hands
// them to per-room actors
type Service struct {
	hub       *Hub
	wsHandler *WebSocketHandler
}

// Config holds configuration for the relay gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	RoomConfig       room.Config
}

// DefaultConfig returns default configuration for the relay gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		RoomConfig:       room.DefaultConfig(),
	}
}

// NewService creates a new relay gateway service. A nil clock uses the real
// clock and a nil publisher logs room events.
func NewService(config Config, publisher events.Publisher, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if publisher == nil {
		publisher = events.NewLogPublisher(log.Logger)
	}

	hub := NewHub(config.RoomConfig, clock, publisher)
	return &Service{
		hub:       hub,
		wsHandler: NewWebSocketHandler(hub, config.ConnectionConfig),
	}
}

// Start runs the gateway until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting relay gateway service")
	s.hub.Start(ctx)
	return s.Stop()
}

// Stop shuts down every room. It is safe to call more than once.
func (s *Service) Stop() error {
	s.hub.Shutdown()
	log.Info().Msg("relay gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("relay gateway routes registered")
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() map[string]interface{} {
	stats := s.hub.GetConnectionStats()
	stats["service"] = "loteria_relay"
	stats["status"] = "running"
	return stats
}
