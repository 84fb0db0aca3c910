package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogPublisher writes events to the log instead of a broker, for development
// and for deployments without NATS
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event RoomEvent) error {
	p.logger.Debug().
		Str("event_id", event.ID.String()).
		Str("event_type", string(event.Type)).
		Str("room", event.Room).
		RawJSON("payload", event.Payload).
		Msg("publishing event")
	return nil
}

type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
	FlushTimeout  time.Duration
}

func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "loteria.rooms",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
		FlushTimeout:  2 * time.Second,
	}
}

// NATSPublisher publishes room events on core NATS subjects of the form
// <prefix>.<room>.<event>
type NATSPublisher struct {
	nc     *nats.Conn
	config NATSConfig
}

func NewNATSPublisher(cfg NATSConfig) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("loteria-relay"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	log.Info().
		Str("url", nc.ConnectedUrl()).
		Str("subject_prefix", cfg.SubjectPrefix).
		Msg("connected to NATS")

	return &NATSPublisher{nc: nc, config: cfg}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, event RoomEvent) error {
	data, err := event.Envelope()
	if err != nil {
		return err
	}

	msg := &nats.Msg{
		Subject: Subject(p.config.SubjectPrefix, event),
		Data:    data,
		Header:  Headers(event),
	}
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish to NATS: %w", err)
	}

	log.Debug().
		Str("subject", msg.Subject).
		Str("event_id", event.ID.String()).
		Int("size", len(data)).
		Msg("published to NATS")

	return nil
}

// Connected reports whether the underlying connection is currently up
func (p *NATSPublisher) Connected() bool {
	return p.nc != nil && p.nc.IsConnected()
}

func (p *NATSPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	if err := p.nc.FlushTimeout(p.config.FlushTimeout); err != nil {
		log.Warn().Err(err).Msg("Failed to flush NATS connection before close")
	}
	p.nc.Close()
	return nil
}

// Subject builds the NATS subject for an event
func Subject(prefix string, event RoomEvent) string {
	return fmt.Sprintf("%s.%s.%s", prefix, event.Room, event.Type)
}

// Headers carries the envelope identity as NATS message headers
func Headers(event RoomEvent) nats.Header {
	return nats.Header{
		"Event-Type": []string{string(event.Type)},
		"Room-ID":    []string{event.Room},
		"Event-ID":   []string{event.ID.String()},
	}
}
