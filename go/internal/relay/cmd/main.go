package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/loteria/go/internal/relay/config"
	"github.com/mcdev12/loteria/go/internal/relay/events"
	"github.com/mcdev12/loteria/go/internal/relay/gateway"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load relay config")
	}
	setupLogging(cfg)

	publisher, broker, closePublisher := setupPublisher(cfg)
	defer closePublisher()

	metrics := events.NewMetricPublisher(publisher, nil)
	health := events.NewHealthChecker(metrics, broker)

	gatewayService := gateway.NewService(cfg.Gateway(), metrics, nil)
	server := setupServer(cfg, gatewayService, health)

	log.Info().
		Str("addr", server.Addr).
		Bool("nats", cfg.NATSEnabled()).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("starting loteria relay")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serviceDone := make(chan struct{})
	go func() {
		defer close(serviceDone)
		if err := gatewayService.Start(ctx); err != nil {
			log.Error().Err(err).Msg("relay gateway service failed")
		}
	}()

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	// Rooms close their sockets with 1001 before the listener goes away
	cancel()
	select {
	case <-serviceDone:
	case <-time.After(5 * time.Second):
		log.Warn().Msg("rooms did not stop in time")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("loteria relay shutdown complete")
}

func setupLogging(cfg *config.Config) {
	var out io.Writer = os.Stderr
	if cfg.Log.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// setupPublisher connects to NATS when configured. Without NATS, or when the
// connection fails, room events are logged.
func setupPublisher(cfg *config.Config) (events.Publisher, events.Connectivity, func()) {
	logPublisher := events.NewLogPublisher(log.Logger)
	if !cfg.NATSEnabled() {
		return logPublisher, nil, func() {}
	}

	natsPublisher, err := events.NewNATSPublisher(cfg.Events())
	if err != nil {
		log.Error().Err(err).Str("nats_url", cfg.NATS.URL).Msg("failed to connect to NATS, logging room events instead")
		return logPublisher, nil, func() {}
	}

	return natsPublisher, natsPublisher, func() {
		if err := natsPublisher.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close NATS publisher")
		}
	}
}
