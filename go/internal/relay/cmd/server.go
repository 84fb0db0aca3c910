package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/loteria/go/internal/relay/config"
	"github.com/mcdev12/loteria/go/internal/relay/gateway"
)

func setupServer(cfg *config.Config, gatewayService *gateway.Service, health http.Handler) *http.Server {
	mux := http.NewServeMux()

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	gatewayService.RegisterRoutes(mux)
	setupHealthCheck(mux, health)
	setupInfo(mux, gatewayService)

	handler := c.Handler(mux)

	// No WriteTimeout: upgraded sockets manage their own deadlines
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func setupHealthCheck(mux *http.ServeMux, health http.Handler) {
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Debug().Err(err).Msg("failed to write liveness response")
		}
	})
	mux.Handle("GET /health", health)
}

func setupInfo(mux *http.ServeMux, gatewayService *gateway.Service) {
	mux.HandleFunc("GET /info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(gatewayService.GetStats()); err != nil {
			log.Error().Err(err).Msg("failed to write info response")
		}
	})
}
