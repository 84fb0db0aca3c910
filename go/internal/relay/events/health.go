package events

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Connectivity is implemented by publishers backed by a broker connection
type Connectivity interface {
	Connected() bool
}

type HealthStatus struct {
	Healthy       bool     `json:"healthy"`
	NATSEnabled   bool     `json:"nats_enabled"`
	NATSConnected bool     `json:"nats_connected"`
	Errors        []string `json:"errors"`
	PublishStats
}

// HealthChecker reports publisher health. A configured broker that is down
// makes the relay unhealthy; room traffic itself keeps flowing.
type HealthChecker struct {
	metrics *MetricPublisher
	broker  Connectivity
}

// NewHealthChecker builds a checker. broker may be nil when events are only
// logged.
func NewHealthChecker(metrics *MetricPublisher, broker Connectivity) *HealthChecker {
	return &HealthChecker{metrics: metrics, broker: broker}
}

func (h *HealthChecker) Check() HealthStatus {
	status := HealthStatus{
		Healthy:      true,
		Errors:       []string{},
		PublishStats: h.metrics.Stats(),
	}

	if h.broker != nil {
		status.NATSEnabled = true
		status.NATSConnected = h.broker.Connected()
		if !status.NATSConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS not connected")
		}
	}
	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check()

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to write health response")
	}
}
