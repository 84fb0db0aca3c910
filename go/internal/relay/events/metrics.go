package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// MetricPublisher wraps a Publisher and counts what goes through it
type MetricPublisher struct {
	publisher Publisher
	clock     clockwork.Clock

	published atomic.Uint64
	failed    atomic.Uint64

	mu            sync.Mutex
	lastEventTime time.Time
	lastError     string
}

// PublishStats is a snapshot of a MetricPublisher's counters
type PublishStats struct {
	Published     uint64    `json:"events_published"`
	Failed        uint64    `json:"events_failed"`
	LastEventTime time.Time `json:"last_event_time"`
	LastError     string    `json:"last_error,omitempty"`
}

func NewMetricPublisher(publisher Publisher, clock clockwork.Clock) *MetricPublisher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MetricPublisher{publisher: publisher, clock: clock}
}

func (p *MetricPublisher) Publish(ctx context.Context, event RoomEvent) error {
	err := p.publisher.Publish(ctx, event)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.failed.Add(1)
		p.lastError = err.Error()
		return err
	}
	p.published.Add(1)
	p.lastEventTime = p.clock.Now()
	return nil
}

func (p *MetricPublisher) Stats() PublishStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PublishStats{
		Published:     p.published.Load(),
		Failed:        p.failed.Load(),
		LastEventTime: p.lastEventTime,
		LastError:     p.lastError,
	}
}
