// Package events publishes auction domain events to a message broker.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type is the routing name of a domain event.
type Type string

const (
	LeilaoCriado     Type = "leilao.criado"
	LeilaoPublicado  Type = "leilao.publicado"
	LeilaoFinalizado Type = "leilao.finalizado"
	LoteResultado    Type = "lote.resultado"
	PrestacaoGerada  Type = "prestacao.gerada"
)

// Event is the broker payload for a committed auction mutation.
type Event struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	LeilaoID   string         `json:"leilaoId"`
	Actor      string         `json:"actor"`
	OccurredAt time.Time      `json:"occurredAt"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// NewEvent builds an event with a fresh id and the current time.
func NewEvent(t Type, leilaoID, actor string, payload map[string]any) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       t,
		LeilaoID:   leilaoID,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// New returns the publisher selected by cfg.Backend.
func New(cfg *Config, logger *slog.Logger) (Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Backend {
	case BackendNone, "":
		return Noop{}, nil
	case BackendMemory:
		return NewRecorder(), nil
	case BackendKafka:
		logger.Info("publishing events to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
		return NewKafkaPublisher(cfg.Kafka), nil
	case BackendRabbitMQ:
		logger.Info("publishing events to rabbitmq", "exchange", cfg.RabbitMQ.Exchange)
		return NewRabbitPublisher(cfg.RabbitMQ)
	default:
		return nil, fmt.Errorf("unknown events backend %q (expected none, memory, kafka or rabbitmq)", cfg.Backend)
	}
}

// Noop discards every event.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(context.Context, Event) error { return nil }

// Close does nothing.
func (Noop) Close() error { return nil }

// Recorder keeps published events in memory, in publish order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish appends evt.
func (r *Recorder) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// Close does nothing.
func (r *Recorder) Close() error { return nil }
