package ports

import (
	"context"
	"encoding/json"
	"time"
)

// EventType identifies what happened
type EventType string

const (
	// EventTypeSampleReceived is published for every accepted accelerometer payload
	EventTypeSampleReceived EventType = "accelerometer.received"
)

// TopicAccelerometer carries sample events
const TopicAccelerometer = "accelerometer"

// Event is the unit of fan-out between ingestion and live consumers
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventHandler is invoked for each event delivered to a subscription.
// Handlers must not block; slow consumers should drop.
type EventHandler func(ctx context.Context, event Event) error

// EventBus publishes events to topic subscribers. A subscription ends when
// the context passed to Subscribe is cancelled.
type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Close() error
}
