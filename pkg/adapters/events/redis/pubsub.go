package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aescanero/seismo/pkg/ports"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PubSubEventBus implements EventBus using Redis Pub/Sub.
// Messages are fire-and-forget: nothing is retained for late subscribers.
type PubSubEventBus struct {
	client *redis.Client
	logger *zap.Logger

	mu     sync.Mutex
	subs   map[*redis.PubSub]struct{}
	closed bool
}

// NewPubSubEventBus creates a new Redis Pub/Sub event bus
func NewPubSubEventBus(client *redis.Client, logger *zap.Logger) *PubSubEventBus {
	return &PubSubEventBus{
		client: client,
		logger: logger,
		subs:   make(map[*redis.PubSub]struct{}),
	}
}

// Publish publishes an event to the topic channel
func (e *PubSubEventBus) Publish(ctx context.Context, topic string, event ports.Event) error {
	channel := getChannelKey(topic)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	receivers, err := e.client.Publish(ctx, channel, data).Result()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	e.logger.Debug("event published",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("channel", channel),
		zap.Int64("receivers", receivers))

	return nil
}

// Subscribe subscribes to a topic until ctx is cancelled. It returns once
// Redis has confirmed the subscription.
func (e *PubSubEventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	channel := getChannelKey(topic)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return fmt.Errorf("event bus closed")
	}
	e.mu.Unlock()

	ps := e.client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	if !e.track(ps) {
		_ = ps.Close()
		return fmt.Errorf("event bus closed")
	}

	e.logger.Info("subscribed to event channel",
		zap.String("channel", channel),
		zap.String("topic", topic))

	go e.readChannel(ctx, ps, channel, handler)

	return nil
}

// readChannel dispatches messages from a subscription
func (e *PubSubEventBus) readChannel(ctx context.Context, ps *redis.PubSub, channel string, handler ports.EventHandler) {
	defer e.release(ps)

	messages := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			e.processMessage(ctx, channel, msg, handler)
		}
	}
}

// processMessage decodes and hands a single message to the handler
func (e *PubSubEventBus) processMessage(ctx context.Context, channel string, msg *redis.Message, handler ports.EventHandler) {
	var event ports.Event
	if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
		e.logger.Error("failed to unmarshal event",
			zap.String("channel", channel),
			zap.Error(err))
		return
	}

	if err := handler(ctx, event); err != nil {
		e.logger.Warn("handler error",
			zap.String("channel", channel),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}

// Close ends all subscriptions. The Redis client is owned by the caller.
func (e *PubSubEventBus) Close() error {
	e.mu.Lock()
	e.closed = true
	subs := make([]*redis.PubSub, 0, len(e.subs))
	for ps := range e.subs {
		subs = append(subs, ps)
	}
	e.subs = make(map[*redis.PubSub]struct{})
	e.mu.Unlock()

	for _, ps := range subs {
		if err := ps.Close(); err != nil {
			e.logger.Warn("failed to close subscription", zap.Error(err))
		}
	}
	return nil
}

// track registers ps for Close. It reports false once the bus is closed.
func (e *PubSubEventBus) track(ps *redis.PubSub) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false
	}
	e.subs[ps] = struct{}{}
	return true
}

func (e *PubSubEventBus) release(ps *redis.PubSub) {
	e.mu.Lock()
	_, tracked := e.subs[ps]
	delete(e.subs, ps)
	e.mu.Unlock()

	if tracked {
		_ = ps.Close()
	}
}

// getChannelKey returns the Redis channel for a topic
func getChannelKey(topic string) string {
	return fmt.Sprintf("seismo:events:%s", topic)
}
