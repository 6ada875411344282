package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
)

// RedisBus relays complaint updates through Redis pub/sub so that every API instance
// can serve live subscribers regardless of which instance committed the change.
type RedisBus struct {
	client *redis.Client
	hub    *Hub
	prefix string
	logger *zap.Logger
}

// NewRedisBus wires a bus that forwards received messages into hub.
func NewRedisBus(client *redis.Client, hub *Hub, prefix string, logger *zap.Logger) *RedisBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBus{client: client, hub: hub, prefix: prefix, logger: logger}
}

// Publish sends msg to every instance listening on topic.
func (b *RedisBus) Publish(ctx context.Context, topic string, msg models.RealtimeMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode live update: %w", err)
	}
	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", topic, err)
	}
	return nil
}

// Pattern is the channel pattern the bus listens on.
func (b *RedisBus) Pattern() string {
	if b.prefix == "" {
		return "*"
	}
	return b.prefix + ":*"
}

// Run listens until ctx is cancelled, forwarding every message into the local hub.
func (b *RedisBus) Run(ctx context.Context) error {
	pubsub := b.client.PSubscribe(ctx, b.Pattern())
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis psubscribe %s: %w", b.Pattern(), err)
	}
	b.logger.Info("live update relay started", zap.String("pattern", b.Pattern()))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return errors.New("redis subscription closed")
			}
			b.deliver(ctx, m.Channel, []byte(m.Payload))
		}
	}
}

func (b *RedisBus) deliver(ctx context.Context, topic string, payload []byte) {
	var msg models.RealtimeMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		b.logger.Warn("discarding malformed live update", zap.String("topic", topic), zap.Error(err))
		return
	}
	if err := b.hub.Publish(ctx, topic, msg); err != nil {
		b.logger.Debug("live update not delivered", zap.String("topic", topic), zap.Error(err))
	}
}
