package realtime

import (
	"context"
	"encoding/json"
	"time"

	"agrirent-booking/logger"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes booking transition events. Delivery is best-effort,
// at-most-once: REST remains the reconciliation source of truth for clients
// that miss events.
type Notifier interface {
	Publish(channel string, event Event)
}

// RedisNotifier fans events out through Redis pub/sub so every hub instance
// sees them regardless of which instance handled the HTTP request.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) Publish(channel string, event Event) {
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal realtime event", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Fire-and-forget: a failed publish is not retried
	if err := n.client.Publish(ctx, channel, data).Err(); err != nil {
		logger.Error("Failed to publish realtime event on "+channel, err)
	}
}

// NopNotifier discards events. Used when Redis is not configured.
type NopNotifier struct{}

func (NopNotifier) Publish(channel string, event Event) {}
