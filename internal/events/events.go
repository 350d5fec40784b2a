// Package events publishes domain events on Redis pub/sub for the gateway's
// live feed. Publishing is fire-and-forget: failures are logged, never
// returned to the operation that produced the event.
package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channels, one per event type.
const (
	JobCreated               = "EVENT_JOB_CREATED"
	JobStatusChanged         = "EVENT_JOB_STATUS_CHANGED"
	ApplicationCreated       = "EVENT_APPLICATION_CREATED"
	ApplicationStatusChanged = "EVENT_APPLICATION_STATUS_CHANGED"
)

// Publisher is what the engines publish through.
type Publisher interface {
	Publish(ctx context.Context, channel string, fields map[string]string)
}

// RedisPublisher publishes JSON payloads with a "type" field set to the channel.
type RedisPublisher struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisPublisher(rdb *redis.Client, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, logger: logger}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, fields map[string]string) {
	payload := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["type"] = channel

	event, err := json.Marshal(payload)
	if err != nil {
		p.logger.Warn("marshal event failed", zap.String("channel", channel), zap.Error(err))
		return
	}
	if err := p.rdb.Publish(ctx, channel, event).Err(); err != nil {
		p.logger.Warn("publish event failed", zap.String("channel", channel), zap.Error(err))
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, string, map[string]string) {}
