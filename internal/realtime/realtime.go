// Package realtime publishes fire-and-forget events over Redis pub/sub.
// Delivery is best-effort: callers log publish failures and move on.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Publisher interface {
	Publish(ctx context.Context, channel, event string, payload any) error
}

// NotificationChannel is the per-user channel notification pushes go to.
func NotificationChannel(recipientID uuid.UUID) string {
	return "notifications:" + recipientID.String()
}

type message struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel, event string, payload any) error {
	if p == nil || p.rdb == nil {
		return fmt.Errorf("redis publisher not initialized")
	}

	raw, err := json.Marshal(message{Event: event, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to encode realtime payload: %w", err)
	}
	return p.rdb.Publish(ctx, channel, raw).Err()
}
