package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher pushes events onto per-user pub/sub channels
// (sms:events:<user>), where connected sessions pick them up. Any delivery
// failure is logged and swallowed; publishing is a side effect of the
// triggering write, never part of it.
type RedisPublisher struct {
	rdb      *redis.Client
	audience AudienceProvider
	logger   *slog.Logger
}

func NewRedisPublisher(rdb *redis.Client, audience AudienceProvider, logger *slog.Logger) *RedisPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisPublisher{
		rdb:      rdb,
		audience: audience,
		logger:   logger.With(slog.String("component", "notify")),
	}
}

// UserChannel is the pub/sub channel carrying events for one user.
func UserChannel(user string) string {
	return fmt.Sprintf("sms:events:%s", user)
}

type envelope struct {
	Event   string `json:"event"`
	Message any    `json:"message"`
}

func (p *RedisPublisher) NewSMS(ctx context.Context, ev NewSMSEvent) {
	p.fanOut(ctx, EventNewSMS, ev)
}

func (p *RedisPublisher) UnreadCount(ctx context.Context, count int) {
	p.fanOut(ctx, EventUnreadCount, UnreadCountEvent{NewCount: count})
}

func (p *RedisPublisher) fanOut(ctx context.Context, event string, message any) {
	users, err := p.audience.Subscribers(ctx)
	if err != nil {
		p.logger.Error("audience lookup failed", "event", event, "error", err)
		return
	}

	payload, err := json.Marshal(envelope{Event: event, Message: message})
	if err != nil {
		p.logger.Error("event marshal failed", "event", event, "error", err)
		return
	}

	for _, user := range users {
		if err := p.rdb.Publish(ctx, UserChannel(user), payload).Err(); err != nil {
			p.logger.Error("event delivery failed", "event", event, "user", user, "error", err)
		}
	}
}
