package realtime

import (
	"context"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

const relayChannelPrefix = "realtime:"

// RedisRelay carries published bodies over Redis pub/sub so that each instance
// delivers them to its own sessions.
type RedisRelay struct {
	client *redis.Client
}

func NewRedisRelay(client *redis.Client) *RedisRelay {
	return &RedisRelay{client: client}
}

func (r *RedisRelay) Publish(ctx context.Context, destination string, body []byte) error {
	return r.client.Publish(ctx, relayChannelPrefix+destination, body).Err()
}

// Start subscribes to every relay channel and calls deliver for each message
// until ctx is done. It returns once the subscription is confirmed.
func (r *RedisRelay) Start(ctx context.Context, deliver func(destination string, body []byte)) error {
	ps := r.client.PSubscribe(ctx, relayChannelPrefix+"*")
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return err
	}
	ch := ps.Channel()
	go func() {
		defer ps.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					slog.Warn("realtime relay channel closed")
					return
				}
				deliver(strings.TrimPrefix(msg.Channel, relayChannelPrefix), []byte(msg.Payload))
			}
		}
	}()
	return nil
}
