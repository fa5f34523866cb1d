package events

import (
	"context"
	"errors"

	redis "github.com/redis/go-redis/v9"
)

var ErrTransportUnavailable = errors.New("event_transport_unavailable")

// Transport delivers an encoded event to a channel. Implementations must be
// safe for concurrent use.
type Transport interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisTransport publishes with Redis PUBLISH on a shared client.
type RedisTransport struct {
	client *redis.Client
}

func NewRedisTransport(client *redis.Client) *RedisTransport {
	return &RedisTransport{client: client}
}

func (t *RedisTransport) Publish(ctx context.Context, channel string, payload []byte) error {
	if t == nil || t.client == nil {
		return ErrTransportUnavailable
	}
	return t.client.Publish(ctx, channel, payload).Err()
}
