package events

import (
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/paylane/internal/clock"
	"github.com/smallbiznis/paylane/internal/config"
	"github.com/smallbiznis/paylane/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("events",
	fx.Provide(NewTransport),
	fx.Provide(newPublisher),
)

type TransportParams struct {
	fx.In

	Config config.Config
	Redis  *redis.Client `optional:"true"`
	Log    *zap.Logger
}

// NewTransport picks the transport named by EVENTS_TRANSPORT.
func NewTransport(p TransportParams) (Transport, error) {
	switch p.Config.EventsTransport {
	case config.EventsTransportMemory:
		p.Log.Info("events transport selected", zap.String("transport", config.EventsTransportMemory))
		return NewMemoryTransport(), nil
	case config.EventsTransportRedis, "":
		if p.Redis == nil {
			p.Log.Warn("redis not configured, events stay in process", zap.String("transport", config.EventsTransportMemory))
			return NewMemoryTransport(), nil
		}
		p.Log.Info("events transport selected", zap.String("transport", config.EventsTransportRedis))
		return NewRedisTransport(p.Redis), nil
	default:
		return nil, fmt.Errorf("unknown events transport %q", p.Config.EventsTransport)
	}
}

type publisherParams struct {
	fx.In

	Transport Transport
	Clock     clock.Clock
	Log       *zap.Logger
	Metrics   *metrics.Metrics `optional:"true"`
}

func newPublisher(p publisherParams) *Publisher {
	return NewPublisher(p.Transport, p.Clock, p.Log, p.Metrics)
}
