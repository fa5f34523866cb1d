package ratelimit

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/paylane/internal/clock"
	"github.com/smallbiznis/paylane/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("rate.limit",
	fx.Provide(newApplicationLimiter),
	fx.Provide(NewLocker),
)

type limiterParams struct {
	fx.In

	Config config.Config
	Redis  *redis.Client `optional:"true"`
}

func newApplicationLimiter(p limiterParams) (*ApplicationLimiter, error) {
	return NewApplicationLimiter(p.Config, p.Redis)
}

type lockerParams struct {
	fx.In

	Redis *redis.Client `optional:"true"`
	Clock clock.Clock
}

// NewLocker prefers Redis so that only one replica holds a lease.
func NewLocker(p lockerParams) Locker {
	if p.Redis != nil {
		return NewRedisLocker(p.Redis)
	}
	return NewLocalLocker(p.Clock.Now)
}
