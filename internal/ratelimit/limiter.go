package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/paylane/internal/config"
	"golang.org/x/time/rate"
)

const keyApplicationRequests = "paylane:ratelimit:app:%s"

// ApplicationLimiter throttles API calls per tenant application.
type ApplicationLimiter struct {
	enabled bool
	rate    float64
	burst   int

	bucket *TokenBucket

	mu    sync.Mutex
	local map[string]*rate.Limiter
}

func NewApplicationLimiter(cfg config.Config, client *redis.Client) (*ApplicationLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return &ApplicationLimiter{}, nil
	}
	if limitCfg.Rate <= 0 || limitCfg.Burst <= 0 {
		return nil, fmt.Errorf("rate limit rate and burst must be positive")
	}
	return &ApplicationLimiter{
		enabled: true,
		rate:    limitCfg.Rate,
		burst:   limitCfg.Burst,
		bucket:  NewTokenBucket(client),
		local:   make(map[string]*rate.Limiter),
	}, nil
}

func (l *ApplicationLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// Allow spends one token for appID. Without Redis each process keeps its own
// buckets.
func (l *ApplicationLimiter) Allow(ctx context.Context, appID string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	appID = strings.TrimSpace(appID)
	if l.bucket != nil {
		return l.bucket.Allow(ctx, fmt.Sprintf(keyApplicationRequests, appID), l.rate, l.burst)
	}
	return l.allowLocal(appID), nil
}

func (l *ApplicationLimiter) allowLocal(appID string) *Result {
	l.mu.Lock()
	limiter, ok := l.local[appID]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(l.rate), l.burst)
		l.local[appID] = limiter
	}
	l.mu.Unlock()

	now := time.Now()
	reservation := limiter.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	if delay > 0 {
		reservation.CancelAt(now)
		return &Result{Allowed: false, Limit: l.burst, RetryAfter: delay}
	}
	return &Result{Allowed: true, Limit: l.burst, Remaining: int(limiter.TokensAt(now))}
}
