package server

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	obslogger "github.com/smallbiznis/paylane/internal/observability/logger"
	"go.uber.org/zap"
)

// ApplicationRateLimit spends one token of the caller's bucket per request.
// It must run after APIKeyRequired.
func (s *Server) ApplicationRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil || !s.limiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		appID := applicationIDFromContext(c)
		if appID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		res, err := s.limiter.Allow(ctx, appID.String())
		if err != nil {
			// Fail open when the limiter backend is unreachable.
			obslogger.FromContext(ctx).Warn("rate limit check failed", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			endpoint := normalizeRateLimitEndpoint(c)
			obslogger.FromContext(ctx).Warn("rate limit exceeded", zap.String("endpoint", endpoint))
			s.obsMetrics.RecordRateLimitDenied(ctx, endpoint)

			retry := int(math.Ceil(res.RetryAfter.Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
