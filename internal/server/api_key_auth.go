package server

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	applicationdomain "github.com/smallbiznis/paylane/internal/application/domain"
	obscontext "github.com/smallbiznis/paylane/internal/observability/context"
	obslogger "github.com/smallbiznis/paylane/internal/observability/logger"
	"github.com/smallbiznis/paylane/pkg/password"
	"go.uber.org/zap"
)

const contextApplicationIDKey = "application_id"

// APIKeyRequired authenticates tenant requests with a bearer API key.
// The application identity is derived solely from the key.
func (s *Server) APIKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		app, err := s.applicationSvc.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			if !errors.Is(err, applicationdomain.ErrInvalidAPIKey) && !errors.Is(err, applicationdomain.ErrInactive) {
				obslogger.FromContext(c.Request.Context()).Error("api key lookup failed", zap.Error(err))
			}
			AbortWithError(c, err)
			return
		}

		c.Set(contextApplicationIDKey, app.ID)
		ctx := obscontext.WithApplicationID(c.Request.Context(), app.ID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func applicationIDFromContext(c *gin.Context) snowflake.ID {
	value, ok := c.Get(contextApplicationIDKey)
	if !ok {
		return 0
	}
	id, _ := value.(snowflake.ID)
	return id
}

// AdminRequired guards application management with HTTP Basic credentials.
// Without a configured password hash every admin request is refused.
func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, secret, ok := c.Request.BasicAuth()
		if !ok || strings.TrimSpace(s.cfg.Admin.PasswordHash) == "" {
			c.Header("WWW-Authenticate", `Basic realm="paylane-admin"`)
			AbortWithError(c, ErrUnauthorized)
			return
		}

		userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Admin.Username)) == 1
		passOK := password.Verify(secret, s.cfg.Admin.PasswordHash)
		if !userOK || !passOK {
			obslogger.FromContext(c.Request.Context()).Warn("admin authentication failed",
				zap.String("client_ip", c.ClientIP()),
			)
			c.Header("WWW-Authenticate", `Basic realm="paylane-admin"`)
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}
