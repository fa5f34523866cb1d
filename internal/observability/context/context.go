package context

import (
	"context"
	"strings"
)

type ctxKey string

const (
	requestIDKey     ctxKey = "request_id"
	applicationIDKey ctxKey = "application_id"
)

// WithRequestID stores the request identifier used for log correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

// WithApplicationID stores the authenticated tenant application.
func WithApplicationID(ctx context.Context, applicationID string) context.Context {
	applicationID = strings.TrimSpace(applicationID)
	if applicationID == "" {
		return ctx
	}
	return context.WithValue(ctx, applicationIDKey, applicationID)
}

func ApplicationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(applicationIDKey).(string)
	return value
}
