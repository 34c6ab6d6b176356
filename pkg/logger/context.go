package logger

import (
	"context"
	"log/slog"
)

type (
	requestIDKey struct{}
	usernameKey  struct{}
)

// WithRequestID stores a request id for RequestIDExtractor.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored in ctx.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// WithUsername stores the authenticated username for UsernameExtractor.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey{}, username)
}

// Username returns the username stored in ctx.
func Username(ctx context.Context) string {
	v, _ := ctx.Value(usernameKey{}).(string)
	return v
}

// RequestIDExtractor adds "request_id" to records.
func RequestIDExtractor() ContextExtractor {
	return stringExtractor("request_id", RequestID)
}

// UsernameExtractor adds "username" to records.
func UsernameExtractor() ContextExtractor {
	return stringExtractor("username", Username)
}

func stringExtractor(key string, get func(context.Context) string) ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v := get(ctx); v != "" {
			return slog.String(key, v), true
		}
		return slog.Attr{}, false
	}
}
