package kv

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectOption configures OpenRedis.
type ConnectOption func(*connectOptions)

type connectOptions struct {
	poolSize      int
	retryAttempts int
	retryInterval time.Duration
	dialTimeout   time.Duration
	ioTimeout     time.Duration
}

// WithPoolSize sets the maximum number of pooled connections.
// Default: 4
func WithPoolSize(n int) ConnectOption {
	return func(o *connectOptions) {
		o.poolSize = n
	}
}

// WithRetry configures connection retries with linear backoff.
// Default: 3 attempts, 1 second base interval.
func WithRetry(attempts int, interval time.Duration) ConnectOption {
	return func(o *connectOptions) {
		o.retryAttempts = attempts
		o.retryInterval = interval
	}
}

// WithTimeouts sets dial and read/write timeouts.
func WithTimeouts(dial, io time.Duration) ConnectOption {
	return func(o *connectOptions) {
		o.dialTimeout = dial
		o.ioTimeout = io
	}
}

// OpenRedis connects to the server at url (redis:// or rediss://) and verifies
// the connection with PING, retrying transient failures.
func OpenRedis(ctx context.Context, url string, opts ...ConnectOption) (redis.UniversalClient, error) {
	if url == "" {
		return nil, ErrEmptyConnectionURL
	}
	if !strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
		return nil, ErrFailedToParseURL
	}

	o := &connectOptions{
		poolSize:      4,
		retryAttempts: 3,
		retryInterval: time.Second,
		dialTimeout:   5 * time.Second,
		ioTimeout:     3 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}

	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseURL, err)
	}
	redisOpts.PoolSize = o.poolSize
	redisOpts.DialTimeout = o.dialTimeout
	redisOpts.ReadTimeout = o.ioTimeout
	redisOpts.WriteTimeout = o.ioTimeout

	var lastErr error
	for i := range max(o.retryAttempts, 1) {
		client := redis.NewClient(redisOpts)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrConnectionFailed, ctx.Err())
		case <-time.After(time.Duration(i+1) * o.retryInterval):
		}
	}

	return nil, errors.Join(ErrConnectionFailed, lastErr)
}
