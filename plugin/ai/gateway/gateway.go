// Package gateway wraps every outbound network call (model inference,
// web search, passage retrieval, transcript persistence) with bounded
// exponential-backoff retry. It is the single place retry policy lives.
package gateway

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3
	// DefaultBaseDelay is the first backoff delay; it doubles per attempt.
	DefaultBaseDelay = 300 * time.Millisecond
)

// Gateway holds the retry policy shared by all executors and the
// transcript store adapter.
type Gateway struct {
	maxRetries int
	baseDelay  time.Duration
	limiter    *rate.Limiter
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithMaxRetries sets the number of retries after the first attempt.
func WithMaxRetries(n int) Option {
	return func(g *Gateway) {
		g.maxRetries = n
	}
}

// WithBaseDelay sets the initial backoff delay.
func WithBaseDelay(d time.Duration) Option {
	return func(g *Gateway) {
		g.baseDelay = d
	}
}

// WithRateLimit throttles wrapped calls to r per second with the given
// burst. Used to keep a single process from hammering the model backend.
func WithRateLimit(r float64, burst int) Option {
	return func(g *Gateway) {
		g.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// New creates a Gateway with the given options.
func New(opts ...Option) *Gateway {
	g := &Gateway{
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Do executes fn, retrying transient failures with exponential backoff
// (base, 2*base, 4*base, ...). The operation runs at most maxRetries+1
// times. Non-transient failures propagate immediately.
func Do[T any](ctx context.Context, g *Gateway, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return zero, err
			}
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsTransient(err) {
			return zero, err
		}
		if attempt == g.maxRetries {
			break
		}

		delay := g.baseDelay << uint(attempt)
		slog.Debug("transient failure, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}
