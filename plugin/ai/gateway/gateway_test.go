package gateway

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

func TestDoSuccess(t *testing.T) {
	g := New(WithBaseDelay(time.Millisecond))
	calls := 0

	result, err := Do(context.Background(), g, func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	require.Equal(t, "ok", result)
	require.Equal(t, 1, calls)
}

func TestDoRetriesTransientExactly(t *testing.T) {
	g := New(WithMaxRetries(3), WithBaseDelay(time.Millisecond))
	calls := 0

	_, err := Do(context.Background(), g, func(ctx context.Context) (int, error) {
		calls++
		return 0, &StatusError{Code: http.StatusServiceUnavailable}
	})

	require.Error(t, err)
	// retries+1 attempts total.
	require.Equal(t, 4, calls)
}

func TestDoRecoversAfterTransientFailures(t *testing.T) {
	base := 5 * time.Millisecond
	g := New(WithBaseDelay(base))
	calls := 0

	start := time.Now()
	result, err := Do(context.Background(), g, func(ctx context.Context) (string, error) {
		calls++
		if calls <= 2 {
			return "", &StatusError{Code: http.StatusTooManyRequests}
		}
		return "recovered", nil
	})

	require.NoError(t, err)
	require.Equal(t, "recovered", result)
	require.Equal(t, 3, calls)
	// Cumulative backoff is at least base + 2*base.
	require.GreaterOrEqual(t, time.Since(start), 3*base)
}

func TestDoDoesNotRetryPermanent(t *testing.T) {
	g := New(WithBaseDelay(time.Millisecond))
	calls := 0

	_, err := Do(context.Background(), g, func(ctx context.Context) (int, error) {
		calls++
		return 0, &openai.APIError{HTTPStatusCode: http.StatusBadRequest}
	})

	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	g := New(WithBaseDelay(time.Minute))
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Do(ctx, g, func(ctx context.Context) (int, error) {
		calls++
		return 0, &StatusError{Code: http.StatusBadGateway}
	})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	require.True(t, IsTransient(&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}))
	require.True(t, IsTransient(&openai.APIError{HTTPStatusCode: http.StatusBadGateway}))
	require.False(t, IsTransient(&openai.APIError{HTTPStatusCode: http.StatusUnauthorized}))
	require.True(t, IsTransient(errors.New("dial tcp: connection refused")))
	require.False(t, IsTransient(errors.New("invalid argument")))
	require.False(t, IsTransient(nil))
}
