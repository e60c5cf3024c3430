package crawl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRetryDelays(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, DefaultRetryDelays())
}

func TestFetchWithRetry(t *testing.T) {
	t.Parallel()

	t.Run("returns on first success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		fetch := func(_ context.Context, url string) (string, error) {
			calls++
			return "ok", nil
		}

		html, err := fetchWithRetry(context.Background(), "https://a.example", fetch, DefaultRetryDelays())

		require.NoError(t, err)
		assert.Equal(t, "ok", html)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries once per delay then returns the last error", func(t *testing.T) {
		t.Parallel()

		calls := 0
		fetch := func(_ context.Context, url string) (string, error) {
			calls++
			return "", errors.New("boom")
		}

		delays := []time.Duration{time.Millisecond, time.Millisecond}
		_, err := fetchWithRetry(context.Background(), "https://a.example", fetch, delays)

		require.EqualError(t, err, "boom")
		assert.Equal(t, 3, calls)
	})

	t.Run("no delays means a single attempt", func(t *testing.T) {
		t.Parallel()

		calls := 0
		fetch := func(_ context.Context, url string) (string, error) {
			calls++
			return "", errors.New("boom")
		}

		_, err := fetchWithRetry(context.Background(), "https://a.example", fetch, nil)

		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancellation interrupts the backoff", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		fetch := func(_ context.Context, url string) (string, error) {
			cancel()
			return "", errors.New("boom")
		}

		_, err := fetchWithRetry(ctx, "https://a.example", fetch, []time.Duration{time.Minute})

		require.ErrorIs(t, err, context.Canceled)
	})
}
