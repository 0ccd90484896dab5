package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2,
	}
}

func TestDoVal(t *testing.T) {
	t.Parallel()

	t.Run("success on first attempt", func(t *testing.T) {
		t.Parallel()
		calls := 0
		v, err := DoVal(context.Background(), fastPolicy(3), "op", func(ctx context.Context) (int, error) {
			calls++
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, v)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient errors", func(t *testing.T) {
		t.Parallel()
		calls := 0
		v, err := DoVal(context.Background(), fastPolicy(3), "op", func(ctx context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", NewTransientError(eris.New("try again"), 503)
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent errors do not retry", func(t *testing.T) {
		t.Parallel()
		calls := 0
		_, err := DoVal(context.Background(), fastPolicy(3), "op", func(ctx context.Context) (int, error) {
			calls++
			return 0, eris.New("bad request")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		t.Parallel()
		calls := 0
		_, err := DoVal(context.Background(), fastPolicy(3), "op", func(ctx context.Context) (int, error) {
			calls++
			return 0, NewTransientError(eris.New("still down"), 502)
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("cancelled context stops retries", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := DoVal(ctx, fastPolicy(5), "op", func(ctx context.Context) (int, error) {
			calls++
			cancel()
			return 0, NewTransientError(eris.New("transient"), 503)
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("custom ShouldRetry overrides default", func(t *testing.T) {
		t.Parallel()
		pol := fastPolicy(3)
		pol.ShouldRetry = func(error) bool { return true }

		calls := 0
		_, err := DoVal(context.Background(), pol, "op", func(ctx context.Context) (int, error) {
			calls++
			return 0, eris.New("normally permanent")
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})
}

func TestDo(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), fastPolicy(2), "op", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return NewTransientError(eris.New("flaky"), 500)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestBackoffBounds(t *testing.T) {
	t.Parallel()

	pol := applyDefaults(Policy{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		Multiplier:     2,
		JitterFraction: 0.25,
	})

	for attempt := range 10 {
		d := backoff(attempt, pol)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second+time.Second/4)
	}
}
