package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_Wait(t *testing.T) {
	t.Run("allows burst immediately", func(t *testing.T) {
		limiter := New(2.0, 4)
		ctx := context.Background()

		start := time.Now()
		for i := 0; i < 4; i++ {
			require.NoError(t, limiter.Wait(ctx), "burst request %d", i+1)
		}
		assert.Less(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("blocks beyond burst until deadline", func(t *testing.T) {
		limiter := New(1.0, 1)
		require.NoError(t, limiter.Wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := limiter.Wait(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limiter")
	})

	t.Run("canceled context", func(t *testing.T) {
		limiter := New(0.001, 1)
		require.NoError(t, limiter.Wait(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := limiter.Wait(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := New(0, 0)

	for i := 0; i < 100; i++ {
		assert.True(t, limiter.Allow())
	}
	assert.NoError(t, limiter.Wait(context.Background()))
}

func TestLimiter_Accessors(t *testing.T) {
	limiter := New(2.5, 0)

	assert.Equal(t, 2.5, limiter.Limit())
	assert.Equal(t, 1, limiter.Burst())
}
