package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterWindow(t *testing.T) {
	limiter := NewMemoryLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := limiter.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, ok)

	// Other keys have their own window.
	ok, err = limiter.Allow(ctx, "198.51.100.9")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLimiterPrunesOldHits(t *testing.T) {
	limiter := NewMemoryLimiter(2, 50*time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	time.Sleep(60 * time.Millisecond)

	ok, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)

	limiter, err := NewRedisLimiter(fmt.Sprintf("redis://%s", mr.Addr()), 2, time.Minute)
	require.NoError(t, err)
	defer limiter.Close()

	ctx := context.Background()
	ok, err := limiter.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = limiter.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = limiter.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisLimiterBadURL(t *testing.T) {
	_, err := NewRedisLimiter("not-a-url", 1, time.Minute)
	assert.Error(t, err)
}
