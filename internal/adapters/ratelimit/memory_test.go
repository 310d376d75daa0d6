package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterBlocksOverLimit(t *testing.T) {
	l := NewMemoryLimiter()
	ctx := context.Background()

	for i := range 3 {
		res, err := l.Allow(ctx, "vote:1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i+1)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := l.Allow(ctx, "vote:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	res, err = l.Allow(ctx, "vote:5.6.7.8", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestMemoryLimiterWindowSlides(t *testing.T) {
	l := NewMemoryLimiter()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	res, _ := l.Allow(ctx, "k", 1, time.Minute)
	require.True(t, res.Allowed)
	res, _ = l.Allow(ctx, "k", 1, time.Minute)
	require.False(t, res.Allowed)
	assert.Equal(t, now.Add(time.Minute), res.ResetAt)

	now = now.Add(time.Minute + time.Second)
	res, _ = l.Allow(ctx, "k", 1, time.Minute)
	assert.True(t, res.Allowed)
}

func TestMemoryLimiterPrune(t *testing.T) {
	l := NewMemoryLimiter()
	now := time.Now()
	l.now = func() time.Time { return now }

	_, _ = l.Allow(context.Background(), "old", 5, time.Minute)
	now = now.Add(2 * time.Minute)
	_, _ = l.Allow(context.Background(), "new", 5, time.Minute)

	l.Prune(time.Minute)
	assert.NotContains(t, l.windows, "old")
	assert.Contains(t, l.windows, "new")
}
