package limiter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rohmanhakim/site-search/pkg/limiter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentRateLimiter_DisabledNeverBlocks(t *testing.T) {
	rl := limiter.NewConcurrentRateLimiter(0, 1)

	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, rl.Wait(context.Background(), "example.com"))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, 0, rl.HostCount())
}

func TestConcurrentRateLimiter_PacesSameHost(t *testing.T) {
	// 20 req/s with burst 1: the third call must wait roughly 2 intervals
	rl := limiter.NewConcurrentRateLimiter(20, 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Wait(context.Background(), "example.com"))
	}
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestConcurrentRateLimiter_HostsAreIndependent(t *testing.T) {
	rl := limiter.NewConcurrentRateLimiter(1, 1)

	start := time.Now()
	require.NoError(t, rl.Wait(context.Background(), "a.example.com"))
	require.NoError(t, rl.Wait(context.Background(), "b.example.com"))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 2, rl.HostCount())
}

func TestConcurrentRateLimiter_CancelledContext(t *testing.T) {
	rl := limiter.NewConcurrentRateLimiter(0.1, 1)
	require.NoError(t, rl.Wait(context.Background(), "example.com"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx, "example.com")
	assert.Error(t, err)
}

func TestConcurrentRateLimiter_ConcurrentAccess(t *testing.T) {
	rl := limiter.NewConcurrentRateLimiter(1000, 10)
	hosts := []string{"a", "b", "c", "d"}

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, rl.Wait(context.Background(), hosts[i%len(hosts)]))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, len(hosts), rl.HostCount())
}

func TestNoopRateLimiter(t *testing.T) {
	var rl limiter.RateLimiter = limiter.NoopRateLimiter{}
	assert.NoError(t, rl.Wait(context.Background(), "example.com"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, rl.Wait(ctx, "example.com"), context.Canceled)
}
