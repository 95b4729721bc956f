package ratelimit

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fortislabs/fortis/internal/common"
	"github.com/stretchr/testify/require"
)

func TestLimiter_AllowsUpToCeiling(t *testing.T) {
	l := NewLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Allow("10.0.0.1"), "request %d should pass", i+1)
	}

	err := l.Allow("10.0.0.1")
	require.ErrorIs(t, err, common.ErrRateLimitExceeded)

	// Further requests stay rejected within the window.
	require.ErrorIs(t, l.Allow("10.0.0.1"), common.ErrRateLimitExceeded)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := NewLimiter(1, time.Minute)

	require.NoError(t, l.Allow("a"))
	require.ErrorIs(t, l.Allow("a"), common.ErrRateLimitExceeded)
	require.NoError(t, l.Allow("b"))
}

func TestLimiter_WindowReset(t *testing.T) {
	l := NewLimiter(2, time.Minute)

	current := time.Now()
	l.now = func() time.Time { return current }

	require.NoError(t, l.Allow("k"))
	require.NoError(t, l.Allow("k"))
	require.ErrorIs(t, l.Allow("k"), common.ErrRateLimitExceeded)

	// Once the window elapses a new one starts with count=1.
	current = current.Add(61 * time.Second)
	require.NoError(t, l.Allow("k"))
	require.NoError(t, l.Allow("k"))
	require.ErrorIs(t, l.Allow("k"), common.ErrRateLimitExceeded)
}

func TestLimiter_ConcurrentCountNeverExceedsCeiling(t *testing.T) {
	const ceiling = 50
	l := NewLimiter(ceiling, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed, rejected := 0, 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Allow("shared")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				allowed++
			} else if errors.Is(err, common.ErrRateLimitExceeded) {
				rejected++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, ceiling, allowed)
	require.Equal(t, 200-ceiling, rejected)
}

func TestLimiter_Sweep(t *testing.T) {
	l := NewLimiter(5, time.Minute)

	current := time.Now()
	l.now = func() time.Time { return current }

	require.NoError(t, l.Allow("old"))
	current = current.Add(2 * time.Minute)
	require.NoError(t, l.Allow("fresh"))

	l.Sweep(current)

	l.mu.Lock()
	defer l.mu.Unlock()
	require.NotContains(t, l.windows, "old")
	require.Contains(t, l.windows, "fresh")
}
