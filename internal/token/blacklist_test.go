package token

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBlacklistAddContains(t *testing.T) {
	b := NewMemoryBlacklist(time.Minute)
	defer b.Close()
	ctx := context.Background()

	require.NoError(t, b.Add(ctx, "some-token", time.Minute))

	revoked, err := b.Contains(ctx, "some-token")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = b.Contains(ctx, "other-token")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryBlacklistRejectsNonPositiveTTL(t *testing.T) {
	b := NewMemoryBlacklist(time.Minute)
	defer b.Close()
	ctx := context.Background()

	assert.Error(t, b.Add(ctx, "dead-token", 0))
	assert.Error(t, b.Add(ctx, "dead-token", -time.Second))
	assert.Equal(t, 0, b.Len())
}

func TestMemoryBlacklistEntryExpires(t *testing.T) {
	b := NewMemoryBlacklist(time.Minute)
	defer b.Close()
	ctx := context.Background()

	require.NoError(t, b.Add(ctx, "short-lived", 10*time.Millisecond))
	time.Sleep(25 * time.Millisecond)

	revoked, err := b.Contains(ctx, "short-lived")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryBlacklistJanitorCleansUp(t *testing.T) {
	b := NewMemoryBlacklist(20 * time.Millisecond)
	defer b.Close()
	ctx := context.Background()

	require.NoError(t, b.Add(ctx, "short-lived", 5*time.Millisecond))
	require.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestMemoryBlacklistConcurrentAccess(t *testing.T) {
	b := NewMemoryBlacklist(time.Minute)
	defer b.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = b.Add(ctx, fmt.Sprintf("token-%d", n), time.Minute)
		}(i)
		go func(n int) {
			defer wg.Done()
			_, _ = b.Contains(ctx, fmt.Sprintf("token-%d", n))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, b.Len())
}
