package token

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryBlacklist is an in-process revocation store for tests and
// single-instance deployments. A janitor goroutine drops expired entries
// so the map stays bounded by the number of live revocations.
type MemoryBlacklist struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	stop    chan struct{}
	once    sync.Once
}

func NewMemoryBlacklist(cleanupInterval time.Duration) *MemoryBlacklist {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	b := &MemoryBlacklist{
		entries: make(map[string]time.Time),
		stop:    make(chan struct{}),
	}
	go b.janitor(cleanupInterval)
	return b
}

func (b *MemoryBlacklist) Add(ctx context.Context, tokenString string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}
	key := hashToken(tokenString)
	b.mu.Lock()
	b.entries[key] = time.Now().Add(ttl)
	b.mu.Unlock()
	return nil
}

func (b *MemoryBlacklist) Contains(ctx context.Context, tokenString string) (bool, error) {
	key := hashToken(tokenString)
	b.mu.RLock()
	expiresAt, ok := b.entries[key]
	b.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return time.Now().Before(expiresAt), nil
}

// Len reports the number of stored entries, including ones the janitor
// has not collected yet.
func (b *MemoryBlacklist) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

func (b *MemoryBlacklist) Close() {
	b.once.Do(func() { close(b.stop) })
}

func (b *MemoryBlacklist) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			b.mu.Lock()
			for key, expiresAt := range b.entries {
				if now.After(expiresAt) {
					delete(b.entries, key)
				}
			}
			b.mu.Unlock()
		case <-b.stop:
			return
		}
	}
}
