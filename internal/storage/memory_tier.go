package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/coocood/freecache"
)

const (
	megabyte = 1024 * 1024

	MemoryTierName = "ephemeral"
)

// MemoryTier is the ephemeral tier: gone when the process exits.
type MemoryTier struct {
	cache *freecache.Cache
}

func NewMemoryTier(sizeMB int) *MemoryTier {
	if sizeMB <= 0 {
		sizeMB = 1
	}
	return &MemoryTier{
		cache: freecache.NewCache(sizeMB * megabyte),
	}
}

func (t *MemoryTier) Name() string  { return MemoryTierName }
func (t *MemoryTier) Durable() bool { return false }

func (t *MemoryTier) Get(_ context.Context, key string) (string, error) {
	val, err := t.cache.Get([]byte(key))
	if err != nil {
		if errors.Is(err, freecache.ErrNotFound) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("memory tier get %s: %w", key, err)
	}
	return string(val), nil
}

func (t *MemoryTier) Set(_ context.Context, key, value string) error {
	// no expiry, the entry lives until deleted or evicted
	if err := t.cache.Set([]byte(key), []byte(value), 0); err != nil {
		return fmt.Errorf("memory tier set %s: %w", key, err)
	}
	return nil
}

func (t *MemoryTier) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		t.cache.Del([]byte(key))
	}
	return nil
}
