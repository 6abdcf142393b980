package verifier

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCache_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := &memoryCache{m: map[string]cacheEntry{}, now: func() time.Time { return now }}

	c.Set("a.com", true, time.Minute)
	found, ok := c.Get("a.com")
	assert.True(t, ok)
	assert.True(t, found)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a.com")
	assert.False(t, ok)
	assert.Empty(t, c.m)
}

func TestMemoryCache_ExpiredEntriesDoNotAccumulate(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := &memoryCache{m: map[string]cacheEntry{}, now: func() time.Time { return now }}

	c.Set("old.com", false, time.Minute)
	c.Set("fresh.com", true, time.Hour)
	now = now.Add(2 * time.Minute)

	_, ok := c.Get("old.com")
	assert.False(t, ok)
	assert.NotContains(t, c.m, "old.com")
	assert.Contains(t, c.m, "fresh.com")
}

func TestMemoryCache_SetSweepsExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := &memoryCache{m: map[string]cacheEntry{}, now: func() time.Time { return now }}

	for i := 0; i < sweepThreshold; i++ {
		c.Set(fmt.Sprintf("d%d.com", i), false, time.Minute)
	}
	assert.Len(t, c.m, sweepThreshold)

	now = now.Add(2 * time.Minute)
	c.Set("new.com", true, time.Minute)
	assert.Len(t, c.m, 1)
	assert.Contains(t, c.m, "new.com")
}

type mapStore struct {
	data map[string][]byte
	err  error
}

func (s *mapStore) Get(key string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.data[key], nil
}

func (s *mapStore) Set(key string, val []byte, _ time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.data[key] = val
	return nil
}

func TestStorageCache_RoundTrip(t *testing.T) {
	store := &mapStore{data: map[string][]byte{}}
	c := NewStorageCache(store)

	c.Set("yes.com", true, time.Minute)
	c.Set("no.com", false, time.Minute)

	found, ok := c.Get("yes.com")
	assert.True(t, ok)
	assert.True(t, found)
	found, ok = c.Get("no.com")
	assert.True(t, ok)
	assert.False(t, found)
	_, ok = c.Get("unknown.com")
	assert.False(t, ok)
	assert.Contains(t, store.data, "mx:yes.com")
}

func TestStorageCache_StoreErrorIsMiss(t *testing.T) {
	c := NewStorageCache(&mapStore{data: map[string][]byte{}, err: errors.New("down")})
	c.Set("a.com", true, time.Minute)
	_, ok := c.Get("a.com")
	assert.False(t, ok)
}
