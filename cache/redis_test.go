package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter/verifier"
)

func setupRedis(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStorage(RedisConfig{Address: mr.Addr()})
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStorage_GetSet(t *testing.T) {
	s, _ := setupRedis(t)
	require.NoError(t, s.Ping(context.Background()))

	val, err := s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, s.Set("k", []byte("v"), time.Minute))
	val, err = s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)

	require.NoError(t, s.Set("", []byte("v"), time.Minute))
	val, err = s.Get("")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestRedisStorage_Expiry(t *testing.T) {
	s, mr := setupRedis(t)

	require.NoError(t, s.Set("k", []byte("v"), time.Minute))
	mr.FastForward(2 * time.Minute)

	val, err := s.Get("k")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestRedisStorage_AsDomainCache(t *testing.T) {
	s, mr := setupRedis(t)
	c := verifier.NewStorageCache(s)

	c.Set("gmail.com", true, 10*time.Minute)
	c.Set("nowhere.invalid", false, 10*time.Minute)

	found, ok := c.Get("gmail.com")
	assert.True(t, ok)
	assert.True(t, found)
	found, ok = c.Get("nowhere.invalid")
	assert.True(t, ok)
	assert.False(t, found)

	assert.True(t, mr.Exists("mx:gmail.com"))
	assert.Equal(t, 10*time.Minute, mr.TTL("mx:gmail.com"))
}

func TestRedisStorage_Unreachable(t *testing.T) {
	s, mr := setupRedis(t)
	mr.Close()

	_, err := s.Get("k")
	assert.Error(t, err)

	c := verifier.NewStorageCache(s)
	_, ok := c.Get("gmail.com")
	assert.False(t, ok)
}
