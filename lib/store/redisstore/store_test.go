package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/lib/store/storetest"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (store.ILeaseStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, ""), mr
}

func TestRedisStoreConformance(t *testing.T) {
	// miniredis only expires keys when told to, so adding time means
	// fast-forwarding the server
	var mr *miniredis.Miniredis
	storetest.Run(t, "redisstore", storetest.Harness{
		New: func(t *testing.T) store.ILeaseStore {
			s, m := setupStore(t)
			mr = m
			return s
		},
		Advance: func(t *testing.T, d time.Duration) { mr.FastForward(d) },
	})
}

func TestKeysArePrefixed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := New(client, "myapp:locks")
	ok, err := s.TryInsert(context.Background(), "res", "owner-1", time.Minute, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	assert.True(t, mr.Exists("myapp:locks:res"))
	assert.False(t, mr.Exists("res"))
}

func TestPeekReportsRemainingLease(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	now := time.Now()
	ok, err := s.TryInsert(ctx, "res", "owner-1", time.Minute, now)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(30 * time.Second)

	rec, found, err := s.Peek(ctx, "res", now)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "owner-1", rec.Owner)
	// 30s of the lease were consumed
	assert.InDelta(t, 30*time.Second, rec.ExpiresAt.Sub(now), float64(2*time.Second))
	assert.WithinDuration(t, now, rec.AcquiredAt, time.Second)
}

func TestStoreUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	s := New(client, "")

	mr.Close()

	_, err := s.TryInsert(context.Background(), "res", "owner-1", time.Minute, time.Now())
	require.Error(t, err)
	assert.True(t, store.IsUnavailable(err), "want RetCUnavailable, got %v", err)
}
