package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/lib/store/storetest"
)

// fakeClock is a logical clock so the suite runs without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemStoreConformance(t *testing.T) {
	clock := newFakeClock()
	storetest.Run(t, "memstore", storetest.Harness{
		New: func(t *testing.T) store.ILeaseStore {
			s := New(&Options{GCInterval: -1})
			t.Cleanup(s.Close)
			return s
		},
		Now:     clock.Now,
		Advance: func(_ *testing.T, d time.Duration) { clock.Advance(d) },
	})
}

func TestGarbageCollectorDropsExpired(t *testing.T) {
	s := New(&Options{GCInterval: 10 * time.Millisecond})
	defer s.Close()
	ctx := context.Background()

	now := time.Now()
	if ok, err := s.TryInsert(ctx, "short", "owner", 20*time.Millisecond, now); err != nil || !ok {
		t.Fatalf("TryInsert = (%v, %v)", ok, err)
	}
	if ok, err := s.TryInsert(ctx, "long", "owner", time.Hour, now); err != nil || !ok {
		t.Fatalf("TryInsert = (%v, %v)", ok, err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, physical := s.records.Load("short"); !physical {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("gc did not remove the expired record")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, physical := s.records.Load("long"); !physical {
		t.Fatal("gc removed a live record")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s := New(nil)
	s.Close()
	s.Close()
}

func TestCancelledContext(t *testing.T) {
	s := New(&Options{GCInterval: -1})
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.TryInsert(ctx, "res", "owner", time.Minute, time.Now())
	if !store.IsUnavailable(err) {
		t.Errorf("TryInsert with cancelled ctx returned %v, want unavailable store error", err)
	}
}
