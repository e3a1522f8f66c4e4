package lockmgr

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/lib/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets the scenario tests move time without sleeping.
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

func newTestManager(t *testing.T) (ILockManager, *fakeClock, store.ILeaseStore) {
	t.Helper()
	clock := newFakeClock()
	s := memstore.New(&memstore.Options{GCInterval: -1})
	t.Cleanup(s.Close)
	mgr := NewLockManager(s, &Config{Clock: clock.Now})
	return mgr, clock, s
}

// failingStore simulates an unreachable store.
type failingStore struct{}

func (failingStore) TryInsert(context.Context, string, string, time.Duration, time.Time) (bool, error) {
	return false, store.NewError(store.RetCUnavailable, "connection refused")
}

func (failingStore) DeleteIfOwner(context.Context, string, string) (bool, error) {
	return false, store.NewError(store.RetCUnavailable, "connection refused")
}

func (failingStore) Peek(context.Context, string, time.Time) (store.LeaseRecord, bool, error) {
	return store.LeaseRecord{}, false, store.NewError(store.RetCUnavailable, "connection refused")
}

func (failingStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, store.NewError(store.RetCUnavailable, "connection refused")
}

func TestAcquireAndRelease(t *testing.T) {
	mgr, clock, s := newTestManager(t)
	ctx := context.Background()

	lock, acquired, err := mgr.Acquire(ctx, "res", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)
	require.NotNil(t, lock)

	assert.Equal(t, "res", lock.Resource())
	assert.NotEmpty(t, lock.Owner())
	assert.Equal(t, clock.Now().UTC().Add(time.Minute), lock.ExpiresAt())
	assert.False(t, lock.Released())

	lock.Release(ctx)
	assert.True(t, lock.Released())

	_, found, err := s.Peek(ctx, "res", clock.Now())
	require.NoError(t, err)
	assert.False(t, found, "record must be gone after release")
}

func TestAcquireContention(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	_, acquired, err := mgr.Acquire(ctx, "res", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	lock, acquired, err := mgr.Acquire(ctx, "res", time.Minute)
	require.NoError(t, err, "contention must not be an error")
	assert.False(t, acquired)
	assert.Nil(t, lock)
}

func TestDefaultLeaseDuration(t *testing.T) {
	mgr, clock, _ := newTestManager(t)

	lock, acquired, err := mgr.Acquire(context.Background(), "res", 0)
	require.NoError(t, err)
	require.True(t, acquired)
	assert.Equal(t, clock.Now().UTC().Add(DefaultLeaseDuration), lock.ExpiresAt())
}

// The t=0/t=10s/t=31s timeline: a 30s lease blocks a second caller at 10s
// and is up for grabs again at 31s.
func TestExpirySelfHeal(t *testing.T) {
	mgr, clock, _ := newTestManager(t)
	ctx := context.Background()

	_, acquired, err := mgr.Acquire(ctx, "invoice-export", 30*time.Second)
	require.NoError(t, err)
	require.True(t, acquired)

	clock.Advance(10 * time.Second)
	_, acquired, err = mgr.Acquire(ctx, "invoice-export", 0)
	require.NoError(t, err)
	assert.False(t, acquired, "lease still live at t=10s")

	clock.Advance(21 * time.Second)
	_, acquired, err = mgr.Acquire(ctx, "invoice-export", 0)
	require.NoError(t, err)
	assert.True(t, acquired, "lease expired at t=30s, reacquire at t=31s must win")
}

func TestRequire(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	lock, err := mgr.Require(ctx, "migration")
	require.NoError(t, err)
	require.NotNil(t, lock)

	_, err = mgr.Require(ctx, "migration")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLockUnavailable)
	assert.NotErrorIs(t, err, ErrStoreUnavailable)
}

func TestAcquireOrNil(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	lock, err := mgr.AcquireOrNil(ctx, "res")
	require.NoError(t, err)
	require.NotNil(t, lock)

	second, err := mgr.AcquireOrNil(ctx, "res")
	require.NoError(t, err)
	assert.Nil(t, second)
}

func TestStoreFailurePropagates(t *testing.T) {
	mgr := NewLockManager(failingStore{}, nil)
	ctx := context.Background()

	_, acquired, err := mgr.Acquire(ctx, "res", time.Minute)
	assert.False(t, acquired)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NotErrorIs(t, err, ErrLockUnavailable)

	// never hidden behind a nil handle
	_, err = mgr.AcquireOrNil(ctx, "res")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = mgr.Require(ctx, "res")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	err = mgr.WithLock(ctx, "res", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestInvalidResourceIsCallerFault(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	_, _, err := mgr.Acquire(context.Background(), "", time.Minute)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStoreUnavailable)

	var se *store.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, store.RetCInvalidArgument, se.Code)
}

func TestIdempotentRelease(t *testing.T) {
	mgr, clock, s := newTestManager(t)
	ctx := context.Background()

	lockA, acquired, err := mgr.Acquire(ctx, "res", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	lockA.Release(ctx)

	// a successor takes the lock between the two Release calls
	lockB, acquired, err := mgr.Acquire(ctx, "res", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	// second release is a no-op and must not delete B's lease
	lockA.Release(ctx)

	rec, found, err := s.Peek(ctx, "res", clock.Now())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, lockB.Owner(), rec.Owner)
}

func TestLostLockDetection(t *testing.T) {
	mgr, clock, s := newTestManager(t)
	ctx := context.Background()

	lockA, acquired, err := mgr.Acquire(ctx, "res", 10*time.Second)
	require.NoError(t, err)
	require.True(t, acquired)

	// A's lease runs out and B takes over
	clock.Advance(11 * time.Second)
	lockB, acquired, err := mgr.Acquire(ctx, "res", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	// A's late release must leave B untouched
	lockA.Release(ctx)

	rec, found, err := s.Peek(ctx, "res", clock.Now())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, lockB.Owner(), rec.Owner)
}

func TestReleaseSurvivesStoreOutage(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	lock, acquired, err := mgr.Acquire(ctx, "res", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	// a cancelled context makes the delete fail; Release must absorb it
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	lock.Release(cancelled)
	assert.True(t, lock.Released())
}

func TestConcurrentAcquireSingleWinner(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	const contenders = 32
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, acquired, err := mgr.Acquire(ctx, "res", time.Minute)
			if err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			if acquired {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "exactly one concurrent caller may win")
}

func TestWithLockReleasesOnReturn(t *testing.T) {
	mgr, clock, s := newTestManager(t)
	ctx := context.Background()

	called := false
	err := mgr.WithLock(ctx, "res", func(ctx context.Context) error {
		called = true
		// held while the body runs
		_, found, err := s.Peek(ctx, "res", clock.Now())
		require.NoError(t, err)
		assert.True(t, found)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	_, found, err := s.Peek(ctx, "res", clock.Now())
	require.NoError(t, err)
	assert.False(t, found, "lock must be released after the body returns")
}

func TestWithLockReleasesOnError(t *testing.T) {
	mgr, clock, s := newTestManager(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := mgr.WithLock(ctx, "res", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	_, found, _ := s.Peek(ctx, "res", clock.Now())
	assert.False(t, found, "lock must be released after an error")
}

func TestWithLockReleasesOnPanic(t *testing.T) {
	mgr, clock, s := newTestManager(t)
	ctx := context.Background()

	require.Panics(t, func() {
		_ = mgr.WithLock(ctx, "res", func(context.Context) error { panic("boom") })
	})

	_, found, _ := s.Peek(ctx, "res", clock.Now())
	assert.False(t, found, "lock must be released after a panic")
}

func TestWithLockReleasesOnCancellation(t *testing.T) {
	mgr, clock, s := newTestManager(t)

	ctx, cancel := context.WithCancel(context.Background())
	err := mgr.WithLock(ctx, "res", func(ctx context.Context) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)

	// released even though ctx was cancelled mid-body
	_, found, _ := s.Peek(context.Background(), "res", clock.Now())
	assert.False(t, found, "lock must be released after cancellation")
}

func TestWithLockContention(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	lock, err := mgr.Require(ctx, "res")
	require.NoError(t, err)
	defer lock.Release(ctx)

	called := false
	err = mgr.WithLock(ctx, "res", func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrLockUnavailable)
	assert.False(t, called, "body must not run without the lock")
}

func TestManagersOnSameStoreCoordinate(t *testing.T) {
	clock := newFakeClock()
	s := memstore.New(&memstore.Options{GCInterval: -1})
	t.Cleanup(s.Close)

	mgrA := NewLockManager(s, &Config{Clock: clock.Now})
	mgrB := NewLockManager(s, &Config{Clock: clock.Now})
	ctx := context.Background()

	_, acquired, err := mgrA.Acquire(ctx, "res", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	_, acquired, err = mgrB.Acquire(ctx, "res", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired, "a second manager on the same store must see the lock")
}
