package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dLock/lib/store"
)

// Harness describes one ILeaseStore implementation under test.
type Harness struct {
	// New creates a fresh, empty store. Called once per subtest.
	New func(t *testing.T) store.ILeaseStore

	// Now returns the current logical instant. Defaults to time.Now.
	Now func() time.Time

	// Advance moves logical time forward by at least d, however the backend
	// measures time. Defaults to time.Sleep.
	Advance func(t *testing.T, d time.Duration)

	// ShortTTL is the lease duration used by expiry tests. It must be long
	// enough that a handful of store round trips fit inside it. Defaults
	// to 250ms.
	ShortTTL time.Duration
}

func (h Harness) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h Harness) advance(t *testing.T, d time.Duration) {
	t.Helper()
	if h.Advance != nil {
		h.Advance(t, d)
		return
	}
	time.Sleep(d)
}

func (h Harness) shortTTL() time.Duration {
	if h.ShortTTL > 0 {
		return h.ShortTTL
	}
	return 250 * time.Millisecond
}

// Run executes the full conformance suite against the harness.
func Run(t *testing.T, name string, h Harness) {
	t.Run(name, func(t *testing.T) {
		t.Run("TryInsertAndPeek", func(t *testing.T) { testTryInsertAndPeek(t, h) })
		t.Run("MutualExclusion", func(t *testing.T) { testMutualExclusion(t, h) })
		t.Run("ConcurrentTryInsert", func(t *testing.T) { testConcurrentTryInsert(t, h) })
		t.Run("ExpiryReclaim", func(t *testing.T) { testExpiryReclaim(t, h) })
		t.Run("DeleteIfOwner", func(t *testing.T) { testDeleteIfOwner(t, h) })
		t.Run("DeleteWrongOwner", func(t *testing.T) { testDeleteWrongOwner(t, h) })
		t.Run("LostLease", func(t *testing.T) { testLostLease(t, h) })
		t.Run("Sweep", func(t *testing.T) { testSweep(t, h) })
		t.Run("IndependentResources", func(t *testing.T) { testIndependentResources(t, h) })
		t.Run("InvalidArguments", func(t *testing.T) { testInvalidArguments(t, h) })
	})
}

func testTryInsertAndPeek(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	inserted, err := s.TryInsert(ctx, "res", "owner-1", time.Minute, h.now())
	if err != nil {
		t.Fatalf("TryInsert failed: %v", err)
	}
	if !inserted {
		t.Fatal("TryInsert on empty store returned false")
	}

	rec, found, err := s.Peek(ctx, "res", h.now())
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	if !found {
		t.Fatal("Peek did not find the inserted record")
	}
	if rec.Owner != "owner-1" {
		t.Errorf("Peek owner = %q, want %q", rec.Owner, "owner-1")
	}
	if !rec.ExpiresAt.After(h.now()) {
		t.Errorf("record expires in the past: %v", rec.ExpiresAt)
	}
}

func testMutualExclusion(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	if ok, err := s.TryInsert(ctx, "res", "owner-a", time.Minute, h.now()); err != nil || !ok {
		t.Fatalf("first TryInsert = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err := s.TryInsert(ctx, "res", "owner-b", time.Minute, h.now())
	if err != nil {
		t.Fatalf("second TryInsert failed: %v", err)
	}
	if ok {
		t.Fatal("second TryInsert succeeded while the lease is live")
	}

	// the original holder must be untouched
	rec, found, err := s.Peek(ctx, "res", h.now())
	if err != nil || !found {
		t.Fatalf("Peek = (%v, %v)", found, err)
	}
	if rec.Owner != "owner-a" {
		t.Errorf("holder changed to %q", rec.Owner)
	}
}

func testConcurrentTryInsert(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()
	now := h.now()

	const contenders = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		owner := string(rune('a' + i))
		go func() {
			defer wg.Done()
			ok, err := s.TryInsert(ctx, "res", "owner-"+owner, time.Minute, now)
			if err != nil {
				t.Errorf("TryInsert failed: %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("%d of %d concurrent TryInsert calls won, want exactly 1", wins, contenders)
	}
}

func testExpiryReclaim(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()
	ttl := h.shortTTL()

	if ok, err := s.TryInsert(ctx, "res", "owner-a", ttl, h.now()); err != nil || !ok {
		t.Fatalf("TryInsert = (%v, %v)", ok, err)
	}

	h.advance(t, ttl+ttl/2)

	// the expired record counts as absent even though it may physically exist
	ok, err := s.TryInsert(ctx, "res", "owner-b", time.Minute, h.now())
	if err != nil {
		t.Fatalf("TryInsert after expiry failed: %v", err)
	}
	if !ok {
		t.Fatal("TryInsert did not reclaim the expired lease")
	}

	rec, found, err := s.Peek(ctx, "res", h.now())
	if err != nil || !found {
		t.Fatalf("Peek = (%v, %v)", found, err)
	}
	if rec.Owner != "owner-b" {
		t.Errorf("holder = %q, want owner-b", rec.Owner)
	}
}

func testDeleteIfOwner(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	if ok, err := s.TryInsert(ctx, "res", "owner-a", time.Minute, h.now()); err != nil || !ok {
		t.Fatalf("TryInsert = (%v, %v)", ok, err)
	}

	removed, err := s.DeleteIfOwner(ctx, "res", "owner-a")
	if err != nil {
		t.Fatalf("DeleteIfOwner failed: %v", err)
	}
	if !removed {
		t.Fatal("DeleteIfOwner by the holder returned false")
	}

	if _, found, _ := s.Peek(ctx, "res", h.now()); found {
		t.Fatal("record still present after delete")
	}

	// second delete is the idempotency signal, not an error
	removed, err = s.DeleteIfOwner(ctx, "res", "owner-a")
	if err != nil {
		t.Fatalf("repeated DeleteIfOwner failed: %v", err)
	}
	if removed {
		t.Fatal("repeated DeleteIfOwner returned true")
	}
}

func testDeleteWrongOwner(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	if ok, err := s.TryInsert(ctx, "res", "owner-a", time.Minute, h.now()); err != nil || !ok {
		t.Fatalf("TryInsert = (%v, %v)", ok, err)
	}

	removed, err := s.DeleteIfOwner(ctx, "res", "owner-b")
	if err != nil {
		t.Fatalf("DeleteIfOwner failed: %v", err)
	}
	if removed {
		t.Fatal("DeleteIfOwner with a foreign owner removed the record")
	}

	rec, found, err := s.Peek(ctx, "res", h.now())
	if err != nil || !found {
		t.Fatalf("Peek = (%v, %v)", found, err)
	}
	if rec.Owner != "owner-a" {
		t.Errorf("holder = %q, want owner-a", rec.Owner)
	}
}

func testLostLease(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()
	ttl := h.shortTTL()

	// A acquires and lets the lease run out
	if ok, err := s.TryInsert(ctx, "res", "owner-a", ttl, h.now()); err != nil || !ok {
		t.Fatalf("TryInsert = (%v, %v)", ok, err)
	}
	h.advance(t, ttl+ttl/2)

	// B takes over
	if ok, err := s.TryInsert(ctx, "res", "owner-b", time.Minute, h.now()); err != nil || !ok {
		t.Fatalf("takeover TryInsert = (%v, %v)", ok, err)
	}

	// A's late release must not touch B's lease
	removed, err := s.DeleteIfOwner(ctx, "res", "owner-a")
	if err != nil {
		t.Fatalf("DeleteIfOwner failed: %v", err)
	}
	if removed {
		t.Fatal("stale owner deleted the successor's lease")
	}

	rec, found, err := s.Peek(ctx, "res", h.now())
	if err != nil || !found {
		t.Fatalf("Peek = (%v, %v)", found, err)
	}
	if rec.Owner != "owner-b" {
		t.Errorf("holder = %q, want owner-b", rec.Owner)
	}
}

func testSweep(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()
	ttl := h.shortTTL()

	if ok, err := s.TryInsert(ctx, "dead", "owner-a", ttl, h.now()); err != nil || !ok {
		t.Fatalf("TryInsert = (%v, %v)", ok, err)
	}
	h.advance(t, ttl+ttl/2)
	if ok, err := s.TryInsert(ctx, "live", "owner-b", time.Hour, h.now()); err != nil || !ok {
		t.Fatalf("TryInsert = (%v, %v)", ok, err)
	}

	if _, err := s.Sweep(ctx, h.now()); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	if _, found, _ := s.Peek(ctx, "dead", h.now()); found {
		t.Error("expired record survived the sweep")
	}
	rec, found, err := s.Peek(ctx, "live", h.now())
	if err != nil || !found {
		t.Fatalf("live record gone after sweep: (%v, %v)", found, err)
	}
	if rec.Owner != "owner-b" {
		t.Errorf("live holder = %q, want owner-b", rec.Owner)
	}
}

func testIndependentResources(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	if ok, err := s.TryInsert(ctx, "res-1", "owner-a", time.Minute, h.now()); err != nil || !ok {
		t.Fatalf("TryInsert res-1 = (%v, %v)", ok, err)
	}
	// a held lock on res-1 must not block res-2
	if ok, err := s.TryInsert(ctx, "res-2", "owner-a", time.Minute, h.now()); err != nil || !ok {
		t.Fatalf("TryInsert res-2 = (%v, %v)", ok, err)
	}

	if removed, err := s.DeleteIfOwner(ctx, "res-1", "owner-a"); err != nil || !removed {
		t.Fatalf("DeleteIfOwner res-1 = (%v, %v)", removed, err)
	}
	if _, found, _ := s.Peek(ctx, "res-2", h.now()); !found {
		t.Fatal("releasing res-1 removed res-2")
	}
}

func testInvalidArguments(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	checkInvalid := func(what string, err error) {
		t.Helper()
		if err == nil {
			t.Errorf("%s accepted invalid input", what)
			return
		}
		var se *store.Error
		if !errors.As(err, &se) || se.Code != store.RetCInvalidArgument {
			t.Errorf("%s returned %v, want RetCInvalidArgument", what, err)
		}
	}

	_, err := s.TryInsert(ctx, "", "owner", time.Minute, h.now())
	checkInvalid("TryInsert(empty resource)", err)
	_, err = s.TryInsert(ctx, "res", "", time.Minute, h.now())
	checkInvalid("TryInsert(empty owner)", err)
	_, err = s.DeleteIfOwner(ctx, "", "owner")
	checkInvalid("DeleteIfOwner(empty resource)", err)
	_, err = s.DeleteIfOwner(ctx, "res", "")
	checkInvalid("DeleteIfOwner(empty owner)", err)
}
