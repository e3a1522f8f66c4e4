// Package lockmgr implements a distributed lock manager on top of any
// store.ILeaseStore. It gives multiple independent process instances a
// simple acquire/release contract for exclusive access to named resources,
// with leases that self-heal after a crash.
//
// The manager itself holds no shared state: every acquisition generates a
// fresh random owner token (a UUID) and every call goes straight to the
// store. It is therefore safe to use one manager from any number of
// goroutines, or to create a manager per call site, as long as all of them
// point at the same store.
//
// Core contract:
//
//   - Acquire returns a three-way result: a lock handle, "someone else
//     holds it", or a store error. Contention is an expected outcome, not
//     an error, and is never conflated with an unreachable store: treating
//     a store outage as "locked" would starve every caller for as long as
//     the outage lasts.
//   - AcquireOrNil and Require are thin wrappers over Acquire for call
//     sites that prefer a nil handle or an ErrLockUnavailable error.
//   - WithLock scopes an acquisition around a function and releases on
//     every exit path, including panics and context cancellation.
//
// Lease model:
//
//	A lock is a lease record with an expiry timestamp. A holder that
//	crashes leaves nothing behind that needs cleanup: the record runs
//	out and the next TryInsert reclaims it. The lease duration is the only timeout
//	protecting against dead holders; pick it long enough to cover the
//	critical section and short enough that a crash heals within an
//	acceptable window. The default is 30 seconds.
//
// Release:
//
//	Release is best-effort cleanup and never fails. Losing a lease before
//	voluntarily releasing it is an accepted race under the lease model: the
//	expiry invariant, not the release call, guarantees mutual exclusion.
//	A release that finds its record gone or re-owned logs the fact and
//	moves on. Release is idempotent; the second call does nothing.
//
// Usage Example:
//
//	mgr := lockmgr.NewLockManager(leaseStore, nil)
//
//	err := mgr.WithLock(ctx, "invoice-export", func(ctx context.Context) error {
//	    return exportInvoices(ctx)
//	})
//	if errors.Is(err, lockmgr.ErrLockUnavailable) {
//	    // another instance is already exporting
//	}
//
// Ordering:
//
//	No fairness is promised between contenders. Whichever TryInsert lands
//	first at the store wins; everyone else observes "unavailable" and
//	decides for themselves whether and when to retry. The manager never
//	retries internally.
package lockmgr
