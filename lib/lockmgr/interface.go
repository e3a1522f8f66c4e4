package lockmgr

import (
	"context"
	"time"
)

// ILock is the handle returned by a successful acquisition. It is a
// capability: it proves the right to delete the underlying lease record,
// nothing more. Handles are owned by the caller that acquired them and are
// not meant to be shared.
type ILock interface {
	// Resource returns the locked resource name.
	Resource() string

	// Owner returns the owner token generated for this acquisition.
	Owner() string

	// ExpiresAt returns the instant the lease runs out unless released
	// earlier.
	ExpiresAt() time.Time

	// Release removes the lease record if this handle still owns it.
	// It never fails: a lease that already expired or was taken over is
	// logged, not surfaced. Calling Release more than once is a no-op.
	Release(ctx context.Context)

	// Released reports whether Release has been called.
	Released() bool
}

// ILockManager is the caller-facing facade of the lock manager.
type ILockManager interface {
	// Acquire attempts to take the lock for resource with the given lease
	// duration (non-positive selects the configured default). The result
	// is three-way:
	//
	//	lock, true, nil    acquired; caller must eventually Release
	//	nil, false, nil    another live holder exists
	//	nil, false, err    the store could not be reached (wraps
	//	                     ErrStoreUnavailable), or the input was invalid
	//
	// If ctx is cancelled while the insert is in flight and the insert
	// went through anyway, the caller that observes the cancellation owns
	// the cleanup; the lease otherwise heals itself at expiry.
	Acquire(ctx context.Context, resource string, leaseDuration time.Duration) (lock ILock, acquired bool, err error)

	// AcquireOrNil acquires with the default lease duration and maps
	// contention to a nil handle. Store errors still propagate; hiding an
	// outage behind nil would make it look like permanent contention.
	AcquireOrNil(ctx context.Context, resource string) (ILock, error)

	// Require acquires with the default lease duration and maps contention
	// to ErrLockUnavailable, for call sites where failing to lock is fatal
	// to the current operation.
	Require(ctx context.Context, resource string) (ILock, error)

	// WithLock acquires the lock, runs fn, and guarantees the release on
	// every exit path: normal return, error, panic, or cancellation of
	// ctx. fn's error (or panic) propagates after the release. Contention
	// surfaces as ErrLockUnavailable without fn running.
	WithLock(ctx context.Context, resource string, fn func(ctx context.Context) error) error
}
