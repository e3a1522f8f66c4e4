package lockmgr

import "errors"

var (
	// ErrLockUnavailable indicates another live holder exists for the
	// resource. Expected under contention and never an error-level event.
	ErrLockUnavailable = errors.New("lockmgr: lock is already held")

	// ErrStoreUnavailable indicates the lease store could not complete the
	// operation (network, timeout, connection failure). Always distinct
	// from contention; callers may retry at their own discretion.
	ErrStoreUnavailable = errors.New("lockmgr: lease store unavailable")
)
