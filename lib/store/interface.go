package store

import (
	"context"
	"fmt"
	"time"
)

// --------------------------------------------------------------------------
// Lease Record
// --------------------------------------------------------------------------

// LeaseRecord is one stored lease. There is at most one live record per
// resource at any instant; a record whose ExpiresAt is not after "now" is
// logically absent regardless of physical presence.
type LeaseRecord struct {
	// Resource is the unique key of the record. Never empty.
	Resource string `json:"resource" bson:"_id"`
	// Owner is the opaque token generated for one acquisition attempt.
	// Proves the right to delete the record on release.
	Owner string `json:"owner" bson:"owner"`
	// AcquiredAt is the instant the record was created.
	AcquiredAt time.Time `json:"acquired_at" bson:"acquired_at"`
	// ExpiresAt is AcquiredAt plus the lease duration.
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
}

// Live reports whether the record counts as present at the given instant.
func (r LeaseRecord) Live(now time.Time) bool {
	return r.ExpiresAt.After(now)
}

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// ILeaseStore is the persistence boundary of the lock manager. All methods
// may block while waiting on the backing store and honor cancellation and
// deadlines via ctx.
//
// Implementations must be safe for concurrent use by any number of
// goroutines and processes.
type ILeaseStore interface {
	// TryInsert attempts to create a lease record for resource, owned by
	// owner and expiring ttl after now. The insert succeeds if and only if
	// no record for resource exists whose expiry lies after now; an expired
	// record is treated as absent and overwritten. The check and the write
	// are one atomic operation at the store.
	//
	// Returns true iff this call created the live record. false means
	// another live holder exists; it is not an error.
	//
	// Backends whose server clock governs expiry (Redis TTLs, a remote
	// dLock server) may ignore now.
	TryInsert(ctx context.Context, resource, owner string, ttl time.Duration, now time.Time) (inserted bool, err error)

	// DeleteIfOwner atomically deletes the record for resource if its stored
	// owner equals owner. Returns false (not an error) if the record is
	// absent or owned by someone else; that is how a caller learns its lease
	// was lost and reacquired.
	DeleteIfOwner(ctx context.Context, resource, owner string) (removed bool, err error)

	// Peek returns the record for resource if one is live at now. Intended
	// for diagnostics and tests, not for the acquire/release path.
	Peek(ctx context.Context, resource string, now time.Time) (rec LeaseRecord, found bool, err error)

	// Sweep deletes records that are expired at now and reports how many
	// were removed. It must never delete a live record and must be safe to
	// run concurrently with any number of TryInsert/DeleteIfOwner calls.
	// Purely a storage-growth bound; correctness never depends on it.
	Sweep(ctx context.Context, now time.Time) (removed int, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// RetCode classifies store failures.
type RetCode uint64

const (
	RetCSuccess         RetCode = iota // 0: operation executed successfully
	RetCInternalError                  // 1: operation failed inside the store
	RetCUnavailable                    // 2: store unreachable (network, timeout, auth)
	RetCInvalidArgument                // 3: malformed input (empty resource/owner, non-positive ttl)
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnavailable:
		return "Unavailable"
	case RetCInvalidArgument:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by all ILeaseStore implementations. The
// Code tells callers whether the store was unreachable, which the lock
// manager must surface differently from contention.
type Error struct {
	Code RetCode // the return code
	Msg  string  // the error message
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("LeaseStoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new store Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// NewErrorf creates a new store Error with a formatted message.
func NewErrorf(code RetCode, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// IsUnavailable reports whether err is a store Error with RetCUnavailable.
func IsUnavailable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == RetCUnavailable
	}
	return false
}

// ValidateKeys checks resource and owner and returns a RetCInvalidArgument
// error for empty values. Shared by all backends so they reject bad input
// uniformly.
func ValidateKeys(resource, owner string) *Error {
	if resource == "" {
		return NewError(RetCInvalidArgument, "resource must not be empty")
	}
	if owner == "" {
		return NewError(RetCInvalidArgument, "owner must not be empty")
	}
	return nil
}
