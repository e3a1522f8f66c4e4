package lockmgr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/google/uuid"
)

type lockMgrImpl struct {
	store store.ILeaseStore
	cfg   Config
}

// NewLockManager creates a lock manager on the given lease store. cfg may
// be nil for defaults. The manager is stateless; creating several managers
// on the same store is safe and they coordinate correctly.
func NewLockManager(s store.ILeaseStore, cfg *Config) ILockManager {
	return &lockMgrImpl{
		store: s,
		cfg:   cfg.withDefaults(),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see interface.go)
// --------------------------------------------------------------------------

func (m *lockMgrImpl) Acquire(ctx context.Context, resource string, leaseDuration time.Duration) (ILock, bool, error) {
	if leaseDuration <= 0 {
		leaseDuration = m.cfg.DefaultLeaseDuration
	}

	// Fresh token per attempt: proves ownership on release and makes two
	// attempts by the same process distinguishable at the store.
	owner := uuid.NewString()
	now := m.cfg.Clock().UTC()

	inserted, err := m.store.TryInsert(ctx, resource, owner, leaseDuration, now)
	if err != nil {
		metricAcquireError.Inc()
		if isCallerFault(err) {
			return nil, false, err
		}
		m.cfg.Logger.Errorf("acquire %q: store unavailable: %v", resource, err)
		return nil, false, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if !inserted {
		metricAcquireContended.Inc()
		m.cfg.Logger.Debugf("acquire %q: held by another owner", resource)
		return nil, false, nil
	}

	metricAcquireAcquired.Inc()
	m.cfg.Logger.Debugf("acquire %q: acquired for %s (owner %s)", resource, leaseDuration, owner)

	return &lockImpl{
		resource:  resource,
		owner:     owner,
		expiresAt: now.Add(leaseDuration),
		store:     m.store,
		log:       m.cfg.Logger,
	}, true, nil
}

func (m *lockMgrImpl) AcquireOrNil(ctx context.Context, resource string) (ILock, error) {
	lock, acquired, err := m.Acquire(ctx, resource, 0)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, nil
	}
	return lock, nil
}

func (m *lockMgrImpl) Require(ctx context.Context, resource string) (ILock, error) {
	lock, acquired, err := m.Acquire(ctx, resource, 0)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, fmt.Errorf("%w: %s", ErrLockUnavailable, resource)
	}
	return lock, nil
}

func (m *lockMgrImpl) WithLock(ctx context.Context, resource string, fn func(ctx context.Context) error) error {
	lock, err := m.Require(ctx, resource)
	if err != nil {
		return err
	}
	defer func() {
		// release must still work when ctx is already cancelled
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		lock.Release(releaseCtx)
	}()
	return fn(ctx)
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// isCallerFault reports whether err is a malformed-input error rather than
// a store failure. Those must reach the caller untranslated.
func isCallerFault(err error) bool {
	var se *store.Error
	return errors.As(err, &se) && se.Code == store.RetCInvalidArgument
}
