package lockmgr

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dLock/lib/logger"
	"github.com/ValentinKolb/dLock/lib/store"
)

// lockImpl is the concrete lock handle. It back-references the lease
// record by (resource, owner); the record itself lives only in the store.
type lockImpl struct {
	resource  string
	owner     string
	expiresAt time.Time
	store     store.ILeaseStore
	log       logger.ILogger
	released  atomic.Bool
}

// --------------------------------------------------------------------------
// Interface Methods (docu see interface.go)
// --------------------------------------------------------------------------

func (l *lockImpl) Resource() string     { return l.resource }
func (l *lockImpl) Owner() string        { return l.owner }
func (l *lockImpl) ExpiresAt() time.Time { return l.expiresAt }
func (l *lockImpl) Released() bool       { return l.released.Load() }

func (l *lockImpl) Release(ctx context.Context) {
	// idempotency guard; the swap also wins any race between two
	// concurrent Release calls on the same handle
	if !l.released.CompareAndSwap(false, true) {
		return
	}

	removed, err := l.store.DeleteIfOwner(ctx, l.resource, l.owner)
	switch {
	case err != nil:
		// best-effort: the record heals itself at expiry
		metricReleaseError.Inc()
		l.log.Warningf("release %q: store unavailable, lease will lapse on its own: %v", l.resource, err)
	case !removed:
		metricReleaseLost.Inc()
		l.log.Infof("release %q: lease already expired or re-owned", l.resource)
	default:
		metricReleaseReleased.Inc()
		l.log.Debugf("release %q: released (owner %s)", l.resource, l.owner)
	}
}
