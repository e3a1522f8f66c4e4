package memstore

import (
	"context"
	"time"

	"github.com/ValentinKolb/dLock/lib/logger"
	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/puzpuzpuz/xsync/v3"
)

const defaultGCInterval = 30 * time.Second

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options configures a memstore instance.
type Options struct {
	// GCInterval is the time between garbage collection runs. Zero selects
	// the default; a negative value disables the collector entirely.
	GCInterval time.Duration
	// Logger receives gc diagnostics. Defaults to the noop logger.
	Logger logger.ILogger
}

// --------------------------------------------------------------------------
// Store Implementation
// --------------------------------------------------------------------------

type memStore struct {
	records *xsync.MapOf[string, store.LeaseRecord]
	log     logger.ILogger
	stopGC  chan struct{}
}

// New creates an empty in-process lease store and, unless disabled, starts
// its garbage collector. Call Close to stop the collector.
func New(opts *Options) *memStore {
	if opts == nil {
		opts = &Options{}
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoopLogger()
	}

	s := &memStore{
		records: xsync.NewMapOf[string, store.LeaseRecord](),
		log:     log,
		stopGC:  make(chan struct{}),
	}

	interval := opts.GCInterval
	if interval == 0 {
		interval = defaultGCInterval
	}
	if interval > 0 {
		go s.gcLoop(interval)
	}
	return s
}

// Close stops the background garbage collector. The store remains usable;
// expired records are still reclaimed lazily by TryInsert.
func (s *memStore) Close() {
	select {
	case <-s.stopGC:
		// already closed
	default:
		close(s.stopGC)
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *memStore) TryInsert(ctx context.Context, resource, owner string, ttl time.Duration, now time.Time) (bool, error) {
	if err := store.ValidateKeys(resource, owner); err != nil {
		return false, err
	}
	if ttl <= 0 {
		return false, store.NewError(store.RetCInvalidArgument, "ttl must be positive")
	}
	if err := ctx.Err(); err != nil {
		return false, store.NewErrorf(store.RetCUnavailable, "context done: %v", err)
	}

	inserted := false
	s.records.Compute(resource, func(old store.LeaseRecord, loaded bool) (store.LeaseRecord, bool) {
		if loaded && old.Live(now) {
			// live holder exists, leave it alone
			return old, false
		}
		inserted = true
		return store.LeaseRecord{
			Resource:   resource,
			Owner:      owner,
			AcquiredAt: now,
			ExpiresAt:  now.Add(ttl),
		}, false
	})
	return inserted, nil
}

func (s *memStore) DeleteIfOwner(ctx context.Context, resource, owner string) (bool, error) {
	if err := store.ValidateKeys(resource, owner); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, store.NewErrorf(store.RetCUnavailable, "context done: %v", err)
	}

	removed := false
	s.records.Compute(resource, func(old store.LeaseRecord, loaded bool) (store.LeaseRecord, bool) {
		if !loaded || old.Owner != owner {
			return old, !loaded
		}
		removed = true
		return old, true
	})
	return removed, nil
}

func (s *memStore) Peek(ctx context.Context, resource string, now time.Time) (store.LeaseRecord, bool, error) {
	if resource == "" {
		return store.LeaseRecord{}, false, store.NewError(store.RetCInvalidArgument, "resource must not be empty")
	}
	if err := ctx.Err(); err != nil {
		return store.LeaseRecord{}, false, store.NewErrorf(store.RetCUnavailable, "context done: %v", err)
	}

	rec, loaded := s.records.Load(resource)
	if !loaded || !rec.Live(now) {
		return store.LeaseRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *memStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, store.NewErrorf(store.RetCUnavailable, "context done: %v", err)
	}

	removed := 0
	s.records.Range(func(resource string, _ store.LeaseRecord) bool {
		s.records.Compute(resource, func(old store.LeaseRecord, loaded bool) (store.LeaseRecord, bool) {
			// re-checked under the per-key lock so a live record can never
			// be dropped by a racing sweep
			if loaded && !old.Live(now) {
				removed++
				return old, true
			}
			return old, !loaded
		})
		return true
	})
	return removed, nil
}

// --------------------------------------------------------------------------
// Garbage Collection
// --------------------------------------------------------------------------

func (s *memStore) gcLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			removed, err := s.Sweep(context.Background(), time.Now())
			if err != nil {
				s.log.Errorf("gc sweep failed: %v", err)
			} else if removed > 0 {
				s.log.Debugf("gc removed %d expired lease(s)", removed)
			}
		}
	}
}
