package lockmgr

import (
	"context"
	"time"

	"github.com/ValentinKolb/dLock/lib/logger"
	"github.com/ValentinKolb/dLock/lib/store"
)

// Sweeper periodically deletes lease records that are already logically
// dead, purely to bound storage growth. Correctness never depends on it:
// TryInsert reclaims expired records lazily on its own, and Sweep only
// touches records whose expiry has passed, so any number of sweepers can
// run next to any number of acquire/release calls without coordination.
type Sweeper struct {
	store    store.ILeaseStore
	interval time.Duration
	clock    func() time.Time
	log      logger.ILogger
}

// NewSweeper creates a sweeper for the given store. log may be nil.
func NewSweeper(s store.ILeaseStore, interval time.Duration, log logger.ILogger) *Sweeper {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &Sweeper{
		store:    s,
		interval: interval,
		clock:    time.Now,
		log:      log,
	}
}

// Run sweeps on every interval tick until ctx ends. It blocks; start it in
// its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Infof("sweeper running every %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.log.Infof("sweeper stopped: %v", ctx.Err())
			return
		case <-ticker.C:
			removed, err := s.store.Sweep(ctx, s.clock().UTC())
			if err != nil {
				s.log.Warningf("sweep failed: %v", err)
				continue
			}
			if removed > 0 {
				metricSweepRemoved.Add(removed)
				s.log.Debugf("sweep removed %d expired lease(s)", removed)
			}
		}
	}
}
