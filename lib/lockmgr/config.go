package lockmgr

import (
	"time"

	"github.com/ValentinKolb/dLock/lib/logger"
)

// DefaultLeaseDuration is used when a caller does not override the lease
// duration. Long enough for typical critical-section work, short enough
// that a crashed holder's record heals within a bounded window.
const DefaultLeaseDuration = 30 * time.Second

// releaseTimeout bounds the store call of a deferred release whose parent
// context is already cancelled.
const releaseTimeout = 5 * time.Second

// Config carries the manager's policy knobs. The zero value (or nil) is
// fully usable.
type Config struct {
	// DefaultLeaseDuration applies when Acquire is called with a
	// non-positive duration. Defaults to DefaultLeaseDuration.
	DefaultLeaseDuration time.Duration

	// Clock supplies the current time; injectable for tests. Defaults to
	// time.Now.
	Clock func() time.Time

	// Logger receives one line per acquire outcome and per release.
	// Defaults to the noop logger.
	Logger logger.ILogger
}

func (c *Config) withDefaults() Config {
	cfg := Config{}
	if c != nil {
		cfg = *c
	}
	if cfg.DefaultLeaseDuration <= 0 {
		cfg.DefaultLeaseDuration = DefaultLeaseDuration
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoopLogger()
	}
	return cfg
}
