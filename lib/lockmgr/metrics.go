package lockmgr

import "github.com/VictoriaMetrics/metrics"

// Counters for every acquire outcome and every release, exported through
// whatever endpoint the embedder wires metrics.WritePrometheus into (the
// dlock http transport serves them on GET /metrics).
var (
	metricAcquireAcquired  = metrics.NewCounter(`dlock_acquire_total{outcome="acquired"}`)
	metricAcquireContended = metrics.NewCounter(`dlock_acquire_total{outcome="contended"}`)
	metricAcquireError     = metrics.NewCounter(`dlock_acquire_total{outcome="error"}`)

	metricReleaseReleased = metrics.NewCounter(`dlock_release_total{outcome="released"}`)
	metricReleaseLost     = metrics.NewCounter(`dlock_release_total{outcome="lost"}`)
	metricReleaseError    = metrics.NewCounter(`dlock_release_total{outcome="error"}`)

	metricSweepRemoved = metrics.NewCounter(`dlock_sweep_removed_total`)
)
