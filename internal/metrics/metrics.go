// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Registration metrics
	IncRegistration(status string) // status: "success", "conflict", "invalid", "error"

	// Login metrics
	IncLogin(status string) // status: "success", "failed", "invalid", "error"
	ObservePasswordHashDuration(duration time.Duration)

	// Token / profile metrics
	IncTokenIssued()
	IncTokenRejected(reason string) // reason: "missing", "invalid", "expired"
	IncUserCacheHit()
	IncUserCacheMiss()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
