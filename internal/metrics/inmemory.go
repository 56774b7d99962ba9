package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	RegistrationsSuccess  uint64
	RegistrationsConflict uint64
	RegistrationsInvalid  uint64
	RegistrationsError    uint64

	LoginsSuccess uint64
	LoginsFailed  uint64
	LoginsInvalid uint64
	LoginsError   uint64

	PasswordHashCount   uint64
	PasswordHashTotalNs int64

	TokensIssued          uint64
	TokensRejectedMissing uint64
	TokensRejectedInvalid uint64
	TokensRejectedExpired uint64

	UserCacheHits   uint64
	UserCacheMisses uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	registrationsSuccess  uint64
	registrationsConflict uint64
	registrationsInvalid  uint64
	registrationsError    uint64

	loginsSuccess uint64
	loginsFailed  uint64
	loginsInvalid uint64
	loginsError   uint64

	passwordHashCount   uint64
	passwordHashTotalNs int64

	tokensIssued          uint64
	tokensRejectedMissing uint64
	tokensRejectedInvalid uint64
	tokensRejectedExpired uint64

	userCacheHits   uint64
	userCacheMisses uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		RegistrationsSuccess:  atomic.LoadUint64(&m.registrationsSuccess),
		RegistrationsConflict: atomic.LoadUint64(&m.registrationsConflict),
		RegistrationsInvalid:  atomic.LoadUint64(&m.registrationsInvalid),
		RegistrationsError:    atomic.LoadUint64(&m.registrationsError),
		LoginsSuccess:         atomic.LoadUint64(&m.loginsSuccess),
		LoginsFailed:          atomic.LoadUint64(&m.loginsFailed),
		LoginsInvalid:         atomic.LoadUint64(&m.loginsInvalid),
		LoginsError:           atomic.LoadUint64(&m.loginsError),
		PasswordHashCount:     atomic.LoadUint64(&m.passwordHashCount),
		PasswordHashTotalNs:   atomic.LoadInt64(&m.passwordHashTotalNs),
		TokensIssued:          atomic.LoadUint64(&m.tokensIssued),
		TokensRejectedMissing: atomic.LoadUint64(&m.tokensRejectedMissing),
		TokensRejectedInvalid: atomic.LoadUint64(&m.tokensRejectedInvalid),
		TokensRejectedExpired: atomic.LoadUint64(&m.tokensRejectedExpired),
		UserCacheHits:         atomic.LoadUint64(&m.userCacheHits),
		UserCacheMisses:       atomic.LoadUint64(&m.userCacheMisses),
	}
}

// IncRegistration increments the registration counter for status.
func (m *InMemoryRecorder) IncRegistration(status string) {
	switch status {
	case "success":
		atomic.AddUint64(&m.registrationsSuccess, 1)
	case "conflict":
		atomic.AddUint64(&m.registrationsConflict, 1)
	case "invalid":
		atomic.AddUint64(&m.registrationsInvalid, 1)
	default:
		atomic.AddUint64(&m.registrationsError, 1)
	}
}

// IncLogin increments the login counter for status.
func (m *InMemoryRecorder) IncLogin(status string) {
	switch status {
	case "success":
		atomic.AddUint64(&m.loginsSuccess, 1)
	case "failed":
		atomic.AddUint64(&m.loginsFailed, 1)
	case "invalid":
		atomic.AddUint64(&m.loginsInvalid, 1)
	default:
		atomic.AddUint64(&m.loginsError, 1)
	}
}

// ObservePasswordHashDuration records time spent hashing or comparing passwords.
func (m *InMemoryRecorder) ObservePasswordHashDuration(duration time.Duration) {
	atomic.AddUint64(&m.passwordHashCount, 1)
	atomic.AddInt64(&m.passwordHashTotalNs, duration.Nanoseconds())
}

// IncTokenIssued increments the issued token counter.
func (m *InMemoryRecorder) IncTokenIssued() {
	atomic.AddUint64(&m.tokensIssued, 1)
}

// IncTokenRejected increments the rejected token counter for reason.
func (m *InMemoryRecorder) IncTokenRejected(reason string) {
	switch reason {
	case "missing":
		atomic.AddUint64(&m.tokensRejectedMissing, 1)
	case "expired":
		atomic.AddUint64(&m.tokensRejectedExpired, 1)
	default:
		atomic.AddUint64(&m.tokensRejectedInvalid, 1)
	}
}

// IncUserCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncUserCacheHit() {
	atomic.AddUint64(&m.userCacheHits, 1)
}

// IncUserCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncUserCacheMiss() {
	atomic.AddUint64(&m.userCacheMisses, 1)
}
