package handler

import (
	"fmt"
	"net/http"

	"github.com/authgate/authgate/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "authgate_registrations_total{status=\"success\"} %d\n", snap.RegistrationsSuccess)
	writeMetric(w, "authgate_registrations_total{status=\"conflict\"} %d\n", snap.RegistrationsConflict)
	writeMetric(w, "authgate_registrations_total{status=\"invalid\"} %d\n", snap.RegistrationsInvalid)
	writeMetric(w, "authgate_registrations_total{status=\"error\"} %d\n", snap.RegistrationsError)

	writeMetric(w, "authgate_logins_total{status=\"success\"} %d\n", snap.LoginsSuccess)
	writeMetric(w, "authgate_logins_total{status=\"failed\"} %d\n", snap.LoginsFailed)
	writeMetric(w, "authgate_logins_total{status=\"invalid\"} %d\n", snap.LoginsInvalid)
	writeMetric(w, "authgate_logins_total{status=\"error\"} %d\n", snap.LoginsError)

	writeMetric(w, "authgate_password_hash_duration_seconds_count %d\n", snap.PasswordHashCount)
	writeMetric(w, "authgate_password_hash_duration_seconds_sum %.6f\n", float64(snap.PasswordHashTotalNs)/1e9)

	writeMetric(w, "authgate_tokens_issued_total %d\n", snap.TokensIssued)
	writeMetric(w, "authgate_tokens_rejected_total{reason=\"missing\"} %d\n", snap.TokensRejectedMissing)
	writeMetric(w, "authgate_tokens_rejected_total{reason=\"invalid\"} %d\n", snap.TokensRejectedInvalid)
	writeMetric(w, "authgate_tokens_rejected_total{reason=\"expired\"} %d\n", snap.TokensRejectedExpired)

	writeMetric(w, "authgate_user_cache_hits_total %d\n", snap.UserCacheHits)
	writeMetric(w, "authgate_user_cache_misses_total %d\n", snap.UserCacheMisses)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
