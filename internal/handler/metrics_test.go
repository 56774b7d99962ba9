package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/authgate/authgate/internal/metrics"
)

func TestMetricsHandler_Exposition(t *testing.T) {
	recorder := metrics.NewInMemory()
	recorder.IncRegistration("success")
	recorder.IncLogin("failed")
	recorder.IncTokenRejected("expired")

	h := NewMetricsHandler(recorder)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	h.Metrics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`authgate_registrations_total{status="success"} 1`,
		`authgate_logins_total{status="failed"} 1`,
		`authgate_tokens_rejected_total{reason="expired"} 1`,
		`authgate_tokens_issued_total 0`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestMetricsHandler_NoSnapshotter(t *testing.T) {
	h := NewMetricsHandler(nil)
	rec := httptest.NewRecorder()

	h.Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}
