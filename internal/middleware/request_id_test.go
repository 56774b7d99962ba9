package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		incoming   string
		propagated bool
	}{
		{"generated", "", false},
		{"propagated", "client-supplied-id", true},
		{"uuid propagated", "0b7f3c1e-2d4a-4f6b-9c8d-1e2f3a4b5c6d", true},
		{"contains space", "abc def", false},
		{"contains newline", "abc\ninjected=1", false},
		{"too long", strings.Repeat("a", maxRequestIDLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var fromCtx string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fromCtx = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.incoming != "" {
				req.Header[RequestIDHeader] = []string{tt.incoming}
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			header := rec.Header().Get(RequestIDHeader)
			if header == "" || header != fromCtx {
				t.Fatalf("header %q does not match context %q", header, fromCtx)
			}
			if tt.propagated {
				if header != tt.incoming {
					t.Fatalf("expected propagated id %q, got %q", tt.incoming, header)
				}
				return
			}
			if _, err := uuid.Parse(header); err != nil {
				t.Fatalf("generated id %q is not a UUID: %v", header, err)
			}
		})
	}
}

func TestSetUserID(t *testing.T) {
	t.Parallel()

	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SetUserID(r.Context(), "42")
	})
	outer := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The handler runs in a derived context; the value is still visible here.
		inner.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey("other"), 1)))
		seen = GetUserID(r.Context())
	}))

	outer.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/me", nil))

	if seen != "42" {
		t.Fatalf("GetUserID() = %q, want 42", seen)
	}
}

func TestSetUserIDWithoutRequestID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	SetUserID(ctx, "42")
	if got := GetUserID(ctx); got != "" {
		t.Fatalf("GetUserID() = %q, want empty", got)
	}
	if got := GetRequestID(ctx); got != "" {
		t.Fatalf("GetRequestID() = %q, want empty", got)
	}
}
