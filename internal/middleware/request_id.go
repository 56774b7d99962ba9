// Package middleware provides HTTP middleware components.
package middleware

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

type contextKey string

const requestInfoKey contextKey = "request_info"

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength bounds client-supplied request IDs.
const maxRequestIDLength = 128

// requestInfo is per-request state shared by handlers and the access log.
// Handlers run in a derived context, so it is held by pointer.
type requestInfo struct {
	id string

	mu     sync.Mutex
	userID string
}

// RequestID assigns every request an ID and attaches request metadata to the
// context. A well-formed X-Request-ID from the client is reused; anything
// else is replaced by a fresh UUID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if !validRequestID(requestID) {
			requestID = uuid.New().String()
		}

		info := &requestInfo{id: requestID}
		ctx := context.WithValue(r.Context(), requestInfoKey, info)

		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID, or "" outside RequestID.
func GetRequestID(ctx context.Context) string {
	if info := requestInfoFrom(ctx); info != nil {
		return info.id
	}
	return ""
}

// SetUserID records the authenticated user for the access log.
// It is a no-op outside RequestID.
func SetUserID(ctx context.Context, userID string) {
	info := requestInfoFrom(ctx)
	if info == nil {
		return
	}
	info.mu.Lock()
	info.userID = userID
	info.mu.Unlock()
}

// GetUserID returns the user recorded by SetUserID, or "".
func GetUserID(ctx context.Context) string {
	info := requestInfoFrom(ctx)
	if info == nil {
		return ""
	}
	info.mu.Lock()
	defer info.mu.Unlock()
	return info.userID
}

func requestInfoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey).(*requestInfo)
	return info
}

// validRequestID accepts non-empty printable ASCII without spaces.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}
