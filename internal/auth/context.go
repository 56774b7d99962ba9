package auth

import "context"

type contextKey string

const tokenContextKey contextKey = "bearer_token"

// ContextWithToken stores the raw bearer token extracted from the request.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}

// TokenFromContext returns the raw bearer token, or "" if none was sent.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}
