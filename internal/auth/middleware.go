package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is unexported so only this package can set or read the token.
type contextKey string

const tokenKey contextKey = "authToken"

// RequireToken pulls the auth token from the Authorization header and stores
// it in the request context. It does not check the token against the store;
// the services do that on every call. A request with no token is rejected
// with 401 before it reaches the handler.
//
// Both forms are accepted:
//
//	Authorization: 3f0c9b1e-...
//	Authorization: Bearer 3f0c9b1e-...
func RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"unauthorized","message":"Error: unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), token)))
	})
}

// TokenFromRequest returns the token carried by r, or "" if there is none.
func TokenFromRequest(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > len("Bearer ") && strings.EqualFold(h[:len("Bearer ")], "Bearer ") {
		h = strings.TrimSpace(h[len("Bearer "):])
	}
	return h
}

// WithToken returns a copy of ctx carrying token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext retrieves the token stored by RequireToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(tokenKey).(string)
	return tok, ok && tok != ""
}
