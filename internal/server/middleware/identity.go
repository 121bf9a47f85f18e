package middleware

import (
	"context"
	"net/http"
	"strings"
)

// callerKey is the context key under which the caller identity is stored.
type callerKey struct{}

// CallerHeader names the header that identifies the acting participant.
// Creators, bettors, and claimants are attributed to this identity.
const CallerHeader = "X-Caller"

// Identity returns middleware that extracts the caller identity from the
// request header and stores it in the request context. Requests without the
// header pass through with an empty caller; handlers that require one reject
// those themselves.
func Identity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := strings.TrimSpace(r.Header.Get(CallerHeader))
			if caller != "" {
				ctx := context.WithValue(r.Context(), callerKey{}, caller)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Caller returns the caller identity stored in the context, or "" when the
// request carried none.
func Caller(ctx context.Context) string {
	caller, _ := ctx.Value(callerKey{}).(string)
	return caller
}
