package http

import (
	"context"
	"net/http"
	"strings"

	"unicomm/auth"
	"unicomm/domain"
)

type contextKey string

const identityKey contextKey = "identity"

// Authenticator validates the bearer token and stores the resulting
// identity in the request context. Role checks stay in the gate; this
// layer only establishes who is calling.
func Authenticator(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found {
				http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
				return
			}
			claims, err := tokens.Validate(raw)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			identity, err := claims.Identity()
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom extracts the authenticated identity placed by the
// middleware. The zero identity means an unauthenticated request
// slipped past routing, which is a programming error.
func IdentityFrom(ctx context.Context) domain.Identity {
	identity, _ := ctx.Value(identityKey).(domain.Identity)
	return identity
}
