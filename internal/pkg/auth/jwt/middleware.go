package jwt

import (
	"context"
	"net/http"
	"strings"

	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/errs"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/logx"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/resp"
)

// contextKey scopes values this package stores in a request context.
type contextKey string

// ContextAuthPayloadKey is the context key holding the authenticated Payload.
const ContextAuthPayloadKey contextKey = "auth_payload"

// TokenCookieName is the cookie browsers send the identity token in.
const TokenCookieName = "smartcomms-token"

// TokenFromRequest pulls the raw token string from the Authorization header,
// the session cookie, or the "token" query parameter, in that order. Returns ""
// when no token is present.
func TokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}

	if cookie, err := r.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return r.URL.Query().Get("token")
}

// RequireAuth rejects requests without a valid identity token and injects the
// parsed Payload into the request context for downstream handlers.
func RequireAuth(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := TokenFromRequest(r)
			if tokenString == "" {
				resp.Error(w, r, errs.New(errs.ErrUnauthorized))
				return
			}

			payload, err := ParseToken(tokenString, secretKey)
			if err != nil {
				logx.Warn("Rejected request with invalid or expired token", "error", err.Error())
				resp.Error(w, r, errs.New(errs.ErrUnauthorized))
				return
			}

			ctx := context.WithValue(r.Context(), ContextAuthPayloadKey, payload)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPayloadFromContext returns the authenticated Payload, or nil when the
// request did not pass RequireAuth.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextAuthPayloadKey).(*Payload)
	if !ok {
		return nil
	}

	return payload
}
