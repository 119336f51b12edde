package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/escience/sitebot/internal/api"
	"github.com/escience/sitebot/internal/domain"
)

// SessionCookieName is the cookie carrying an admin session token.
const SessionCookieName = "sitebot_session"

const AdminIdentityKey contextKey = "admin_identity"

type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (string, error)
}

// identityHolder lets outer middleware observe the identity resolved further in.
type identityHolder struct {
	identity string
}

const identityHolderKey contextKey = "identity_holder"

func withIdentityHolder(ctx context.Context, h *identityHolder) context.Context {
	return context.WithValue(ctx, identityHolderKey, h)
}

// RequireSession rejects requests without a valid admin session. The token is
// read from a Bearer Authorization header or the session cookie.
func RequireSession(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := sessionToken(r)
			if !ok {
				api.Error(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}
			if token == "" {
				api.Error(w, http.StatusUnauthorized, domain.ErrSessionRequired.Message)
				return
			}

			identity, err := validator.ValidateSession(r.Context(), token)
			if err != nil {
				api.Error(w, http.StatusUnauthorized, domain.ErrInvalidSession.Message)
				return
			}

			if h, ok := r.Context().Value(identityHolderKey).(*identityHolder); ok {
				h.identity = identity
			}
			ctx := context.WithValue(r.Context(), AdminIdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return "", false
		}
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")), true
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value, true
	}
	return "", true
}

// GetAdminIdentity returns the authenticated admin identity from context.
func GetAdminIdentity(ctx context.Context) string {
	identity, _ := ctx.Value(AdminIdentityKey).(string)
	return identity
}

// identityHolderFrom reuses a holder installed further out, or creates one.
func identityHolderFrom(ctx context.Context) *identityHolder {
	if h, ok := ctx.Value(identityHolderKey).(*identityHolder); ok {
		return h
	}
	return &identityHolder{}
}
