package router

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/yxshee/biteback/services/api/internal/access"
	"github.com/yxshee/biteback/services/api/internal/auth"
	"github.com/yxshee/biteback/services/api/internal/logger"
)

// streamTokenParam carries the access token for EventSource clients, which
// cannot set request headers.
const streamTokenParam = "access_token"

var errMissingBearerToken = errors.New("missing bearer token")

func (a *api) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.parseAccessIdentity(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, access.MsgAuthenticationRequired)
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r, *identity)))
	})
}

// authenticateStream accepts the bearer header, the access_token query
// parameter or the access_token cookie, in that order.
func (a *api) authenticateStream(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := access.BearerToken(r.Header.Get("Authorization"))
		if raw == "" {
			raw = strings.TrimSpace(r.URL.Query().Get(streamTokenParam))
		}
		if raw == "" {
			raw = access.Credential(r)
		}

		identity, err := a.identityFromToken(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, access.MsgAuthenticationRequired)
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r, *identity)))
	})
}

func (a *api) requirePermission(permission auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, access.MsgAuthenticationRequired)
				return
			}

			if err := auth.MustBeAllowed(identity.Role, permission); err != nil {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (a *api) parseAccessIdentity(authorizationHeader string) (*auth.Identity, error) {
	token := access.BearerToken(authorizationHeader)
	if token == "" {
		return nil, errMissingBearerToken
	}
	return a.identityFromToken(token)
}

func (a *api) identityFromToken(token string) (*auth.Identity, error) {
	claims, err := a.tokenManager.ParseAndValidate(token, auth.TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	identity := &auth.Identity{
		UserID:    claims.UserID,
		Role:      claims.Role,
		SessionID: claims.SessionID,
	}
	return identity, nil
}

func withIdentity(r *http.Request, identity auth.Identity) context.Context {
	ctx := auth.WithIdentity(r.Context(), identity)
	return logger.WithIdentity(ctx, identity.UserID)
}
