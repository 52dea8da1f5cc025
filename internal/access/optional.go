package access

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/yxshee/biteback/services/api/internal/auth"
	"github.com/yxshee/biteback/services/api/internal/logger"
)

// AccessTokenCookie is the cookie consulted when no bearer header is sent.
const AccessTokenCookie = "access_token"

type TokenVerifier interface {
	ParseAndValidate(rawToken string, expectedType auth.TokenType) (auth.Claims, error)
}

type UserFinder interface {
	GetUserByID(ctx context.Context, userID string) (auth.User, error)
}

// IdentityResolver turns access tokens into request identities.
type IdentityResolver struct {
	tokens TokenVerifier
	users  UserFinder
}

func NewIdentityResolver(tokens TokenVerifier, users UserFinder) *IdentityResolver {
	return &IdentityResolver{tokens: tokens, users: users}
}

// Optional attaches the caller's identity when a valid access token is
// present. Requests without one, or with one that does not verify, continue
// anonymously. Only a failing user lookup stops the request.
func (ir *IdentityResolver) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := Credential(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := ir.tokens.ParseAndValidate(raw, auth.TokenTypeAccess)
		if err != nil {
			logger.FromContext(r.Context()).WithError(err).Debug("ignoring unverifiable credential on optional route")
			next.ServeHTTP(w, r)
			return
		}

		user, err := ir.users.GetUserByID(r.Context(), claims.UserID)
		if errors.Is(err, auth.ErrUserNotFound) {
			logger.FromContext(r.Context()).WithField("user_id", claims.UserID).Debug("token subject no longer exists")
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			fault(w, r, err)
			return
		}

		ctx := auth.WithIdentity(r.Context(), auth.Identity{
			UserID:    user.ID,
			Role:      user.Role,
			SessionID: claims.SessionID,
		})
		ctx = logger.WithIdentity(ctx, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Credential returns the bearer token from the Authorization header, or
// the access_token cookie when the header is absent.
func Credential(r *http.Request) string {
	if token := BearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	cookie, err := r.Cookie(AccessTokenCookie)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func BearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
