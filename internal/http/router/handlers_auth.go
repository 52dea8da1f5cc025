package router

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/yxshee/biteback/services/api/internal/access"
	"github.com/yxshee/biteback/services/api/internal/auth"
	"github.com/yxshee/biteback/services/api/internal/platform/identifier"
)

type authRegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authRefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type authResponse struct {
	AccessToken      string      `json:"access_token"`
	RefreshToken     string      `json:"refresh_token"`
	AccessExpiresAt  time.Time   `json:"access_expires_at"`
	RefreshExpiresAt time.Time   `json:"refresh_expires_at"`
	User             authUserDTO `json:"user"`
}

type authUserDTO struct {
	ID      string     `json:"id"`
	Email   string     `json:"email"`
	Name    string     `json:"name"`
	Role    auth.Role  `json:"role"`
	Created *time.Time `json:"created_at,omitempty"`
}

func toAuthUserDTO(user auth.User) authUserDTO {
	created := user.CreatedAt
	return authUserDTO{
		ID:      user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Role:    user.Role,
		Created: &created,
	}
}

func (a *api) issueTokensForUser(ctx context.Context, user auth.User) (authResponse, error) {
	sessionID := identifier.New("ses")
	pair, err := a.tokenManager.IssueTokenPair(user, sessionID)
	if err != nil {
		return authResponse{}, err
	}

	err = a.authService.SaveSession(ctx, auth.Session{
		ID:               sessionID,
		UserID:           user.ID,
		RefreshTokenHash: auth.HashToken(pair.RefreshToken),
		ExpiresAt:        pair.RefreshExpiresAt,
	})
	if err != nil {
		return authResponse{}, err
	}

	return authResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		User:             toAuthUserDTO(user),
	}, nil
}

// setAccessCookie lets browser clients reach optional-identity routes and
// the notification stream without attaching a header.
func setAccessCookie(w http.ResponseWriter, r *http.Request, response authResponse) {
	http.SetCookie(w, &http.Cookie{
		Name:     access.AccessTokenCookie,
		Value:    response.AccessToken,
		Path:     "/",
		Expires:  response.AccessExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAccessCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     access.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func (a *api) handleAuthRegister(w http.ResponseWriter, r *http.Request) {
	var req authRegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := a.authService.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailInUse):
			writeError(w, http.StatusConflict, "email already registered")
		case errors.Is(err, auth.ErrWeakPassword):
			writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		case errors.Is(err, auth.ErrPasswordTooLong):
			writeError(w, http.StatusBadRequest, "password must be at most 72 bytes")
		case errors.Is(err, auth.ErrInvalidEmail):
			writeError(w, http.StatusBadRequest, "a valid email is required")
		default:
			writeInternalError(w, r, err, "registration failed")
		}
		return
	}

	response, err := a.issueTokensForUser(r.Context(), user)
	if err != nil {
		writeInternalError(w, r, err, "token issuance failed")
		return
	}

	setAccessCookie(w, r, response)
	writeJSON(w, http.StatusCreated, response)
}

func (a *api) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := a.authService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			writeInternalError(w, r, err, "login failed")
			return
		}
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	response, err := a.issueTokensForUser(r.Context(), user)
	if err != nil {
		writeInternalError(w, r, err, "token issuance failed")
		return
	}

	setAccessCookie(w, r, response)
	writeJSON(w, http.StatusOK, response)
}

func (a *api) handleAuthRefresh(w http.ResponseWriter, r *http.Request) {
	var req authRefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims, err := a.tokenManager.ParseAndValidate(strings.TrimSpace(req.RefreshToken), auth.TokenTypeRefresh)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	session, err := a.authService.GetSession(r.Context(), claims.SessionID)
	if err != nil {
		if !errors.Is(err, auth.ErrSessionNotFound) {
			writeInternalError(w, r, err, "session lookup failed")
			return
		}
		writeError(w, http.StatusUnauthorized, "invalid refresh session")
		return
	}
	if session.UserID != claims.UserID {
		writeError(w, http.StatusUnauthorized, "invalid refresh session")
		return
	}
	if session.RefreshTokenHash != auth.HashToken(strings.TrimSpace(req.RefreshToken)) {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	user, err := a.authService.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if !errors.Is(err, auth.ErrUserNotFound) {
			writeInternalError(w, r, err, "user lookup failed")
			return
		}
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	if err := a.authService.DeleteSession(r.Context(), session.ID); err != nil {
		writeInternalError(w, r, err, "session rotation failed")
		return
	}

	response, err := a.issueTokensForUser(r.Context(), user)
	if err != nil {
		writeInternalError(w, r, err, "token issuance failed")
		return
	}

	setAccessCookie(w, r, response)
	writeJSON(w, http.StatusOK, response)
}

func (a *api) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, access.MsgAuthenticationRequired)
		return
	}

	sessionID := identity.SessionID
	var req authRefreshRequest
	if err := decodeJSON(r, &req); err == nil && strings.TrimSpace(req.RefreshToken) != "" {
		if claims, parseErr := a.tokenManager.ParseAndValidate(strings.TrimSpace(req.RefreshToken), auth.TokenTypeRefresh); parseErr == nil && claims.UserID == identity.UserID {
			sessionID = claims.SessionID
		}
	}

	if err := a.authService.DeleteSession(r.Context(), sessionID); err != nil {
		writeInternalError(w, r, err, "logout failed")
		return
	}

	clearAccessCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (a *api) handleAuthMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, access.MsgAuthenticationRequired)
		return
	}

	user, err := a.authService.GetUserByID(r.Context(), identity.UserID)
	if err != nil {
		if !errors.Is(err, auth.ErrUserNotFound) {
			writeInternalError(w, r, err, "user lookup failed")
			return
		}
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, toAuthUserDTO(user))
}
