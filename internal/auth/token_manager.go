package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
)

// Claims is what a verified token says about its bearer.
type Claims struct {
	TokenID   string
	UserID    string
	Role      Role
	SessionID string
	TokenType TokenType
	ExpiresAt time.Time
}

// biteBackClaims is the JWT body. The role travels in the token so hard
// authenticated routes need no user lookup.
type biteBackClaims struct {
	Role      Role      `json:"role"`
	SessionID string    `json:"sid"`
	TokenType TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair is the access and refresh token handed out for one session.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenManager signs and verifies HS256 tokens for a single issuer.
type TokenManager struct {
	secret     []byte
	issuer     string
	ttl        map[TokenType]time.Duration
	parser     *jwt.Parser
	now        func() time.Time
	newTokenID func() string
}

func NewTokenManager(secret, issuer string, accessTokenTTL, refreshTTL time.Duration) (*TokenManager, error) {
	switch {
	case secret == "":
		return nil, errors.New("token secret must not be empty")
	case issuer == "":
		return nil, errors.New("token issuer must not be empty")
	case accessTokenTTL <= 0 || refreshTTL <= 0:
		return nil, errors.New("token ttl values must be positive")
	}

	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl: map[TokenType]time.Duration{
			TokenTypeAccess:  accessTokenTTL,
			TokenTypeRefresh: refreshTTL,
		},
		parser:     jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
		now:        func() time.Time { return time.Now().UTC() },
		newTokenID: uuid.NewString,
	}, nil
}

// IssueTokenPair signs both tokens of sessionID for user. Every token gets
// its own id, so a rotated refresh token never equals its predecessor.
func (m *TokenManager) IssueTokenPair(user User, sessionID string) (TokenPair, error) {
	issuedAt := m.now()

	access, accessExpiry, err := m.sign(user, sessionID, TokenTypeAccess, issuedAt)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExpiry, err := m.sign(user, sessionID, TokenTypeRefresh, issuedAt)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExpiry,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

func (m *TokenManager) sign(user User, sessionID string, tokenType TokenType, issuedAt time.Time) (string, time.Time, error) {
	expiresAt := issuedAt.Add(m.ttl[tokenType])
	claims := biteBackClaims{
		Role:      user.Role,
		SessionID: sessionID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        m.newTokenID(),
			Issuer:    m.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseAndValidate verifies signature, issuer and expiry of rawToken and
// checks it is of expectedType. Expired tokens yield ErrTokenExpired, a
// token of the other kind ErrInvalidTokenType and anything else
// ErrInvalidToken.
func (m *TokenManager) ParseAndValidate(rawToken string, expectedType TokenType) (Claims, error) {
	var claims biteBackClaims
	token, err := m.parser.ParseWithClaims(rawToken, &claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if errors.Is(err, jwt.ErrTokenExpired) {
		return Claims{}, ErrTokenExpired
	}
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	if !claims.VerifyIssuer(m.issuer, true) || claims.Subject == "" || claims.ExpiresAt == nil || !claims.Role.IsKnown() {
		return Claims{}, ErrInvalidToken
	}
	if claims.TokenType != expectedType {
		return Claims{}, ErrInvalidTokenType
	}

	return Claims{
		TokenID:   claims.ID,
		UserID:    claims.Subject,
		Role:      claims.Role,
		SessionID: claims.SessionID,
		TokenType: claims.TokenType,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// HashToken is the form refresh tokens are stored in.
func HashToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}
