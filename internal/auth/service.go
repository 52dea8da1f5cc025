package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yxshee/biteback/services/api/internal/platform/identifier"
)

var (
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionNotFound    = errors.New("session not found")
)

// User is the auth aggregate root.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Session is the auth refresh-session state tracked server-side.
type Session struct {
	ID               string
	UserID           string
	RefreshTokenHash string
	ExpiresAt        time.Time
}

// Repository persists users and refresh sessions. Lookups report absence
// with ErrUserNotFound or ErrSessionNotFound; CreateUser reports a taken
// e-mail with ErrEmailInUse.
type Repository interface {
	CreateUser(ctx context.Context, user User) error
	UserByID(ctx context.Context, userID string) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	SaveSession(ctx context.Context, session Session) error
	SessionByID(ctx context.Context, sessionID string) (Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteSessionsExpiredBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Service provides first-party auth and session management behavior.
type Service struct {
	repo           Repository
	bootstrapRoles map[string]Role
	now            func() time.Time
}

func NewService(repo Repository, bootstrapRoles map[string]Role) *Service {
	normalized := make(map[string]Role, len(bootstrapRoles))
	for email, role := range bootstrapRoles {
		normalized[normalizeEmail(email)] = role
	}

	return &Service{
		repo:           repo,
		bootstrapRoles: normalized,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// BuildBootstrapRoleMap turns comma separated e-mail lists into role
// assignments applied at registration. Owner wins over staff.
func BuildBootstrapRoleMap(owners, staff string) map[string]Role {
	assignments := make(map[string]Role)
	assign(assignments, staff, RoleStaff)
	assign(assignments, owners, RoleOwner)
	return assignments
}

func assign(assignments map[string]Role, emails string, role Role) {
	for _, raw := range strings.Split(emails, ",") {
		email := normalizeEmail(raw)
		if email == "" {
			continue
		}
		assignments[email] = role
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, email, name, plainPassword string) (User, error) {
	normalized := normalizeEmail(email)
	if normalized == "" || !strings.Contains(normalized, "@") {
		return User{}, ErrInvalidEmail
	}

	hash, err := HashPassword(plainPassword)
	if err != nil {
		return User{}, err
	}

	role := RoleCustomer
	if bootstrappedRole, exists := s.bootstrapRoles[normalized]; exists {
		role = bootstrappedRole
	}

	user := User{
		ID:           identifier.New("usr"),
		Email:        normalized,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Service) Authenticate(ctx context.Context, email, plainPassword string) (User, error) {
	user, err := s.repo.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if !VerifyPassword(user.PasswordHash, plainPassword) {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

func (s *Service) GetUserByID(ctx context.Context, userID string) (User, error) {
	return s.repo.UserByID(ctx, userID)
}

func (s *Service) SaveSession(ctx context.Context, session Session) error {
	return s.repo.SaveSession(ctx, session)
}

// GetSession returns a live session; expired sessions read as missing.
func (s *Service) GetSession(ctx context.Context, sessionID string) (Session, error) {
	session, err := s.repo.SessionByID(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if !session.ExpiresAt.After(s.now()) {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	return s.repo.DeleteSession(ctx, sessionID)
}

// PurgeExpiredSessions removes sessions that expired before now.
func (s *Service) PurgeExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	return s.repo.DeleteSessionsExpiredBefore(ctx, now)
}
