package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/yxshee/biteback/services/api/internal/auth"
)

// UserRepository persists users and refresh sessions.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{db: store.db}
}

var _ auth.Repository = (*UserRepository)(nil)

const userColumns = `id, email, name, password_hash, role, created_at`

func (r *UserRepository) CreateUser(ctx context.Context, user auth.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.Name, user.PasswordHash, string(user.Role), timestamp(user.CreatedAt),
	)
	if isUniqueViolation(err) {
		return auth.ErrEmailInUse
	}
	return errors.Wrap(err, "sqlstore: insert user")
}

func (r *UserRepository) UserByID(ctx context.Context, userID string) (auth.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

func (r *UserRepository) UserByEmail(ctx context.Context, email string) (auth.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func scanUser(row scanner) (auth.User, error) {
	var (
		user auth.User
		role string
	)
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, auth.ErrUserNotFound
	}
	if err != nil {
		return auth.User{}, errors.Wrap(err, "sqlstore: scan user")
	}
	user.Role = auth.Role(role)
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

func (r *UserRepository) SaveSession(ctx context.Context, session auth.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "sqlstore: begin session save")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, session.ID); err != nil {
		return errors.Wrap(err, "sqlstore: replace session")
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, refresh_token_hash, expires_at) VALUES ($1, $2, $3, $4)`,
		session.ID, session.UserID, session.RefreshTokenHash, timestamp(session.ExpiresAt),
	)
	if err != nil {
		return errors.Wrap(err, "sqlstore: insert session")
	}
	return errors.Wrap(tx.Commit(), "sqlstore: commit session")
}

func (r *UserRepository) SessionByID(ctx context.Context, sessionID string) (auth.Session, error) {
	var session auth.Session
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, refresh_token_hash, expires_at FROM sessions WHERE id = $1`, sessionID,
	).Scan(&session.ID, &session.UserID, &session.RefreshTokenHash, &session.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Session{}, auth.ErrSessionNotFound
	}
	if err != nil {
		return auth.Session{}, errors.Wrap(err, "sqlstore: scan session")
	}
	session.ExpiresAt = session.ExpiresAt.UTC()
	return session, nil
}

func (r *UserRepository) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	return errors.Wrap(err, "sqlstore: delete session")
}

func (r *UserRepository) DeleteSessionsExpiredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, timestamp(cutoff))
	if err != nil {
		return 0, errors.Wrap(err, "sqlstore: purge sessions")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "sqlstore: purge sessions")
	}
	return int(affected), nil
}
