package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/freshcart/internal/storage"
)

// CreateUser inserts one account record.
func (s *Store) CreateUser(ctx context.Context, user storage.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	userID := strings.TrimSpace(user.ID)
	email := strings.ToLower(strings.TrimSpace(user.Email))
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if strings.TrimSpace(user.PasswordHash) == "" {
		return fmt.Errorf("password hash is required")
	}
	createdAt := user.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := user.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO users (id, email, password_hash, display_name, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID,
		email,
		user.PasswordHash,
		strings.TrimSpace(user.DisplayName),
		string(user.Role),
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser returns one account by ID.
func (s *Store) GetUser(ctx context.Context, id string) (storage.User, error) {
	if err := ctx.Err(); err != nil {
		return storage.User{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.User{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.User{}, fmt.Errorf("user id is required")
	}
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, email, password_hash, display_name, role, created_at, updated_at
		   FROM users WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

// GetUserByEmail returns one account by normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (storage.User, error) {
	if err := ctx.Err(); err != nil {
		return storage.User{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.User{}, fmt.Errorf("storage is not configured")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return storage.User{}, fmt.Errorf("email is required")
	}
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, email, password_hash, display_name, role, created_at, updated_at
		   FROM users WHERE email = ?`,
		email,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (storage.User, error) {
	var user storage.User
	var role string
	var createdAt int64
	var updatedAt int64
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&role,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.User{}, storage.ErrNotFound
		}
		return storage.User{}, fmt.Errorf("get user: %w", err)
	}
	user.Role = storage.Role(role)
	user.CreatedAt = fromMillis(createdAt)
	user.UpdatedAt = fromMillis(updatedAt)
	return user, nil
}

// CreateSession inserts one login session record.
func (s *Store) CreateSession(ctx context.Context, session storage.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	sessionID := strings.TrimSpace(session.ID)
	userID := strings.TrimSpace(session.UserID)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if session.ExpiresAt.IsZero() {
		return fmt.Errorf("session expiry is required")
	}
	createdAt := session.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO sessions (id, user_id, expires_at, revoked_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID,
		userID,
		toMillis(session.ExpiresAt),
		toMillis(session.RevokedAt),
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession returns one login session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (storage.Session, error) {
	if err := ctx.Err(); err != nil {
		return storage.Session{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Session{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.Session{}, fmt.Errorf("session id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, user_id, expires_at, revoked_at, created_at
		   FROM sessions WHERE id = ?`,
		id,
	)
	var session storage.Session
	var expiresAt int64
	var revokedAt int64
	var createdAt int64
	err := row.Scan(&session.ID, &session.UserID, &expiresAt, &revokedAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Session{}, storage.ErrNotFound
		}
		return storage.Session{}, fmt.Errorf("get session: %w", err)
	}
	session.ExpiresAt = fromMillis(expiresAt)
	session.RevokedAt = fromMillis(revokedAt)
	session.CreatedAt = fromMillis(createdAt)
	return session, nil
}

// RevokeSession marks one session revoked. Revoking twice keeps the first
// revocation time.
func (s *Store) RevokeSession(ctx context.Context, id string, revokedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("session id is required")
	}
	if revokedAt.IsZero() {
		revokedAt = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at = 0`,
		toMillis(revokedAt),
		id,
	)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke session rows: %w", err)
	}
	if affected == 0 {
		// Either missing or already revoked; distinguish for callers.
		if _, err := s.GetSession(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
