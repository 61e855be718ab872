// Package auth implements account registration, login sessions and
// request identity resolution.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/freshcart/internal/platform/errors"
	"github.com/louisbranch/freshcart/internal/platform/id"
	"github.com/louisbranch/freshcart/internal/storage"
)

// DefaultSessionTTL bounds how long a login session stays valid.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Identity describes the authenticated caller of a request.
type Identity struct {
	UserID string
	Role   storage.Role
}

// IsVendor reports whether the identity may manage stores and orders.
func (i Identity) IsVendor() bool {
	return i.Role == storage.RoleVendor
}

// Service provides account and session operations.
type Service struct {
	users    storage.UserStore
	sessions storage.SessionStore
	tokens   TokenConfig
	now      func() time.Time
}

// NewService builds an auth service over the given stores.
func NewService(users storage.UserStore, sessions storage.SessionStore, tokens TokenConfig) *Service {
	now := tokens.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		now:      now,
	}
}

// RegisterRequest carries the inputs for account creation.
type RegisterRequest struct {
	Email       string
	Password    string
	DisplayName string
	Role        string
}

// Register creates a new account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (storage.User, error) {
	if s == nil || s.users == nil {
		return storage.User{}, fmt.Errorf("auth service is not configured")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return storage.User{}, apperrors.New(apperrors.CodeAuthEmailEmpty, "email is required")
	}
	if !validEmail(email) {
		return storage.User{}, apperrors.New(apperrors.CodeAuthEmailInvalid, "email is malformed")
	}
	if len(req.Password) < MinPasswordLength {
		return storage.User{}, apperrors.New(apperrors.CodeAuthPasswordTooShort, "password is too short")
	}
	role, err := parseRole(req.Role)
	if err != nil {
		return storage.User{}, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return storage.User{}, err
	}
	userID, err := id.NewID()
	if err != nil {
		return storage.User{}, fmt.Errorf("generate user id: %w", err)
	}

	now := s.now().UTC()
	user := storage.User{
		ID:           userID,
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if user.DisplayName == "" {
		user.DisplayName = email[:strings.Index(email, "@")]
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return storage.User{}, apperrors.New(apperrors.CodeAuthEmailTaken, "email is already registered")
		}
		return storage.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and opens a session, returning the signed
// session token.
func (s *Service) Login(ctx context.Context, email, password string) (storage.User, string, error) {
	if s == nil || s.users == nil || s.sessions == nil {
		return storage.User{}, "", fmt.Errorf("auth service is not configured")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return storage.User{}, "", apperrors.New(apperrors.CodeAuthInvalidCredentials, "email and password are required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.User{}, "", apperrors.New(apperrors.CodeAuthInvalidCredentials, "unknown email or wrong password")
		}
		return storage.User{}, "", fmt.Errorf("load user: %w", err)
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return storage.User{}, "", apperrors.New(apperrors.CodeAuthInvalidCredentials, "unknown email or wrong password")
	}

	sessionID, err := id.NewID()
	if err != nil {
		return storage.User{}, "", fmt.Errorf("generate session id: %w", err)
	}
	now := s.now().UTC()
	ttl := s.tokens.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	session := storage.Session{
		ID:        sessionID,
		UserID:    user.ID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return storage.User{}, "", fmt.Errorf("create session: %w", err)
	}

	token, err := s.tokens.MintToken(user, sessionID)
	if err != nil {
		return storage.User{}, "", err
	}
	return user, token, nil
}

// Logout revokes the session carried by the token. Unknown sessions are
// treated as already logged out.
func (s *Service) Logout(ctx context.Context, token string) error {
	if s == nil || s.sessions == nil {
		return fmt.Errorf("auth service is not configured")
	}
	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		return err
	}
	if err := s.sessions.RevokeSession(ctx, claims.SessionID, s.now().UTC()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Authenticate resolves the identity behind a session token, rejecting
// revoked and expired sessions.
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	if s == nil || s.sessions == nil {
		return Identity{}, fmt.Errorf("auth service is not configured")
	}
	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		return Identity{}, err
	}

	session, err := s.sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Identity{}, apperrors.New(apperrors.CodeAuthSessionInvalid, "session not found")
		}
		return Identity{}, fmt.Errorf("load session: %w", err)
	}
	now := s.now().UTC()
	if !session.RevokedAt.IsZero() {
		return Identity{}, apperrors.New(apperrors.CodeAuthSessionInvalid, "session revoked")
	}
	if !session.ExpiresAt.After(now) {
		return Identity{}, apperrors.New(apperrors.CodeAuthSessionInvalid, "session expired")
	}
	if session.UserID != claims.UserID {
		return Identity{}, apperrors.New(apperrors.CodeAuthSessionInvalid, "session user mismatch")
	}

	return Identity{UserID: claims.UserID, Role: claims.Role}, nil
}

// GetUser loads one account record.
func (s *Service) GetUser(ctx context.Context, userID string) (storage.User, error) {
	if s == nil || s.users == nil {
		return storage.User{}, fmt.Errorf("auth service is not configured")
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.User{}, apperrors.New(apperrors.CodeNotFound, "user not found")
		}
		return storage.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func parseRole(value string) (storage.Role, error) {
	role := storage.Role(strings.ToLower(strings.TrimSpace(value)))
	if role == "" {
		return storage.RoleCustomer, nil
	}
	switch role {
	case storage.RoleCustomer, storage.RoleVendor:
		return role, nil
	}
	return "", apperrors.WithMetadata(apperrors.CodeAuthInvalidRole, "unknown account role", map[string]string{
		"role": value,
	})
}

// validEmail applies a minimal shape check; real validation happens when
// the address is used.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(email, " \t")
}
