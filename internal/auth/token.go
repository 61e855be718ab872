package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/freshcart/internal/platform/errors"
	"github.com/louisbranch/freshcart/internal/storage"
)

// TokenConfig defines how session tokens are minted and verified.
type TokenConfig struct {
	Issuer string
	Key    []byte
	TTL    time.Duration
	Now    func() time.Time
}

// Claims captures validated session token claims.
type Claims struct {
	UserID    string
	SessionID string
	Role      storage.Role
	ExpiresAt time.Time
}

// sessionClaims is the internal claims type used for JWT parsing.
type sessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// MintToken signs a session token for the given user and session.
func (c TokenConfig) MintToken(user storage.User, sessionID string) (string, error) {
	if len(c.Key) == 0 {
		return "", fmt.Errorf("token key is required")
	}
	if strings.TrimSpace(user.ID) == "" {
		return "", fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return "", fmt.Errorf("session id is required")
	}
	now := c.now()
	ttl := c.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.Issuer,
			Subject:   user.ID,
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: string(user.Role),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.Key)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a session token.
func (c TokenConfig) VerifyToken(value string) (Claims, error) {
	if len(c.Key) == 0 {
		return Claims{}, fmt.Errorf("token key is required")
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return Claims{}, apperrors.New(apperrors.CodeAuthUnauthenticated, "session token is required")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	}
	if c.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.Issuer))
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(value, &claims, func(*jwt.Token) (any, error) {
		return c.Key, nil
	}, options...)
	if err != nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeAuthSessionInvalid, "invalid session token", err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return Claims{}, apperrors.New(apperrors.CodeAuthSessionInvalid, "session token missing claims")
	}

	result := Claims{
		UserID:    claims.Subject,
		SessionID: claims.ID,
		Role:      storage.Role(claims.Role),
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	return result, nil
}

func (c TokenConfig) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
