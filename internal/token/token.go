package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Dan9191/worklog-service/internal/models"
)

// Claims is the signed claim set of a session token
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// Identity converts the claims back to the identity they were issued for
func (c *Claims) Identity() (models.Identity, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return models.Identity{}, fmt.Errorf("invalid user id claim: %w", jwt.ErrTokenMalformed)
	}
	return models.Identity{ID: id, Username: c.Username, IsAdmin: c.IsAdmin}, nil
}

// Issuer issues and verifies session tokens
type Issuer interface {
	Issue(identity models.Identity) (string, error)
	Verify(tokenString string) (*Claims, error)
}

// Manager signs tokens with HS256 and a shared secret
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a token manager with a fixed token lifetime
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for identity, valid for the manager's ttl
func (m *Manager) Issue(identity models.Identity) (string, error) {
	now := m.now()
	claims := Claims{
		UserID:   identity.ID.String(),
		Username: identity.Username,
		IsAdmin:  identity.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify parses tokenString and checks signature and expiry. Every failure
// wraps one of the jwt sentinel errors.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("empty token: %w", jwt.ErrTokenMalformed)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenMalformed):
			return nil, err
		default:
			return nil, fmt.Errorf("%w: %v", jwt.ErrSignatureInvalid, err)
		}
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, fmt.Errorf("invalid user id claim: %w", jwt.ErrTokenMalformed)
	}

	return claims, nil
}
