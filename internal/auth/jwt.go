// Package auth provides authentication and authorization primitives for the
// institute API: signed session tokens for admins and students, bcrypt password
// hashing and password strength rules for admin accounts.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in session tokens
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
	RoleStudent    = "student"
)

// ErrInvalidToken is returned for malformed, expired or wrongly signed tokens
var ErrInvalidToken = errors.New("invalid token")

// Claims represents JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims belong to an admin or super admin
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin || c.Role == RoleSuperAdmin
}

// Satisfies reports whether a token with this role may access a route requiring role.
// super_admin satisfies every admin check; students only satisfy student checks.
func Satisfies(have, required string) bool {
	if have == required {
		return true
	}
	return have == RoleSuperAdmin && required == RoleAdmin
}

// TokenManager signs and verifies session tokens with a shared HMAC secret
type TokenManager struct {
	secret     []byte
	issuer     string
	adminTTL   time.Duration
	studentTTL time.Duration
	now        func() time.Time
}

// NewTokenManager creates a token manager
func NewTokenManager(secret, issuer string, adminTTL, studentTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		adminTTL:   adminTTL,
		studentTTL: studentTTL,
		now:        time.Now,
	}
}

// AdminToken issues a token for an admin user
func (m *TokenManager) AdminToken(userID, username, role string) (string, error) {
	if role != RoleAdmin && role != RoleSuperAdmin {
		return "", fmt.Errorf("not an admin role: %s", role)
	}
	return m.sign(userID, username, role, m.adminTTL)
}

// StudentToken issues a token for a student identified by their certificate record
func (m *TokenManager) StudentToken(studentID, idCardNumber string) (string, error) {
	return m.sign(studentID, idCardNumber, RoleStudent, m.studentTTL)
}

func (m *TokenManager) sign(userID, username, role string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, expiry and issuer and returns the claims
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	switch claims.Role {
	case RoleAdmin, RoleSuperAdmin, RoleStudent:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	return claims, nil
}
