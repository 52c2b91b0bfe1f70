package auth

import (
	"fmt"
	"time"

	"petmarket/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const (
	purposeSession = "session"
	purposeReset   = "password-reset"
)

// Claims carried by every token this service issues
type Claims struct {
	Email   string `json:"email,omitempty"`
	Role    string `json:"role,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HMAC-signed JWTs for sessions and
// password-reset links.
type Manager struct {
	secret     []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
}

// NewManager creates a token manager
func NewManager(secret string, sessionTTL, resetTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
	}
}

// IssueSession signs a bearer token for an authenticated user
func (m *Manager) IssueSession(user *models.User) (string, error) {
	return m.sign(&Claims{
		Email:   user.Email,
		Role:    user.Role,
		Purpose: purposeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

// VerifySession parses a bearer token and returns its claims
func (m *Manager) VerifySession(token string) (*Claims, error) {
	return m.verify(token, purposeSession)
}

// IssueResetToken signs a short-lived single-purpose password-reset token
func (m *Manager) IssueResetToken(userID string) (string, error) {
	return m.sign(&Claims{
		Purpose: purposeReset,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.resetTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

// VerifyResetToken parses a password-reset token and returns its claims
func (m *Manager) VerifyResetToken(token string) (*Claims, error) {
	return m.verify(token, purposeReset)
}

func (m *Manager) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (m *Manager) verify(tokenString, purpose string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, models.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Purpose != purpose {
		return nil, models.ErrInvalidToken
	}
	return claims, nil
}
