package auth

import (
	"testing"
	"time"

	"petmarket/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testUser() *models.User {
	return &models.User{
		ID:    primitive.NewObjectID(),
		Email: "ana@example.com",
		Role:  models.RoleAdmin,
	}
}

func TestSessionRoundTrip(t *testing.T) {
	mgr := NewManager("secret", time.Hour, 15*time.Minute)
	user := testUser()

	token, err := mgr.IssueSession(user)
	require.NoError(t, err)

	claims, err := mgr.VerifySession(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.Subject)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestResetTokenRoundTrip(t *testing.T) {
	mgr := NewManager("secret", time.Hour, 15*time.Minute)

	token, err := mgr.IssueResetToken("user-1")
	require.NoError(t, err)

	claims, err := mgr.VerifyResetToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestPurposeIsEnforced(t *testing.T) {
	mgr := NewManager("secret", time.Hour, 15*time.Minute)

	session, err := mgr.IssueSession(testUser())
	require.NoError(t, err)
	reset, err := mgr.IssueResetToken("user-1")
	require.NoError(t, err)

	_, err = mgr.VerifyResetToken(session)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
	_, err = mgr.VerifySession(reset)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestWrongSecretRejected(t *testing.T) {
	mgr := NewManager("secret", time.Hour, 15*time.Minute)
	other := NewManager("different", time.Hour, 15*time.Minute)

	token, err := mgr.IssueSession(testUser())
	require.NoError(t, err)

	_, err = other.VerifySession(token)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestExpiredTokenRejected(t *testing.T) {
	mgr := NewManager("secret", -time.Minute, -time.Minute)

	token, err := mgr.IssueSession(testUser())
	require.NoError(t, err)

	_, err = mgr.VerifySession(token)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestGarbageTokenRejected(t *testing.T) {
	mgr := NewManager("secret", time.Hour, 15*time.Minute)

	_, err := mgr.VerifySession("not-a-token")
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}
