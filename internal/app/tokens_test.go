package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/semla/internal/faults"
	"github.com/shrimpsizemoose/semla/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:       42,
		Username: "SwiftTiger42",
		Email:    "tiger@example.com",
		Role:     models.RoleCandidate,
	}
}

func TestIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 8*time.Hour)

	token, expires, err := issuer.Issue(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(8*time.Hour), expires, time.Minute)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "SwiftTiger42", claims.Username)
	assert.Equal(t, models.RoleCandidate, claims.Role)
	assert.Equal(t, "tiger@example.com", claims.Email)
}

func TestVerifyFailures(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 8*time.Hour)

	requireAuthFault := func(t *testing.T, err error) {
		t.Helper()
		require.Error(t, err)
		kind, ok := faults.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, faults.KindAuth, kind)
	}

	t.Run("empty token", func(t *testing.T) {
		_, err := issuer.Verify("")
		requireAuthFault(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := issuer.Verify("not.a.token")
		requireAuthFault(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		forged := NewTokenIssuer("other-secret", 8*time.Hour)
		token, _, err := forged.Issue(testUser())
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		requireAuthFault(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		shortLived := NewTokenIssuer("test-secret", -time.Minute)
		token, _, err := shortLived.Issue(testUser())
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		requireAuthFault(t, err)
	})
}

func TestRequireRole(t *testing.T) {
	claims := &Claims{UserID: 42, Role: models.RoleCandidate}

	assert.NoError(t, RequireRole(claims, models.RoleCandidate))

	err := RequireRole(claims, models.RoleAdmin)
	require.Error(t, err)
	kind, ok := faults.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, faults.KindForbidden, kind)
}
