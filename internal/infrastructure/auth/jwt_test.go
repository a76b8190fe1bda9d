package auth

import (
	"testing"
	"time"

	"github.com/equiptrack/backend/internal/domain/identity"
	"github.com/equiptrack/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	cfg := config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	}
	return NewJWTService(cfg)
}

func newTestUser(role identity.Role, branchID *uuid.UUID) *identity.User {
	user, err := identity.NewUser("testuser", "Test User", "hash", role, branchID)
	if err != nil {
		panic(err)
	}
	return user
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newTestJWTService()
	branchID := uuid.New()
	user := newTestUser(identity.RoleSeller, &branchID)

	token, expiresAt, err := svc.GenerateToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	principal, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.UserID)
	assert.Equal(t, "testuser", principal.Username)
	assert.Equal(t, identity.RoleSeller, principal.Role)
	require.NotNil(t, principal.BranchID)
	assert.Equal(t, branchID, *principal.BranchID)
}

func TestJWTService_BranchlessUser(t *testing.T) {
	svc := newTestJWTService()
	user := newTestUser(identity.RoleDelivery, nil)

	token, _, err := svc.GenerateToken(user)
	require.NoError(t, err)

	principal, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Nil(t, principal.BranchID)
	assert.Equal(t, identity.RoleDelivery, principal.Role)
}

func TestJWTService_ValidateToken_Errors(t *testing.T) {
	svc := newTestJWTService()
	user := newTestUser(identity.RoleCashier, nil)

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                "another-secret-key-that-is-long-x",
			AccessTokenExpiration: 15 * time.Minute,
			Issuer:                "test-issuer",
		})
		token, _, err := other.GenerateToken(user)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-at-least-32-chars",
			AccessTokenExpiration: -time.Minute,
			Issuer:                "test-issuer",
		})
		token, _, err := expired.GenerateToken(user)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-at-least-32-chars",
			AccessTokenExpiration: 15 * time.Minute,
			Issuer:                "someone-else",
		})
		token, _, err := other.GenerateToken(user)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
