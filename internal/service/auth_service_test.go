package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/config"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth() *AuthService {
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: 4}
	return NewAuthService(cfg, nil, nil, nopLog)
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	auth := newTestAuth()
	user := &model.User{ID: identity.ID(9007199254740993), Roles: []model.Role{model.RoleTutor}}

	token, jti, err := auth.GenerateToken(user, time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, jti, claims.ID)

	actor := claims.Actor()
	assert.True(t, actor.HasRole(model.RoleTutor))
	assert.False(t, actor.HasRole(model.RoleAdmin))
}

func TestAuthService_ValidateTokenRejects(t *testing.T) {
	auth := newTestAuth()
	user := &model.User{ID: 7, Roles: []model.Role{model.RoleStudent}}

	expired, _, err := auth.GenerateToken(user, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	other := NewAuthService(&config.Config{JWTSecret: "other", JWTExpiry: time.Hour}, nil, nil, nopLog)
	foreign, _, err := other.GenerateToken(user, time.Now())
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 7})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":      expired,
		"wrong secret": foreign,
		"unsigned":     unsigned,
		"garbage":      "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := auth.ValidateToken(token)
			assert.Error(t, err)
		})
	}
}

func TestAuthService_Password(t *testing.T) {
	auth := newTestAuth()

	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)

	assert.NoError(t, auth.CheckPassword(hash, "correct horse"))
	assert.ErrorIs(t, auth.CheckPassword(hash, "battery staple"), ErrInvalidCredentials)
}
