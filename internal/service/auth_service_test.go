package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sodfa-app/sodfa-server/internal/dto"
	"github.com/sodfa-app/sodfa-server/internal/identity"
	"github.com/sodfa-app/sodfa-server/internal/repository"
	"github.com/sodfa-app/sodfa-server/pkg/apperror"
)

const testSecret = "test-secret"

func newAuthFixture(t *testing.T) AuthService {
	db := setupTestDB(t)
	return NewAuthService(repository.NewUserRepository(db), testSecret, time.Hour)
}

func parseTestToken(t *testing.T, raw string) *identity.TokenClaims {
	t.Helper()
	claims := &identity.TokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	return claims
}

func TestSignUpAndLogin(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, dto.SignUpRequest{
		Email:       "rina@example.com",
		Password:    "correct horse",
		DisplayName: "Rina",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Rina", resp.DisplayName)
	assert.False(t, resp.Anonymous)

	claims := parseTestToken(t, resp.Token)
	assert.Equal(t, resp.UserID, claims.Subject)
	assert.False(t, claims.Anonymous)

	// Duplicate email rejected.
	_, err = svc.SignUp(ctx, dto.SignUpRequest{Email: "rina@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	// Login round-trips.
	logged, err := svc.Login(ctx, dto.LoginRequest{Email: "rina@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, logged.UserID)
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, dto.SignUpRequest{Email: "rina@example.com", Password: "correct horse"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "rina@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	// Unknown accounts get the same error as a bad password.
	_, err = svc.Login(ctx, dto.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestGuestSession(t *testing.T) {
	svc := newAuthFixture(t)

	resp, err := svc.GuestSession(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.Anonymous)
	assert.Equal(t, identity.FallbackAnonymous, resp.DisplayName)
	assert.NotEmpty(t, resp.UserID)

	claims := parseTestToken(t, resp.Token)
	assert.True(t, claims.Anonymous)
	assert.Equal(t, resp.UserID, claims.Subject)

	// Ephemeral sessions resolve to the shadow class.
	session := claims.Session()
	id, err := identity.Resolve(session, "")
	require.NoError(t, err)
	assert.Equal(t, identity.ClassShadow, id.Class)
}
