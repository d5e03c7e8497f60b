package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firecert/internal/model"
	"firecert/internal/repository"
)

func newUserService(t *testing.T) (UserService, repository.UserRepository) {
	t.Helper()
	env := newServiceTestEnv(t)
	repo := repository.NewUserRepository(env.db)
	return NewUserService(repo), repo
}

func ownerRequest() CreateUserRequest {
	return CreateUserRequest{
		Username: "maria",
		Email:    "maria@example.com",
		Phone:    "09171234567",
		Password: "s3cret-pass",
		Role:     model.RoleOwner,
	}
}

func TestUserServiceCreateUser(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	resp, err := svc.CreateUser(ctx, ownerRequest())
	require.NoError(t, err)
	assert.Equal(t, "maria", resp.Username)
	assert.Equal(t, model.RoleOwner, resp.Role)

	t.Run("duplicate username", func(t *testing.T) {
		req := ownerRequest()
		req.Email = "other@example.com"
		_, err := svc.CreateUser(ctx, req)
		assert.ErrorContains(t, err, "username already exists")
	})

	t.Run("duplicate email", func(t *testing.T) {
		req := ownerRequest()
		req.Username = "maria2"
		_, err := svc.CreateUser(ctx, req)
		assert.ErrorContains(t, err, "email already exists")
	})

	t.Run("unknown role", func(t *testing.T) {
		req := ownerRequest()
		req.Username = "maria3"
		req.Email = "maria3@example.com"
		req.Role = "superuser"
		_, err := svc.CreateUser(ctx, req)
		assert.ErrorContains(t, err, "invalid role")
	})
}

func TestUserServiceLogin(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	t.Setenv("JWT_SECRET", "test-secret")

	created, err := svc.CreateUser(ctx, ownerRequest())
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		tokens, err := svc.Login(ctx, LoginUserRequest{Email: "maria@example.com", Password: "s3cret-pass"})
		require.NoError(t, err)
		require.NotEmpty(t, tokens.Token)
		require.NotEmpty(t, tokens.RefreshToken)

		// The access token carries the user id and role.
		parsed, err := jwt.Parse(tokens.Token, func(*jwt.Token) (any, error) {
			return []byte("test-secret"), nil
		})
		require.NoError(t, err)
		claims := parsed.Claims.(jwt.MapClaims)
		assert.Equal(t, created.ID.String(), claims["sub"])
		assert.Equal(t, model.RoleOwner, claims["role"])
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginUserRequest{Email: "maria@example.com", Password: "wrong"})
		assert.ErrorContains(t, err, "invalid email or password")
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginUserRequest{Email: "ghost@example.com", Password: "s3cret-pass"})
		assert.ErrorContains(t, err, "invalid email or password")
	})
}

func TestUserServiceRefreshTokenRotation(t *testing.T) {
	svc, repo := newUserService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, ownerRequest())
	require.NoError(t, err)
	tokens, err := svc.Login(ctx, LoginUserRequest{Email: "maria@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	rotated, err := svc.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// A refresh token is single use.
	_, err = svc.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	assert.ErrorContains(t, err, "invalid refresh token")

	t.Run("expired token is rejected and deleted", func(t *testing.T) {
		stored, err := repo.GetRefreshToken(ctx, rotated.RefreshToken)
		require.NoError(t, err)
		require.NoError(t, repo.CreateRefreshToken(ctx, &model.RefreshToken{
			UserID:    stored.UserID,
			Token:     "expired-token",
			ExpiresAt: time.Now().Add(-time.Hour),
		}))

		_, err = svc.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: "expired-token"})
		assert.ErrorContains(t, err, "expired")
		_, err = repo.GetRefreshToken(ctx, "expired-token")
		assert.Error(t, err)
	})
}

func TestUserServiceUpdateAndDelete(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, ownerRequest())
	require.NoError(t, err)
	id := created.ID.String()

	updated, err := svc.UpdateUser(ctx, id, UpdateUserRequest{Role: model.RoleInspector, Phone: "09181234567"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleInspector, updated.Role)
	assert.Equal(t, "09181234567", updated.Phone)

	_, err = svc.UpdateUser(ctx, id, UpdateUserRequest{Role: "root"})
	assert.ErrorContains(t, err, "invalid role")

	require.NoError(t, svc.DeleteUser(ctx, id))
	_, err = svc.GetUserByID(ctx, id)
	assert.ErrorContains(t, err, "not found")
}
