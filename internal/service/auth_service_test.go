package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ping-backend/internal/domain"
	"ping-backend/internal/service"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		user, err := env.auth.Register(ctx, service.RegisterInput{
			Email:    "Alice@Example.com",
			Name:     "alice",
			Password: "Password1!",
		})
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)

		sess, err := env.auth.Login(ctx, service.LoginInput{
			Email:    "alice@example.com",
			Password: "Password1!",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, sess.Token)
		assert.Equal(t, user.ID, sess.User.ID)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		_, err := env.auth.Register(ctx, service.RegisterInput{
			Email:    "alice@example.com",
			Name:     "alice again",
			Password: "Password1!",
		})
		require.Error(t, err)
		assert.Equal(t, domain.CodeBadRequest, domain.CodeOf(err))
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, err := env.auth.Login(ctx, service.LoginInput{
			Email:    "alice@example.com",
			Password: "wrong",
		})
		require.Error(t, err)
		assert.Equal(t, domain.CodeUnauthenticated, domain.CodeOf(err))
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		_, err := env.auth.Login(ctx, service.LoginInput{
			Email:    "nobody@example.com",
			Password: "Password1!",
		})
		require.Error(t, err)
		assert.Equal(t, domain.CodeUnauthenticated, domain.CodeOf(err))
	})
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, service.RegisterInput{
		Email:    "bob@example.com",
		Name:     "bob",
		Password: "Password1!",
	})
	require.NoError(t, err)

	sess, err := env.auth.Login(ctx, service.LoginInput{
		Email:    "bob@example.com",
		Password: "Password1!",
	})
	require.NoError(t, err)

	t.Run("ValidToken", func(t *testing.T) {
		got, err := env.auth.Authenticate(ctx, sess.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("MissingToken", func(t *testing.T) {
		_, err := env.auth.Authenticate(ctx, "")
		assert.Equal(t, domain.CodeUnauthenticated, domain.CodeOf(err))
	})

	t.Run("UnknownToken", func(t *testing.T) {
		_, err := env.auth.Authenticate(ctx, "not-a-session")
		assert.Equal(t, domain.CodeUnauthenticated, domain.CodeOf(err))
	})

	t.Run("ExpiredTokenIsDeleted", func(t *testing.T) {
		expired := &domain.Session{
			Token:     "expired-token",
			UserID:    user.ID,
			ExpiresAt: time.Now().Add(-time.Minute).UTC(),
		}
		require.NoError(t, env.sessions.Create(ctx, expired))

		_, err := env.auth.Authenticate(ctx, expired.Token)
		assert.Equal(t, domain.CodeUnauthenticated, domain.CodeOf(err))

		got, err := env.sessions.GetByToken(ctx, expired.Token)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("LogoutInvalidates", func(t *testing.T) {
		require.NoError(t, env.auth.Logout(ctx, sess.Token))
		_, err := env.auth.Authenticate(ctx, sess.Token)
		assert.Equal(t, domain.CodeUnauthenticated, domain.CodeOf(err))
	})
}

func TestBeginOAuthUnknownProvider(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.BeginOAuth("myspace")
	require.Error(t, err)
	assert.Equal(t, domain.CodeBadRequest, domain.CodeOf(err))
}
