package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/owenwebDe/forex-crm-backend/internal/lib/jwt"
	"github.com/owenwebDe/forex-crm-backend/internal/models"
)

type UserProviderMock struct {
	mock.Mock
}

func (m *UserProviderMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func TestResolver_Resolve(t *testing.T) {
	maker := jwt.NewJWTMaker("test-secret", 30*time.Minute)

	t.Run("valid token resolves user", func(t *testing.T) {
		users := new(UserProviderMock)
		resolver := NewResolver(users, maker)

		token, err := maker.GenerateToken("uid-1", "user")
		require.NoError(t, err)

		want := &models.User{UID: "uid-1", Email: "a@b.c", IsActive: true}
		users.On("GetUser", mock.Anything, "uid-1").Return(want, nil).Once()

		got, err := resolver.Resolve(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		users.AssertExpectations(t)
	})

	t.Run("expired token", func(t *testing.T) {
		users := new(UserProviderMock)
		resolver := NewResolver(users, maker)

		expiredMaker := jwt.NewJWTMaker("test-secret", -time.Minute)
		token, err := expiredMaker.GenerateToken("uid-1", "user")
		require.NoError(t, err)

		_, err = resolver.Resolve(context.Background(), token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
		users.AssertNotCalled(t, "GetUser")
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		users := new(UserProviderMock)
		resolver := NewResolver(users, maker)

		foreignMaker := jwt.NewJWTMaker("another-secret", 30*time.Minute)
		token, err := foreignMaker.GenerateToken("uid-1", "user")
		require.NoError(t, err)

		_, err = resolver.Resolve(context.Background(), token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("empty subject", func(t *testing.T) {
		users := new(UserProviderMock)
		resolver := NewResolver(users, maker)

		token, err := maker.GenerateToken("", "user")
		require.NoError(t, err)

		_, err = resolver.Resolve(context.Background(), token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
		users.AssertNotCalled(t, "GetUser")
	})

	t.Run("user deleted after token issued", func(t *testing.T) {
		users := new(UserProviderMock)
		resolver := NewResolver(users, maker)

		token, err := maker.GenerateToken("ghost-uid", "user")
		require.NoError(t, err)

		users.On("GetUser", mock.Anything, "ghost-uid").
			Return(nil, errors.New("not found")).Once()

		_, err = resolver.Resolve(context.Background(), token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
		users.AssertExpectations(t)
	})
}

func TestResolver_ResolveActive(t *testing.T) {
	maker := jwt.NewJWTMaker("test-secret", 30*time.Minute)

	t.Run("active user passes", func(t *testing.T) {
		users := new(UserProviderMock)
		resolver := NewResolver(users, maker)

		token, err := maker.GenerateToken("uid-1", "user")
		require.NoError(t, err)

		users.On("GetUser", mock.Anything, "uid-1").
			Return(&models.User{UID: "uid-1", IsActive: true}, nil).Once()

		got, err := resolver.ResolveActive(context.Background(), token)
		require.NoError(t, err)
		assert.True(t, got.IsActive)
	})

	t.Run("deactivated user rejected", func(t *testing.T) {
		users := new(UserProviderMock)
		resolver := NewResolver(users, maker)

		token, err := maker.GenerateToken("uid-1", "user")
		require.NoError(t, err)

		users.On("GetUser", mock.Anything, "uid-1").
			Return(&models.User{UID: "uid-1", IsActive: false}, nil).Once()

		_, err = resolver.ResolveActive(context.Background(), token)
		assert.ErrorIs(t, err, ErrInactiveAccount)
		assert.NotErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("deactivation applies to already issued token", func(t *testing.T) {
		users := new(UserProviderMock)
		resolver := NewResolver(users, maker)

		token, err := maker.GenerateToken("uid-1", "user")
		require.NoError(t, err)

		users.On("GetUser", mock.Anything, "uid-1").
			Return(&models.User{UID: "uid-1", IsActive: true}, nil).Once()
		_, err = resolver.ResolveActive(context.Background(), token)
		require.NoError(t, err)

		// Тот же токен после деактивации учетной записи.
		users.On("GetUser", mock.Anything, "uid-1").
			Return(&models.User{UID: "uid-1", IsActive: false}, nil).Once()
		_, err = resolver.ResolveActive(context.Background(), token)
		assert.ErrorIs(t, err, ErrInactiveAccount)
		users.AssertExpectations(t)
	})
}
