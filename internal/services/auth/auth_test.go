package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/owenwebDe/forex-crm-backend/internal/lib/jwt"
	"github.com/owenwebDe/forex-crm-backend/internal/lib/password"
	"github.com/owenwebDe/forex-crm-backend/internal/models"
	"github.com/owenwebDe/forex-crm-backend/internal/storage/repository"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func newMaker() jwt.Maker {
	return jwt.NewJWTMaker("test-secret", 30*time.Minute)
}

func TestAuthService_Register(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := new(UserRepositoryMock)
		svc := NewAuthService(repo, newMaker())

		repo.On("GetUserByEmail", mock.Anything, "new@example.com").
			Return(nil, repository.ErrNotFound).Once()
		repo.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Email == "new@example.com" &&
				u.Role == models.RoleUser &&
				u.KYCStatus == models.KYCPending &&
				u.IsActive &&
				u.PasswordHash != "secret123"
		})).Return("uid-1", nil).Once()
		repo.On("GetUser", mock.Anything, "uid-1").
			Return(&models.User{UID: "uid-1", Email: "new@example.com", Role: models.RoleUser, IsActive: true}, nil).Once()

		token, user, err := svc.Register(context.Background(), RegisterRequest{
			Name:     "New User",
			Email:    "new@example.com",
			Password: "secret123",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "uid-1", user.UID)
		repo.AssertExpectations(t)
	})

	t.Run("email already registered", func(t *testing.T) {
		repo := new(UserRepositoryMock)
		svc := NewAuthService(repo, newMaker())

		repo.On("GetUserByEmail", mock.Anything, "taken@example.com").
			Return(&models.User{UID: "uid-9", Email: "taken@example.com"}, nil).Once()

		_, _, err := svc.Register(context.Background(), RegisterRequest{
			Name:     "Dup",
			Email:    "taken@example.com",
			Password: "secret123",
		})
		assert.ErrorIs(t, err, ErrEmailTaken)
		repo.AssertNotCalled(t, "RegisterUser")
	})

	t.Run("stored hash verifies original password", func(t *testing.T) {
		repo := new(UserRepositoryMock)
		svc := NewAuthService(repo, newMaker())

		var storedHash string
		repo.On("GetUserByEmail", mock.Anything, "h@example.com").
			Return(nil, repository.ErrNotFound).Once()
		repo.On("RegisterUser", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				storedHash = args.Get(1).(models.User).PasswordHash
			}).Return("uid-2", nil).Once()
		repo.On("GetUser", mock.Anything, "uid-2").
			Return(&models.User{UID: "uid-2", IsActive: true}, nil).Once()

		_, _, err := svc.Register(context.Background(), RegisterRequest{
			Name:     "Hash",
			Email:    "h@example.com",
			Password: "original-password",
		})
		require.NoError(t, err)
		assert.NoError(t, password.CompareHash(storedHash, "original-password"))
		assert.Error(t, password.CompareHash(storedHash, "another-password"))
	})
}

func TestAuthService_Login(t *testing.T) {
	hash, err := password.GetHash("correct-password")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		repo := new(UserRepositoryMock)
		maker := newMaker()
		svc := NewAuthService(repo, maker)

		repo.On("GetUserByEmail", mock.Anything, "user@example.com").
			Return(&models.User{UID: "uid-1", Email: "user@example.com", PasswordHash: hash, Role: models.RoleUser, IsActive: true}, nil).Once()

		token, user, err := svc.Login(context.Background(), "user@example.com", "correct-password")
		require.NoError(t, err)
		assert.Equal(t, "uid-1", user.UID)

		claims, err := maker.ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, "uid-1", claims.Subject)
		assert.Equal(t, models.RoleUser, claims.Role)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := new(UserRepositoryMock)
		svc := NewAuthService(repo, newMaker())

		repo.On("GetUserByEmail", mock.Anything, "nobody@example.com").
			Return(nil, repository.ErrNotFound).Once()

		_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(UserRepositoryMock)
		svc := NewAuthService(repo, newMaker())

		repo.On("GetUserByEmail", mock.Anything, "user@example.com").
			Return(&models.User{UID: "uid-1", PasswordHash: hash, IsActive: true}, nil).Once()

		_, _, err := svc.Login(context.Background(), "user@example.com", "wrong-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive user still gets token", func(t *testing.T) {
		// Деактивация не проверяется на входе: доступ режется при разрешении токена.
		repo := new(UserRepositoryMock)
		svc := NewAuthService(repo, newMaker())

		repo.On("GetUserByEmail", mock.Anything, "inactive@example.com").
			Return(&models.User{UID: "uid-1", PasswordHash: hash, IsActive: false}, nil).Once()

		token, _, err := svc.Login(context.Background(), "inactive@example.com", "correct-password")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
	})
}
