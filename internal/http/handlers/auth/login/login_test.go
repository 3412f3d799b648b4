package login

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/owenwebDe/forex-crm-backend/internal/models"
	authsrv "github.com/owenwebDe/forex-crm-backend/internal/services/auth"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	args := m.Called(ctx, email, password)
	user, _ := args.Get(1).(*models.User)
	return args.String(0), user, args.Error(2)
}

func TestLoginHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	t.Run("valid login", func(t *testing.T) {
		service := new(AuthServiceMock)
		service.On("Login", mock.Anything, "user@example.com", "secret123").
			Return("signed-token", &models.User{UID: "uid-1", Email: "user@example.com", IsActive: true}, nil).Once()

		handler := New(logger, service)

		body := `{"email": "user@example.com", "password": "secret123"}`
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var got map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "OK", got["status"])

		data, ok := got["data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "signed-token", data["access_token"])
		assert.Equal(t, "bearer", data["token_type"])
		assert.NotNil(t, data["user"])
		service.AssertExpectations(t)
	})

	t.Run("invalid json body", func(t *testing.T) {
		service := new(AuthServiceMock)
		handler := New(logger, service)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		service.AssertNotCalled(t, "Login")
	})

	t.Run("missing password fails validation", func(t *testing.T) {
		service := new(AuthServiceMock)
		handler := New(logger, service)

		body := `{"email": "user@example.com"}`
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		service.AssertNotCalled(t, "Login")
	})

	t.Run("invalid credentials", func(t *testing.T) {
		service := new(AuthServiceMock)
		service.On("Login", mock.Anything, "user@example.com", "wrong-pass").
			Return("", nil, authsrv.ErrInvalidCredentials).Once()

		handler := New(logger, service)

		body := `{"email": "user@example.com", "password": "wrong-pass"}`
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var got map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "incorrect email or password", got["error"])
	})
}
