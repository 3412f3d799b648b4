package middlewarectx

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/owenwebDe/forex-crm-backend/internal/auth"
	"github.com/owenwebDe/forex-crm-backend/internal/models"
)

type ResolverMock struct {
	mock.Mock
}

func (m *ResolverMock) ResolveActive(ctx context.Context, tokenStr string) (*models.User, error) {
	args := m.Called(ctx, tokenStr)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var got map[string]any
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	errStr, _ := got["error"].(string)
	return errStr
}

func TestRequireUser(t *testing.T) {
	logger := newNoopLogger()

	okHandler := func(t *testing.T) (http.Handler, *bool) {
		called := false
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			user, ok := UserFromContext(r.Context())
			assert.True(t, ok)
			assert.NotNil(t, user)
		}), &called
	}

	t.Run("missing authorization header", func(t *testing.T) {
		resolver := new(ResolverMock)
		next, called := okHandler(t)
		handler := RequireUser(resolver, logger)(next)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "could not validate credentials", decodeError(t, rec))
		assert.False(t, *called)
		resolver.AssertNotCalled(t, "ResolveActive")
	})

	t.Run("header without bearer prefix", func(t *testing.T) {
		resolver := new(ResolverMock)
		next, called := okHandler(t)
		handler := RequireUser(resolver, logger)(next)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Basic abc123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, *called)
	})

	t.Run("invalid token", func(t *testing.T) {
		resolver := new(ResolverMock)
		resolver.On("ResolveActive", mock.Anything, "bad-token").
			Return(nil, auth.ErrUnauthenticated).Once()
		next, called := okHandler(t)
		handler := RequireUser(resolver, logger)(next)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "could not validate credentials", decodeError(t, rec))
		assert.False(t, *called)
		resolver.AssertExpectations(t)
	})

	t.Run("inactive account", func(t *testing.T) {
		resolver := new(ResolverMock)
		resolver.On("ResolveActive", mock.Anything, "inactive-token").
			Return(nil, auth.ErrInactiveAccount).Once()
		next, called := okHandler(t)
		handler := RequireUser(resolver, logger)(next)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer inactive-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "inactive user", decodeError(t, rec))
		assert.False(t, *called)
	})

	t.Run("valid token puts user into context", func(t *testing.T) {
		resolver := new(ResolverMock)
		resolver.On("ResolveActive", mock.Anything, "good-token").
			Return(&models.User{UID: "uid-1", IsActive: true}, nil).Once()
		next, called := okHandler(t)
		handler := RequireUser(resolver, logger)(next)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, *called)
		resolver.AssertExpectations(t)
	})
}

func TestRequireAdmin(t *testing.T) {
	logger := newNoopLogger()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("user missing in context", func(t *testing.T) {
		handler := RequireAdmin(logger)(next)

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("active non-admin gets forbidden", func(t *testing.T) {
		handler := RequireAdmin(logger)(next)

		user := &models.User{UID: "uid-1", Role: models.RoleUser, IsActive: true}
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req = req.WithContext(context.WithValue(req.Context(), CurrentUser, user))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "not enough permissions", decodeError(t, rec))
	})

	t.Run("admin passes", func(t *testing.T) {
		handler := RequireAdmin(logger)(next)

		user := &models.User{UID: "uid-1", Role: models.RoleAdmin, IsActive: true}
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req = req.WithContext(context.WithValue(req.Context(), CurrentUser, user))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
