package accountinfo

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/owenwebDe/forex-crm-backend/internal/http/middlewarectx"
	"github.com/owenwebDe/forex-crm-backend/internal/models"
)

type TradingServiceMock struct {
	mock.Mock
}

func (m *TradingServiceMock) AccountInfo(ctx context.Context, loginID int64) (*models.MT5AccountInfo, error) {
	args := m.Called(ctx, loginID)
	info, _ := args.Get(0).(*models.MT5AccountInfo)
	return info, args.Error(1)
}

func newRequest(t *testing.T, login string, user *models.User) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/trading/account/"+login, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("login", login)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if user != nil {
		ctx = context.WithValue(ctx, middlewarectx.CurrentUser, user)
	}
	return req.WithContext(ctx)
}

func TestAccountInfoHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	t.Run("owner reads linked account", func(t *testing.T) {
		service := new(TradingServiceMock)
		service.On("AccountInfo", mock.Anything, int64(100123)).
			Return(&models.MT5AccountInfo{Login: 100123, Balance: 1000}, nil).Once()

		handler := New(logger, service)
		user := &models.User{UID: "uid-1", Role: models.RoleUser, MT5Logins: []int64{100123}}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newRequest(t, "100123", user))

		assert.Equal(t, http.StatusOK, rec.Code)
		service.AssertExpectations(t)
	})

	t.Run("foreign account is forbidden", func(t *testing.T) {
		service := new(TradingServiceMock)
		handler := New(logger, service)
		user := &models.User{UID: "uid-1", Role: models.RoleUser, MT5Logins: []int64{100123}}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newRequest(t, "200999", user))

		assert.Equal(t, http.StatusForbidden, rec.Code)

		var got map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "not enough permissions", got["error"])
		service.AssertNotCalled(t, "AccountInfo", mock.Anything, mock.Anything)
	})

	t.Run("admin reads any account", func(t *testing.T) {
		service := new(TradingServiceMock)
		service.On("AccountInfo", mock.Anything, int64(200999)).
			Return(&models.MT5AccountInfo{Login: 200999}, nil).Once()

		handler := New(logger, service)
		admin := &models.User{UID: "adm-1", Role: models.RoleAdmin}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newRequest(t, "200999", admin))

		assert.Equal(t, http.StatusOK, rec.Code)
		service.AssertExpectations(t)
	})

	t.Run("missing user in context", func(t *testing.T) {
		service := new(TradingServiceMock)
		handler := New(logger, service)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newRequest(t, "100123", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		service.AssertNotCalled(t, "AccountInfo", mock.Anything, mock.Anything)
	})
}
