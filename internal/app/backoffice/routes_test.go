package backoffice

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"

	"github.com/owenwebDe/forex-crm-backend/internal/auth"
)

func TestRegisterRoutes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	router := chi.NewRouter()
	RegisterRoutes(router, logger, auth.NewResolver(nil, nil), &Services{})

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/auth/register"},
		{http.MethodPost, "/api/v1/auth/login"},
		{http.MethodPost, "/api/v1/auth/logout"},
		{http.MethodGet, "/api/v1/tickets/abc"},
		{http.MethodPut, "/api/v1/documents/bank-details/abc"},
		{http.MethodDelete, "/api/v1/documents/bank-details/abc"},
		{http.MethodPost, "/api/v1/trading/connect"},
		{http.MethodPost, "/api/v1/trading/disconnect"},
		{http.MethodPost, "/api/v1/trading/accounts"},
		{http.MethodGet, "/api/v1/admin/tickets"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rctx := chi.NewRouteContext()
			assert.True(t, router.Match(rctx, tt.method, tt.path),
				"route is not registered")
		})
	}
}
