// Package analytics реализует HTTP-обработчик помесячной аналитики
// по регистрациям и платежам.
package analytics

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/owenwebDe/forex-crm-backend/internal/http/response"
	"github.com/owenwebDe/forex-crm-backend/internal/lib/sl"
	adminsrv "github.com/owenwebDe/forex-crm-backend/internal/services/admin"
)

// Handler обрабатывает запросы аналитики.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики аналитики.
type Service interface {
	MonthlyAnalytics(ctx context.Context, months int) (*adminsrv.Analytics, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.analytics"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	months, _ := strconv.Atoi(r.URL.Query().Get("months"))
	result, err := h.service.MonthlyAnalytics(r.Context(), months)
	if err != nil {
		log.Error("failed to collect analytics", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not collect analytics"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"analytics": result,
	}))
}
