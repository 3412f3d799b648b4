// Package chart реализует HTTP-обработчик ценового ряда по инструменту.
// Ряд кэшируется на стороне сервиса: исторические котировки не меняются.
package chart

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/owenwebDe/forex-crm-backend/internal/http/response"
	"github.com/owenwebDe/forex-crm-backend/internal/lib/sl"
	"github.com/owenwebDe/forex-crm-backend/internal/models"
)

// Handler обрабатывает запросы ценового ряда.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики графиков.
type Service interface {
	Chart(ctx context.Context, symbol, from, to string) (*models.ChartSeries, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trading.chart"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		log.Error("missing symbol in url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing symbol"))
		return
	}

	const layout = "2006-01-02"
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" {
		from = time.Now().AddDate(0, -1, 0).Format(layout)
	}
	if to == "" {
		to = time.Now().Format(layout)
	}

	series, err := h.service.Chart(r.Context(), symbol, from, to)
	if err != nil {
		log.Error("failed to get chart", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("trading gateway unavailable"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"chart": series,
	}))
}
