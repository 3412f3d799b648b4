// Package connect реализует HTTP-обработчик подключения к торговому серверу.
package connect

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/owenwebDe/forex-crm-backend/internal/http/response"
	"github.com/owenwebDe/forex-crm-backend/internal/lib/sl"
)

// Handler обрабатывает запросы подключения к шлюзу.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики подключения к шлюзу.
type Service interface {
	Connect(ctx context.Context) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trading.connect"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := h.service.Connect(r.Context()); err != nil {
		log.Error("failed to connect to trading server", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("trading gateway unavailable"))
		return
	}

	log.Info("trading server connected")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "Connected to MT5 successfully",
		"status":  "connected",
	}))
}
