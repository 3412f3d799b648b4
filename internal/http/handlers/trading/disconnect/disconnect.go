// Package disconnect реализует HTTP-обработчик отключения от торгового
// сервера. Ошибки шлюза не всплывают: сессия истекает и без него.
package disconnect

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/owenwebDe/forex-crm-backend/internal/http/response"
)

// Handler обрабатывает запросы отключения от шлюза.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики отключения от шлюза.
type Service interface {
	Disconnect(ctx context.Context)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trading.disconnect"

	h.service.Disconnect(r.Context())

	h.log.Info("trading server disconnected",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "Disconnected from MT5 successfully",
		"status":  "disconnected",
	}))
}
