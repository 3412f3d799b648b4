// Package ticketlist реализует HTTP-обработчик списка тикетов всех
// пользователей для администратора.
package ticketlist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/owenwebDe/forex-crm-backend/internal/http/response"
	"github.com/owenwebDe/forex-crm-backend/internal/lib/sl"
	"github.com/owenwebDe/forex-crm-backend/internal/models"
)

// Handler обрабатывает запросы списка тикетов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка тикетов.
type Service interface {
	ListAll(ctx context.Context) ([]*models.Ticket, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.ticketlist"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	tickets, err := h.service.ListAll(r.Context())
	if err != nil {
		log.Error("failed to list tickets", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list tickets"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"tickets": tickets,
	}))
}
