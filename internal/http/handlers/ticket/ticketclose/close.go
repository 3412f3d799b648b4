// Package ticketclose реализует HTTP-обработчик закрытия тикета администратором.
package ticketclose

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/owenwebDe/forex-crm-backend/internal/http/middlewarectx"
	"github.com/owenwebDe/forex-crm-backend/internal/http/response"
	"github.com/owenwebDe/forex-crm-backend/internal/lib/sl"
	"github.com/owenwebDe/forex-crm-backend/internal/storage/repository"
)

// Handler обрабатывает закрытие тикетов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики закрытия тикета.
type Service interface {
	Close(ctx context.Context, id, adminUID string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ticket.close"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	admin, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user missing in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("could not validate credentials"))
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.Close(r.Context(), id, admin.UID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("ticket not found", slog.String("ticket_id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("ticket not found"))
			return
		}
		log.Error("failed to close ticket", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not close ticket"))
		return
	}

	log.Info("ticket closed", slog.String("ticket_id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"ticket_id": id,
		"status":    "closed",
	}))
}
