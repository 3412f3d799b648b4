// Package bankdetailsdelete реализует HTTP-обработчик удаления
// банковских реквизитов пользователя.
package bankdetailsdelete

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

// Handler обрабатывает запросы удаления реквизитов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики банковских реквизитов.
type Service interface {
	DeleteBankDetails(ctx context.Context, userUID, id string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.document.bankdetailsdelete"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user missing in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("could not validate credentials"))
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.DeleteBankDetails(r.Context(), user.UID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("bank details not found", slog.String("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("bank details not found"))
			return
		}
		log.Error("failed to delete bank details", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not delete bank details"))
		return
	}

	log.Info("bank details deleted", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "Bank details deleted successfully",
	}))
}
