// Package read реализует HTTP-обработчик получения документа по id
// вместе с содержимым файла. Владелец видит только свои документы,
// администратор — любые.
package read

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
	"github.com/owenwebDe/forex-crm-backend/internal/models"
	"github.com/owenwebDe/forex-crm-backend/internal/storage/repository"
)

// Handler обрабатывает запросы чтения документа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения документа.
type Service interface {
	Get(ctx context.Context, id string, viewer *models.User) (*models.Document, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP обрабатывает запрос документа по id из URL.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.document.read"

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
	doc, err := h.service.Get(r.Context(), id, user)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("document not found", slog.String("document_id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("document not found"))
			return
		}
		log.Error("failed to read document", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read document"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"document": doc,
	}))
}
