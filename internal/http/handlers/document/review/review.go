// Package review реализует HTTP-обработчик решения администратора по документу.
// Одобрение или отклонение документа меняет и KYC-статус его владельца.
package review

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/owenwebDe/forex-crm-backend/internal/http/response"
	"github.com/owenwebDe/forex-crm-backend/internal/lib/sl"
	"github.com/owenwebDe/forex-crm-backend/internal/models"
	"github.com/owenwebDe/forex-crm-backend/internal/storage/repository"
)

// Request — структура входных данных решения по документу.
type Request struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	Notes  string `json:"notes,omitempty" validate:"max=1000"`
}

// Handler обрабатывает решения по документам.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики проверки документов.
type Service interface {
	Review(ctx context.Context, id, status, notes string) (*models.Document, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.document.review"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	id := chi.URLParam(r, "id")
	doc, err := h.service.Review(r.Context(), id, req.Status, req.Notes)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("document not found", slog.String("document_id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("document not found"))
			return
		}
		log.Error("failed to review document", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not review document"))
		return
	}

	log.Info("document reviewed", slog.String("document_id", id), slog.String("status", req.Status))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"document": doc,
	}))
}
