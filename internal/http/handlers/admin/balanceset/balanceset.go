// Package balanceset реализует HTTP-обработчик ручной корректировки
// баланса кошелька администратором.
package balanceset

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

// Request — структура входных данных корректировки баланса.
type Request struct {
	Balance float64 `json:"balance" validate:"gte=0"`
}

// Handler обрабатывает корректировку баланса.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики корректировки баланса.
type Service interface {
	SetBalance(ctx context.Context, userUID string, balance float64) (*models.User, error)
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
	const op = "handlers.admin.balanceset"

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

	uid := chi.URLParam(r, "uid")
	user, err := h.service.SetBalance(r.Context(), uid, req.Balance)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("user not found", slog.String("uid", uid))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to set balance", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not set balance"))
		return
	}

	log.Info("balance updated", slog.String("uid", uid), slog.Float64("balance", req.Balance))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user": user.ToResponse(),
	}))
}
