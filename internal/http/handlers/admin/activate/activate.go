// Package activate реализует HTTP-обработчик включения и деактивации
// учетной записи. Деактивированный пользователь перестает проходить
// контроль доступа на следующем же запросе.
package activate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/owenwebDe/forex-crm-backend/internal/http/response"
	"github.com/owenwebDe/forex-crm-backend/internal/lib/sl"
	"github.com/owenwebDe/forex-crm-backend/internal/models"
	"github.com/owenwebDe/forex-crm-backend/internal/storage/repository"
)

// Request — структура входных данных переключения активности.
type Request struct {
	Active *bool `json:"active" validate:"required"`
}

// Handler обрабатывает переключение активности учетной записи.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики активации.
type Service interface {
	SetActive(ctx context.Context, userUID string, active bool) (*models.User, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.activate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		log.Error("failed to decode request body")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	uid := chi.URLParam(r, "uid")
	user, err := h.service.SetActive(r.Context(), uid, *req.Active)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("user not found", slog.String("uid", uid))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to toggle account", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not toggle account"))
		return
	}

	log.Info("account toggled", slog.String("uid", uid), slog.Bool("active", *req.Active))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user": user.ToResponse(),
	}))
}
