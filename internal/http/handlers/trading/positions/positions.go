// Package positions реализует HTTP-обработчик открытых позиций торгового счета.
package positions

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/owenwebDe/forex-crm-backend/internal/http/middlewarectx"
	"github.com/owenwebDe/forex-crm-backend/internal/http/response"
	"github.com/owenwebDe/forex-crm-backend/internal/lib/sl"
	"github.com/owenwebDe/forex-crm-backend/internal/models"
)

// Handler обрабатывает запросы открытых позиций.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики открытых позиций.
type Service interface {
	Positions(ctx context.Context, loginID int64) ([]models.MT5Position, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trading.positions"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	loginID, err := strconv.ParseInt(chi.URLParam(r, "login"), 10, 64)
	if err != nil {
		log.Error("failed to decode login from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid account login"))
		return
	}

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user missing in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("could not validate credentials"))
		return
	}
	if !user.IsAdmin() && !user.HasMT5Login(loginID) {
		log.Error("account is not linked to user", slog.Int64("login", loginID))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("not enough permissions"))
		return
	}

	positions, err := h.service.Positions(r.Context(), loginID)
	if err != nil {
		log.Error("failed to get positions", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("trading gateway unavailable"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"positions": positions,
	}))
}
