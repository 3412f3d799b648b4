// Package stats реализует HTTP-обработчик агрегированной статистики
// прибыли и убытков по сделкам счета за период.
package stats

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/owenwebDe/forex-crm-backend/internal/http/middlewarectx"
	"github.com/owenwebDe/forex-crm-backend/internal/http/response"
	"github.com/owenwebDe/forex-crm-backend/internal/lib/sl"
	"github.com/owenwebDe/forex-crm-backend/internal/models"
)

// Handler обрабатывает запросы статистики по сделкам.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики статистики по сделкам.
type Service interface {
	Stats(ctx context.Context, loginID int64, startDate, endDate string) (*models.TradeStats, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trading.stats"

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

	const layout = "2006-01-02"
	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")
	if startDate == "" {
		startDate = time.Now().AddDate(0, -1, 0).Format(layout)
	}
	if endDate == "" {
		endDate = time.Now().Format(layout)
	}

	result, err := h.service.Stats(r.Context(), loginID, startDate, endDate)
	if err != nil {
		log.Error("failed to get trade stats", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("trading gateway unavailable"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"stats": result,
	}))
}
