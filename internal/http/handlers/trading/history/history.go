// Package history реализует HTTP-обработчик торговой истории счета за период.
// Границы периода передаются query-параметрами start_date и end_date.
package history

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

// Handler обрабатывает запросы торговой истории.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики торговой истории.
type Service interface {
	TradeHistory(ctx context.Context, loginID int64, startDate, endDate string) ([]models.MT5Deal, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trading.history"

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

	startDate, endDate := periodFromQuery(r)
	deals, err := h.service.TradeHistory(r.Context(), loginID, startDate, endDate)
	if err != nil {
		log.Error("failed to get trade history", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("trading gateway unavailable"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"deals": deals,
	}))
}

// periodFromQuery читает границы периода из query; по умолчанию последние 30 дней.
func periodFromQuery(r *http.Request) (string, string) {
	const layout = "2006-01-02"
	start := r.URL.Query().Get("start_date")
	end := r.URL.Query().Get("end_date")
	if start == "" {
		start = time.Now().AddDate(0, 0, -30).Format(layout)
	}
	if end == "" {
		end = time.Now().Format(layout)
	}
	return start, end
}
