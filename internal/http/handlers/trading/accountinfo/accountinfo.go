// Package accountinfo реализует HTTP-обработчик сводки по торговому счету.
// Ответ шлюза кэшируется на стороне сервиса с коротким TTL.
package accountinfo

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

// Handler обрабатывает запросы сводки по счету.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики торгового раздела.
type Service interface {
	AccountInfo(ctx context.Context, loginID int64) (*models.MT5AccountInfo, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Сводка по торговому счету
// @Tags Trading
// @Produce  json
// @Security BearerAuth
// @Param login path int true "Логин торгового счета"
// @Success 200 {object} map[string]any "Сводка счета"
// @Failure 400 {object} response.ErrorResponse "Некорректный логин"
// @Failure 403 {object} response.ErrorResponse "Счет не привязан к пользователю"
// @Failure 502 {object} response.ErrorResponse "Шлюз недоступен"
// @Router /trading/account/{login} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trading.accountinfo"

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
	// Чужой счет недоступен: обычный пользователь видит только свои привязки.
	if !user.IsAdmin() && !user.HasMT5Login(loginID) {
		log.Error("account is not linked to user", slog.Int64("login", loginID))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("not enough permissions"))
		return
	}

	info, err := h.service.AccountInfo(r.Context(), loginID)
	if err != nil {
		log.Error("failed to get account info", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("trading gateway unavailable"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"account": info,
	}))
}
