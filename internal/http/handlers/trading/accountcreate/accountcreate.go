// Package accountcreate реализует HTTP-обработчик создания торгового счета.
// Созданный логин привязывается к пользователю и становится доступен
// в разделе торговли.
package accountcreate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/owenwebDe/forex-crm-backend/internal/http/middlewarectx"
	"github.com/owenwebDe/forex-crm-backend/internal/http/response"
	"github.com/owenwebDe/forex-crm-backend/internal/lib/sl"
	"github.com/owenwebDe/forex-crm-backend/internal/models"
)

// Request — структура входных данных нового торгового счета.
type Request struct {
	Platform  string  `json:"platform" validate:"required,max=20"`
	Server    string  `json:"server" validate:"required,max=100"`
	GroupName string  `json:"group_name" validate:"required,max=100"`
	Leverage  int     `json:"leverage" validate:"required,gt=0,max=1000"`
	Balance   float64 `json:"balance" validate:"gte=0"`
}

// Handler обрабатывает запросы создания торгового счета.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики создания счета.
type Service interface {
	CreateAccount(ctx context.Context, user *models.User, req models.MT5AccountRequest) (int64, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создание торгового счета
// @Tags Trading
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Параметры счета"
// @Success 200 {object} map[string]any "Логин созданного счета"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Шлюз недоступен"
// @Router /trading/accounts [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trading.accountcreate"

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

	login, err := h.service.CreateAccount(r.Context(), user, models.MT5AccountRequest{
		Platform:  req.Platform,
		Server:    req.Server,
		GroupName: req.GroupName,
		Leverage:  req.Leverage,
		Balance:   req.Balance,
	})
	if err != nil {
		log.Error("failed to create trading account", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("trading gateway unavailable"))
		return
	}

	log.Info("trading account created", slog.Int64("login", login))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "MT5 account created successfully",
		"login":   login,
	}))
}
