// Package paymentcreate реализует HTTP-обработчик создания пополнения.
//
// Для метода stripe в ответе возвращается checkout_url, на который клиент
// перенаправляет пользователя; card и bank_transfer создают запись в статусе
// pending и ждут ручного подтверждения.
package paymentcreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/owenwebDe/forex-crm-backend/internal/http/middlewarectx"
	"github.com/owenwebDe/forex-crm-backend/internal/http/response"
	"github.com/owenwebDe/forex-crm-backend/internal/lib/sl"
	"github.com/owenwebDe/forex-crm-backend/internal/models"
	paymentsrv "github.com/owenwebDe/forex-crm-backend/internal/services/payment"
)

// Request — структура входных данных пополнения.
type Request struct {
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Currency string  `json:"currency" validate:"required,len=3"`
	Method   string  `json:"method" validate:"required,oneof=stripe card bank_transfer"`
}

// Handler обрабатывает запросы создания пополнения.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики пополнений.
type Service interface {
	CreateDeposit(ctx context.Context, userUID string, amount float64, currency, method string) (*models.Payment, error)
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
// @Summary Создание пополнения
// @Tags Payments
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Параметры пополнения"
// @Success 200 {object} map[string]any "Созданный платеж"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или метод"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /payments/deposit [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.create"

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

	payment, err := h.service.CreateDeposit(r.Context(), user.UID, req.Amount, req.Currency, req.Method)
	if err != nil {
		if errors.Is(err, paymentsrv.ErrUnsupportedMethod) {
			log.Error("unsupported payment method", slog.String("method", req.Method))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unsupported payment method"))
			return
		}
		log.Error("failed to create deposit", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create deposit"))
		return
	}

	log.Info("deposit created", slog.String("payment_id", payment.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"payment": payment,
	}))
}
