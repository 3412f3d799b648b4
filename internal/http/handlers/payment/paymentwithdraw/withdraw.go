// Package paymentwithdraw реализует HTTP-обработчик заявки на вывод средств.
// Недостаточный баланс отдается как 400, сумма заявки списывается сразу.
package paymentwithdraw

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

// Request — структура входных данных заявки на вывод.
type Request struct {
	Amount      float64        `json:"amount" validate:"required,gt=0"`
	Method      string         `json:"method" validate:"required,oneof=card bank_transfer"`
	BankDetails map[string]any `json:"bank_details,omitempty"`
}

// Handler обрабатывает заявки на вывод средств.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики вывода средств.
type Service interface {
	Withdraw(ctx context.Context, userUID string, amount float64, method string, bankDetails map[string]any) (*models.Payment, error)
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
// @Summary Заявка на вывод средств
// @Tags Payments
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Параметры вывода"
// @Success 200 {object} map[string]any "Созданная заявка"
// @Failure 400 {object} response.ErrorResponse "Недостаточный баланс"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /payments/withdraw [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.withdraw"

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

	payment, err := h.service.Withdraw(r.Context(), user.UID, req.Amount, req.Method, req.BankDetails)
	if err != nil {
		if errors.Is(err, paymentsrv.ErrInsufficientBalance) {
			log.Error("insufficient balance", slog.String("uid", user.UID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("insufficient balance"))
			return
		}
		log.Error("failed to create withdrawal", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create withdrawal"))
		return
	}

	log.Info("withdrawal created", slog.String("payment_id", payment.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"payment": payment,
	}))
}
