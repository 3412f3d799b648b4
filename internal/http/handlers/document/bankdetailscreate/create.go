// Package bankdetailscreate реализует HTTP-обработчик сохранения
// банковских реквизитов пользователя для вывода средств.
package bankdetailscreate

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

// Request — структура входных данных банковских реквизитов.
type Request struct {
	BankName      string `json:"bank_name" validate:"required,max=200"`
	AccountName   string `json:"account_name" validate:"required,max=200"`
	AccountNumber string `json:"account_number" validate:"required,max=50"`
	RoutingNumber string `json:"routing_number,omitempty" validate:"max=50"`
	SwiftCode     string `json:"swift_code,omitempty" validate:"max=20"`
	IBAN          string `json:"iban,omitempty" validate:"max=50"`
	AccountType   string `json:"account_type" validate:"required,oneof=checking savings"`
}

// Handler обрабатывает запросы сохранения реквизитов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики банковских реквизитов.
type Service interface {
	AddBankDetails(ctx context.Context, userUID string, b models.BankDetails) (*models.BankDetails, error)
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
	const op = "handlers.document.bankdetailscreate"

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

	details, err := h.service.AddBankDetails(r.Context(), user.UID, models.BankDetails{
		BankName:      req.BankName,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		RoutingNumber: req.RoutingNumber,
		SwiftCode:     req.SwiftCode,
		IBAN:          req.IBAN,
		AccountType:   req.AccountType,
	})
	if err != nil {
		log.Error("failed to save bank details", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not save bank details"))
		return
	}

	log.Info("bank details saved", slog.String("id", details.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"bank_details": details,
	}))
}
