// Package ticketmessage реализует HTTP-обработчик добавления сообщения в тикет.
// Сообщения в закрытый тикет не принимаются.
package ticketmessage

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

	"github.com/owenwebDe/forex-crm-backend/internal/http/middlewarectx"
	"github.com/owenwebDe/forex-crm-backend/internal/http/response"
	"github.com/owenwebDe/forex-crm-backend/internal/lib/sl"
	"github.com/owenwebDe/forex-crm-backend/internal/models"
	ticketsrv "github.com/owenwebDe/forex-crm-backend/internal/services/ticket"
	"github.com/owenwebDe/forex-crm-backend/internal/storage/repository"
)

// Request — структура входных данных сообщения.
type Request struct {
	Message string `json:"message" validate:"required,min=1,max=5000"`
}

// Handler обрабатывает добавление сообщений в тикет.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики сообщений тикета.
type Service interface {
	AddMessage(ctx context.Context, id string, author *models.User, body string) (*models.Ticket, error)
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
	const op = "handlers.ticket.message"

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

	id := chi.URLParam(r, "id")
	ticket, err := h.service.AddMessage(r.Context(), id, user, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			log.Error("ticket not found", slog.String("ticket_id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("ticket not found"))
		case errors.Is(err, ticketsrv.ErrTicketClosed):
			log.Error("ticket is closed", slog.String("ticket_id", id))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("ticket is closed"))
		default:
			log.Error("failed to add message", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not add message"))
		}
		return
	}

	log.Info("message added", slog.String("ticket_id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"ticket": ticket,
	}))
}
