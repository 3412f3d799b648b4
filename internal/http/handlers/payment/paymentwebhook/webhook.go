// Package paymentwebhook реализует HTTP-обработчик вебхука Stripe.
//
// Эндпоинт публичный: Stripe не несет пользовательский токен. Тело события
// декодируется и передается платежному сервису; незнакомые типы событий
// подтверждаются без обработки, чтобы Stripe не ретраил их бесконечно.
package paymentwebhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/owenwebDe/forex-crm-backend/internal/http/response"
	"github.com/owenwebDe/forex-crm-backend/internal/lib/sl"
	"github.com/owenwebDe/forex-crm-backend/internal/paymentprovider"
)

// Handler обрабатывает события вебхука платежного провайдера.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс обработки событий провайдера.
type Service interface {
	HandleCheckoutEvent(ctx context.Context, event paymentprovider.WebhookEvent) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP обрабатывает POST от Stripe.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var event paymentprovider.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		log.Error("failed to decode webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid webhook payload"))
		return
	}

	if err := h.service.HandleCheckoutEvent(r.Context(), event); err != nil {
		log.Error("failed to handle webhook event", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not handle event"))
		return
	}

	log.Info("webhook processed", slog.String("type", event.Type))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"received": true,
	}))
}
