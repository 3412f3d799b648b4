// Package me реализует HTTP-обработчик получения профиля текущего пользователя.
// Пользователь берется из контекста запроса, куда его кладет middleware
// контроля доступа; обращений к базе обработчик не делает.
package me

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/owenwebDe/forex-crm-backend/internal/http/middlewarectx"
	"github.com/owenwebDe/forex-crm-backend/internal/http/response"
)

// Handler обрабатывает запросы профиля текущего пользователя.
type Handler struct {
	log *slog.Logger
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Текущий пользователь
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Профиль пользователя"
// @Failure 401 {object} response.ErrorResponse "Невалидный токен"
// @Router /auth/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.me"

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

	render.JSON(w, r, response.OKWithData(map[string]any{
		"user": user.ToResponse(),
	}))
}
