// Package logout реализует HTTP-обработчик выхода пользователя.
//
// Сессии хранятся на клиенте: сервер не ведет черный список токенов,
// выход сводится к удалению токена на стороне клиента.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/owenwebDe/forex-crm-backend/internal/http/response"
)

// Handler обрабатывает запросы выхода.
type Handler struct {
	log *slog.Logger
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Выход пользователя
// @Description Токен удаляется на стороне клиента; сервер подтверждает выход.
// @Tags Auth
// @Produce  json
// @Success 200 {object} map[string]any "Подтверждение выхода"
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	h.log.Info("user logged out",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "Logged out successfully",
	}))
}
