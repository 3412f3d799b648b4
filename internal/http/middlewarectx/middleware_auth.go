// Package middlewarectx содержит HTTP middleware контроля доступа.
//
// RequireUser проверяет наличие и валидность bearer-токена в заголовке
// Authorization, разрешает его в учетную запись через auth.Resolver и кладет
// пользователя в контекст запроса на время обработки. RequireAdmin поверх
// этого требует административную роль. Middleware — единственный слой,
// переводящий виды отказа из internal/auth в HTTP-статусы:
// 401 Unauthenticated, 400 InactiveAccount, 403 Forbidden.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/owenwebDe/forex-crm-backend/internal/auth"
	"github.com/owenwebDe/forex-crm-backend/internal/http/response"
	"github.com/owenwebDe/forex-crm-backend/internal/lib/sl"
	"github.com/owenwebDe/forex-crm-backend/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// CurrentUser — ключ, под которым разрешенный пользователь лежит в контексте.
const CurrentUser Key = "current_user"

// Resolver описывает интерфейс разрешения токена в учетную запись.
type Resolver interface {
	ResolveActive(ctx context.Context, tokenStr string) (*models.User, error)
}

// UserFromContext достает разрешенного пользователя из контекста запроса.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(CurrentUser).(*models.User)
	return user, ok
}

// RequireUser возвращает middleware уровня 1: запрос обязан нести валидный
// bearer-токен активного пользователя, иначе обработчик не выполняется.
//
// Разрешенная учетная запись живет в контексте только до конца запроса,
// между запросами ничего не кэшируется.
func RequireUser(resolver Resolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireUser"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("could not validate credentials"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			user, err := resolver.ResolveActive(r.Context(), tokenStr)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrInactiveAccount):
					log.Error("account is deactivated", sl.Err(err))
					w.WriteHeader(http.StatusBadRequest)
					render.JSON(w, r, response.Error("inactive user"))
				default:
					log.Error("invalid or expired token", sl.Err(err))
					w.WriteHeader(http.StatusUnauthorized)
					render.JSON(w, r, response.Error("could not validate credentials"))
				}
				return
			}

			ctx := context.WithValue(r.Context(), CurrentUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin возвращает middleware уровня 2: применяется после RequireUser
// и дополнительно требует роль admin. Отказ отдается как 403 Forbidden —
// личность вызывающего известна, не хватает только привилегий.
func RequireAdmin(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireAdmin"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			user, ok := UserFromContext(r.Context())
			if !ok {
				log.Error("user missing in context")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("could not validate credentials"))
				return
			}
			if !user.IsAdmin() {
				log.Error("not enough permissions", slog.String("user", user.UID))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("not enough permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
