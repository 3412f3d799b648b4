// Package backoffice предоставляет маршруты для приложения бэк-офиса.
package backoffice

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/owenwebDe/forex-crm-backend/internal/auth"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/admin/activate"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/admin/analytics"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/admin/balanceset"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/admin/dashboard"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/admin/kyc"
	adminpaymentlist "github.com/owenwebDe/forex-crm-backend/internal/http/handlers/admin/paymentlist"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/admin/paymentstatus"
	adminticketlist "github.com/owenwebDe/forex-crm-backend/internal/http/handlers/admin/ticketlist"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/admin/userlist"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/admin/userread"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/auth/login"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/auth/logout"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/auth/me"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/auth/register"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/document/bankdetailscreate"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/document/bankdetailsdelete"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/document/bankdetailslist"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/document/bankdetailsupdate"
	documentlist "github.com/owenwebDe/forex-crm-backend/internal/http/handlers/document/list"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/document/pending"
	documentread "github.com/owenwebDe/forex-crm-backend/internal/http/handlers/document/read"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/document/review"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/document/upload"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/payment/paymentcreate"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/payment/paymenthistory"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/payment/paymentverify"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/payment/paymentwebhook"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/payment/paymentwithdraw"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/ticket/ticketclose"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/ticket/ticketcreate"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/ticket/ticketlist"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/ticket/ticketmessage"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/ticket/ticketread"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/trading/accountcreate"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/trading/accountinfo"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/trading/chart"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/trading/connect"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/trading/disconnect"
	tradinghistory "github.com/owenwebDe/forex-crm-backend/internal/http/handlers/trading/history"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/trading/orders"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/trading/positions"
	tradingstats "github.com/owenwebDe/forex-crm-backend/internal/http/handlers/trading/stats"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/user/balance"
	"github.com/owenwebDe/forex-crm-backend/internal/http/handlers/user/profileupdate"
	"github.com/owenwebDe/forex-crm-backend/internal/http/middlewarectx"
	adminsrv "github.com/owenwebDe/forex-crm-backend/internal/services/admin"
	authsrv "github.com/owenwebDe/forex-crm-backend/internal/services/auth"
	documentsrv "github.com/owenwebDe/forex-crm-backend/internal/services/document"
	paymentsrv "github.com/owenwebDe/forex-crm-backend/internal/services/payment"
	ticketsrv "github.com/owenwebDe/forex-crm-backend/internal/services/ticket"
	tradingsrv "github.com/owenwebDe/forex-crm-backend/internal/services/trading"
	usersrv "github.com/owenwebDe/forex-crm-backend/internal/services/user"
	"github.com/owenwebDe/forex-crm-backend/internal/storage/repository"
)

// Services собирает сервисы приложения для регистрации маршрутов.
type Services struct {
	Auth     *authsrv.AuthService
	User     *usersrv.UserService
	Storage  *repository.Storage
	Payment  *paymentsrv.Service
	Ticket   *ticketsrv.TicketService
	Document *documentsrv.DocumentService
	Admin    *adminsrv.AdminService
	Trading  *tradingsrv.TradingService
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, resolver *auth.Resolver, s *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	loginLimiter := rate.NewLimiter(rate.Limit(5), 10)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, loginLimiter))
			r.Post("/auth/register", register.New(logger, s.Auth).ServeHTTP)
			r.Post("/auth/login", login.New(logger, s.Auth).ServeHTTP)
		})

		// Вебхук провайдера приходит без пользовательского токена
		r.Post("/payments/webhook", paymentwebhook.New(logger, s.Payment).ServeHTTP)

		// Выход не требует валидного токена: сервер лишь подтверждает,
		// что клиент удалил токен у себя
		r.Post("/auth/logout", logout.New(logger).ServeHTTP)

		// Уровень 1: валидный токен активного пользователя
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireUser(resolver, logger))

			r.Get("/auth/me", me.New(logger).ServeHTTP)
			r.Put("/users/profile", profileupdate.New(logger, s.User).ServeHTTP)
			r.Get("/users/balance", balance.New(logger, s.Storage).ServeHTTP)

			r.Post("/payments/deposit", paymentcreate.New(logger, s.Payment).ServeHTTP)
			r.Get("/payments/history", paymenthistory.New(logger, s.Payment).ServeHTTP)
			r.Post("/payments/withdraw", paymentwithdraw.New(logger, s.Payment).ServeHTTP)
			r.Post("/payments/{id}/verify", paymentverify.New(logger, s.Payment).ServeHTTP)

			r.Post("/documents/upload", upload.New(logger, s.Document).ServeHTTP)
			r.Get("/documents", documentlist.New(logger, s.Document).ServeHTTP)
			r.Get("/documents/{id}", documentread.New(logger, s.Document).ServeHTTP)
			r.Post("/documents/bank-details", bankdetailscreate.New(logger, s.Document).ServeHTTP)
			r.Get("/documents/bank-details", bankdetailslist.New(logger, s.Document).ServeHTTP)
			r.Put("/documents/bank-details/{id}", bankdetailsupdate.New(logger, s.Document).ServeHTTP)
			r.Delete("/documents/bank-details/{id}", bankdetailsdelete.New(logger, s.Document).ServeHTTP)

			r.Post("/tickets", ticketcreate.New(logger, s.Ticket).ServeHTTP)
			r.Get("/tickets", ticketlist.New(logger, s.Ticket).ServeHTTP)
			r.Get("/tickets/{id}", ticketread.New(logger, s.Ticket).ServeHTTP)
			r.Post("/tickets/{id}/messages", ticketmessage.New(logger, s.Ticket).ServeHTTP)

			r.Post("/trading/connect", connect.New(logger, s.Trading).ServeHTTP)
			r.Post("/trading/disconnect", disconnect.New(logger, s.Trading).ServeHTTP)
			r.Post("/trading/accounts", accountcreate.New(logger, s.Trading).ServeHTTP)
			r.Get("/trading/account/{login}", accountinfo.New(logger, s.Trading).ServeHTTP)
			r.Get("/trading/account/{login}/positions", positions.New(logger, s.Trading).ServeHTTP)
			r.Get("/trading/account/{login}/orders", orders.New(logger, s.Trading).ServeHTTP)
			r.Get("/trading/account/{login}/history", tradinghistory.New(logger, s.Trading).ServeHTTP)
			r.Get("/trading/account/{login}/stats", tradingstats.New(logger, s.Trading).ServeHTTP)
			r.Get("/trading/chart/{symbol}", chart.New(logger, s.Trading).ServeHTTP)

			// Уровень 2: роль admin
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireAdmin(logger))

				r.Get("/admin/dashboard", dashboard.New(logger, s.Admin).ServeHTTP)
				r.Get("/admin/users", userlist.New(logger, s.Admin).ServeHTTP)
				r.Get("/admin/users/{uid}", userread.New(logger, s.Admin).ServeHTTP)
				r.Put("/admin/users/{uid}/kyc", kyc.New(logger, s.Admin).ServeHTTP)
				r.Put("/admin/users/{uid}/activate", activate.New(logger, s.Admin).ServeHTTP)
				r.Put("/admin/users/{uid}/balance", balanceset.New(logger, s.Admin).ServeHTTP)
				r.Get("/admin/payments", adminpaymentlist.New(logger, s.Admin).ServeHTTP)
				r.Put("/admin/payments/{id}/status", paymentstatus.New(logger, s.Admin).ServeHTTP)
				r.Get("/admin/analytics", analytics.New(logger, s.Admin).ServeHTTP)
				r.Get("/admin/documents/pending", pending.New(logger, s.Document).ServeHTTP)
				r.Put("/admin/documents/{id}/review", review.New(logger, s.Document).ServeHTTP)
				r.Get("/admin/tickets", adminticketlist.New(logger, s.Ticket).ServeHTTP)
				r.Post("/admin/tickets/{id}/close", ticketclose.New(logger, s.Ticket).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
