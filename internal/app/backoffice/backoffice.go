// Package backoffice собирает приложение бэк-офиса: хранилище, кэш,
// очередь событий, клиенты внешних систем, сервисы и HTTP-сервер.
package backoffice

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/owenwebDe/forex-crm-backend/internal/auth"
	"github.com/owenwebDe/forex-crm-backend/internal/cache"
	"github.com/owenwebDe/forex-crm-backend/internal/config"
	"github.com/owenwebDe/forex-crm-backend/internal/lib/jwt"
	"github.com/owenwebDe/forex-crm-backend/internal/migrations"
	"github.com/owenwebDe/forex-crm-backend/internal/mt5"
	"github.com/owenwebDe/forex-crm-backend/internal/paymentprovider"
	"github.com/owenwebDe/forex-crm-backend/internal/rabbitmq"
	adminsrv "github.com/owenwebDe/forex-crm-backend/internal/services/admin"
	authsrv "github.com/owenwebDe/forex-crm-backend/internal/services/auth"
	documentsrv "github.com/owenwebDe/forex-crm-backend/internal/services/document"
	paymentsrv "github.com/owenwebDe/forex-crm-backend/internal/services/payment"
	ticketsrv "github.com/owenwebDe/forex-crm-backend/internal/services/ticket"
	tradingsrv "github.com/owenwebDe/forex-crm-backend/internal/services/trading"
	usersrv "github.com/owenwebDe/forex-crm-backend/internal/services/user"
	"github.com/owenwebDe/forex-crm-backend/internal/storage/repository"
)

type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *repository.Storage
	cache    *cache.Cache
	amqpConn *amqp.Connection
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	amqpConn, err := rabbitmq.Connect(cfg.RabbitURL, 5, 3*time.Second)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(amqpConn, rabbitmq.GetEventQueues())
	if err != nil {
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(ch)

	gateway := mt5.NewClient(cfg.MT5Gateway)
	provider := paymentprovider.NewClient(cfg.Stripe.SecretKey, cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)
	resolver := auth.NewResolver(db, jwtMaker)

	authService := authsrv.NewAuthService(db, jwtMaker)
	userService := usersrv.NewUserService(db)
	paymentService := paymentsrv.New(db, db, provider, gateway, publisher, logger)
	ticketService := ticketsrv.NewTicketService(db, publisher, logger)
	documentService := documentsrv.NewDocumentService(db, db)
	adminService := adminsrv.NewAdminService(db, paymentService)
	tradingService := tradingsrv.NewTradingService(gateway, cacheRedis, db, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, resolver, &Services{
		Auth:     authService,
		User:     userService,
		Storage:  db,
		Payment:  paymentService,
		Ticket:   ticketService,
		Document: documentService,
		Admin:    adminService,
		Trading:  tradingService,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		db:       db,
		cache:    cacheRedis,
		amqpConn: amqpConn,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.db.DB.Close()
		_ = a.amqpConn.Close()
		return err
	}
}
