// Package services содержит бизнес-логику пополнений и выводов средств.
//
// Депозит через Stripe создает сессию Checkout и ждет вебхука; card и
// bank_transfer получают внутренний reference и подтверждаются админом.
// Вывод списывает баланс кошелька сразу и оставляет заявку в статусе pending.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/owenwebDe/forex-crm-backend/internal/lib/sl"
	"github.com/owenwebDe/forex-crm-backend/internal/models"
	"github.com/owenwebDe/forex-crm-backend/internal/paymentprovider"
	"github.com/owenwebDe/forex-crm-backend/internal/rabbitmq"
)

// Ошибки бизнес-уровня платежей.
var (
	ErrUnsupportedMethod   = errors.New("unsupported payment method")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// PaymentRepository контракт хранилища платежей.
type PaymentRepository interface {
	CreatePayment(ctx context.Context, p models.Payment) (string, error)
	GetPayment(ctx context.Context, id, ownerUID string) (*models.Payment, error)
	GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error)
	ListPaymentsByUser(ctx context.Context, userUID string, limit int) ([]*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id, status string) error
}

// WalletRepository контракт хранилища для операций с балансом кошелька.
type WalletRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	AdjustUserBalance(ctx context.Context, userUID string, delta float64) (float64, error)
}

// ProviderClient контракт платежного провайдера (Stripe Checkout).
type ProviderClient interface {
	CreateCheckoutSession(ctx context.Context, amount float64, currency, userUID string) (*paymentprovider.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*paymentprovider.CheckoutSession, error)
}

// GatewayClient контракт торгового шлюза для зачисления средств на торговый счет.
type GatewayClient interface {
	BalanceOperation(ctx context.Context, loginID int64, amount float64, txnType int, description, comment string) error
}

// EventPublisher контракт публикации событий в очередь.
type EventPublisher interface {
	Publish(routingKey string, message any) error
}

// Service платежный сервис.
type Service struct {
	payments  PaymentRepository
	wallet    WalletRepository
	provider  ProviderClient
	gateway   GatewayClient
	publisher EventPublisher
	log       *slog.Logger
}

// New создает платежный сервис.
func New(payments PaymentRepository, wallet WalletRepository, provider ProviderClient,
	gateway GatewayClient, publisher EventPublisher, log *slog.Logger) *Service {
	return &Service{
		payments:  payments,
		wallet:    wallet,
		provider:  provider,
		gateway:   gateway,
		publisher: publisher,
		log:       log,
	}
}

func newReference(prefix string) string {
	return prefix + "_" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}

// CreateDeposit создает запись о пополнении и запускает обработку по выбранному методу.
func (s *Service) CreateDeposit(ctx context.Context, userUID string, amount float64, currency, method string) (*models.Payment, error) {
	const op = "services.payment.CreateDeposit"

	p := models.Payment{
		UserUID:  userUID,
		Amount:   amount,
		Currency: currency,
		Method:   method,
		Status:   models.PaymentPending,
	}

	switch method {
	case models.MethodStripe:
		session, err := s.provider.CreateCheckoutSession(ctx, amount, currency, userUID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		p.Reference = session.ID
		p.Data = map[string]any{
			"session_id":   session.ID,
			"checkout_url": session.URL,
		}
	case models.MethodCard:
		p.Reference = newReference("CARD")
		p.Data = map[string]any{
			"message": "Card payment created. Please wait for processing.",
		}
	case models.MethodBankTransfer:
		p.Reference = newReference("BANK")
		p.Data = map[string]any{
			"message":   "Bank transfer details generated. Use the reference in the transfer.",
			"reference": p.Reference,
		}
	default:
		return nil, fmt.Errorf("%s: %w", op, ErrUnsupportedMethod)
	}

	id, err := s.payments.CreatePayment(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.ID = id
	return &p, nil
}

// CompleteDeposit завершает платеж, найденный по reference провайдера:
// переводит его в completed, зачисляет сумму на кошелек и на первый
// торговый счет пользователя, публикует событие в очередь.
//
// Вызывается из вебхука Stripe и из админского подтверждения card/bank_transfer.
func (s *Service) CompleteDeposit(ctx context.Context, reference string) error {
	const op = "services.payment.CompleteDeposit"

	payment, err := s.payments.GetPaymentByReference(ctx, reference)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if payment.Status == models.PaymentCompleted || !payment.IsDeposit() {
		return nil
	}

	if err := s.payments.UpdatePaymentStatus(ctx, payment.ID, models.PaymentCompleted); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	newBalance, err := s.wallet.AdjustUserBalance(ctx, payment.UserUID, payment.Amount)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// Зачисление на торговый счет — best effort: шлюз может быть недоступен,
	// операция повторяется вручную из админки по записи платежа.
	if loginID, ok := s.tradingLogin(ctx, payment); ok {
		if err := s.gateway.BalanceOperation(ctx, loginID, payment.Amount,
			models.MT5TxnDeposit, "Deposit", "Payment ID: "+payment.ID); err != nil {
			s.log.Error("trading account credit failed", sl.Err(err),
				slog.String("payment_id", payment.ID))
		}
	}

	if err := s.publisher.Publish(rabbitmq.RoutingPaymentCompleted, map[string]any{
		"payment_id": payment.ID,
		"user_id":    payment.UserUID,
		"amount":     payment.Amount,
		"currency":   payment.Currency,
		"balance":    newBalance,
	}); err != nil {
		s.log.Error("failed to publish payment event", sl.Err(err))
	}
	return nil
}

// tradingLogin определяет торговый счет для зачисления: явный mt5_login
// в данных платежа имеет приоритет, иначе берется первый привязанный
// счет пользователя.
func (s *Service) tradingLogin(ctx context.Context, p *models.Payment) (int64, bool) {
	switch v := p.Data["mt5_login"].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	}

	user, err := s.wallet.GetUser(ctx, p.UserUID)
	if err != nil {
		s.log.Error("failed to load user for trading credit", sl.Err(err),
			slog.String("payment_id", p.ID))
		return 0, false
	}
	if len(user.MT5Logins) == 0 {
		return 0, false
	}
	return user.MT5Logins[0], true
}

// HandleCheckoutEvent обрабатывает событие вебхука Stripe.
// Интересует только завершение сессии; остальные типы игнорируются.
func (s *Service) HandleCheckoutEvent(ctx context.Context, event paymentprovider.WebhookEvent) error {
	const op = "services.payment.HandleCheckoutEvent"

	if event.Type != "checkout.session.completed" {
		return nil
	}
	if err := s.CompleteDeposit(ctx, event.Data.Object.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// History возвращает платежи пользователя, новые первыми.
func (s *Service) History(ctx context.Context, userUID string) ([]*models.Payment, error) {
	const op = "services.payment.History"
	list, err := s.payments.ListPaymentsByUser(ctx, userUID, 100)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Withdraw создает заявку на вывод: проверяет баланс, списывает сумму
// с кошелька и сохраняет платеж с отрицательной суммой в статусе pending.
func (s *Service) Withdraw(ctx context.Context, userUID string, amount float64, method string, bankDetails map[string]any) (*models.Payment, error) {
	const op = "services.payment.Withdraw"

	if method != models.MethodBankTransfer && method != models.MethodCard {
		return nil, fmt.Errorf("%s: %w", op, ErrUnsupportedMethod)
	}

	user, err := s.wallet.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.Balance < amount {
		return nil, fmt.Errorf("%s: %w", op, ErrInsufficientBalance)
	}

	p := models.Payment{
		UserUID:   userUID,
		Amount:    -amount, // Отрицательная сумма означает вывод.
		Currency:  "USD",
		Method:    method,
		Status:    models.PaymentPending,
		Reference: newReference("WITHDRAW"),
		Data: map[string]any{
			"bank_details": bankDetails,
			"message":      "Withdrawal request created. Processing time: 1-3 business days.",
		},
	}
	// Сначала списание: заявка без удержанных средств опаснее, чем
	// удержание без заявки, которое компенсируется ниже.
	if _, err := s.wallet.AdjustUserBalance(ctx, userUID, -amount); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.payments.CreatePayment(ctx, p)
	if err != nil {
		if _, creditErr := s.wallet.AdjustUserBalance(ctx, userUID, amount); creditErr != nil {
			s.log.Error("failed to refund withdrawal hold", sl.Err(creditErr),
				slog.String("user_id", userUID))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.ID = id
	return &p, nil
}

// Verify сверяет статус платежа со Stripe и при расхождении обновляет запись.
func (s *Service) Verify(ctx context.Context, userUID, paymentID string) (*models.Payment, error) {
	const op = "services.payment.Verify"

	payment, err := s.payments.GetPayment(ctx, paymentID, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if payment.Method == models.MethodStripe && payment.Reference != "" && payment.Status == models.PaymentPending {
		session, err := s.provider.GetCheckoutSession(ctx, payment.Reference)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if session.PaymentStatus == "paid" {
			if err := s.CompleteDeposit(ctx, payment.Reference); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			payment.Status = models.PaymentCompleted
			payment.UpdatedAt = time.Now()
		}
	}
	return payment, nil
}
