package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/owenwebDe/forex-crm-backend/internal/models"
	"github.com/owenwebDe/forex-crm-backend/internal/paymentprovider"
)

type PaymentRepositoryMock struct {
	mock.Mock
}

func (m *PaymentRepositoryMock) CreatePayment(ctx context.Context, p models.Payment) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *PaymentRepositoryMock) GetPayment(ctx context.Context, id, ownerUID string) (*models.Payment, error) {
	args := m.Called(ctx, id, ownerUID)
	p, _ := args.Get(0).(*models.Payment)
	return p, args.Error(1)
}

func (m *PaymentRepositoryMock) GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error) {
	args := m.Called(ctx, reference)
	p, _ := args.Get(0).(*models.Payment)
	return p, args.Error(1)
}

func (m *PaymentRepositoryMock) ListPaymentsByUser(ctx context.Context, userUID string, limit int) ([]*models.Payment, error) {
	args := m.Called(ctx, userUID, limit)
	list, _ := args.Get(0).([]*models.Payment)
	return list, args.Error(1)
}

func (m *PaymentRepositoryMock) UpdatePaymentStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type WalletRepositoryMock struct {
	mock.Mock
}

func (m *WalletRepositoryMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *WalletRepositoryMock) AdjustUserBalance(ctx context.Context, userUID string, delta float64) (float64, error) {
	args := m.Called(ctx, userUID, delta)
	return args.Get(0).(float64), args.Error(1)
}

type ProviderClientMock struct {
	mock.Mock
}

func (m *ProviderClientMock) CreateCheckoutSession(ctx context.Context, amount float64, currency, userUID string) (*paymentprovider.CheckoutSession, error) {
	args := m.Called(ctx, amount, currency, userUID)
	s, _ := args.Get(0).(*paymentprovider.CheckoutSession)
	return s, args.Error(1)
}

func (m *ProviderClientMock) GetCheckoutSession(ctx context.Context, sessionID string) (*paymentprovider.CheckoutSession, error) {
	args := m.Called(ctx, sessionID)
	s, _ := args.Get(0).(*paymentprovider.CheckoutSession)
	return s, args.Error(1)
}

type GatewayClientMock struct {
	mock.Mock
}

func (m *GatewayClientMock) BalanceOperation(ctx context.Context, loginID int64, amount float64, txnType int, description, comment string) error {
	args := m.Called(ctx, loginID, amount, txnType, description, comment)
	return args.Error(0)
}

type EventPublisherMock struct {
	mock.Mock
}

func (m *EventPublisherMock) Publish(routingKey string, message any) error {
	args := m.Called(routingKey, message)
	return args.Error(0)
}

func newService(payments *PaymentRepositoryMock, wallet *WalletRepositoryMock,
	provider *ProviderClientMock, gateway *GatewayClientMock, publisher *EventPublisherMock) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	return New(payments, wallet, provider, gateway, publisher, logger)
}

func TestService_CreateDeposit(t *testing.T) {
	t.Run("stripe deposit creates checkout session", func(t *testing.T) {
		payments := new(PaymentRepositoryMock)
		provider := new(ProviderClientMock)
		svc := newService(payments, new(WalletRepositoryMock), provider, new(GatewayClientMock), new(EventPublisherMock))

		provider.On("CreateCheckoutSession", mock.Anything, 100.0, "USD", "uid-1").
			Return(&paymentprovider.CheckoutSession{ID: "cs_123", URL: "https://checkout/cs_123"}, nil).Once()
		payments.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p models.Payment) bool {
			return p.Reference == "cs_123" && p.Status == models.PaymentPending && p.Amount == 100.0
		})).Return("pay-1", nil).Once()

		p, err := svc.CreateDeposit(context.Background(), "uid-1", 100, "USD", models.MethodStripe)
		require.NoError(t, err)
		assert.Equal(t, "pay-1", p.ID)
		assert.Equal(t, "https://checkout/cs_123", p.Data["checkout_url"])
		payments.AssertExpectations(t)
		provider.AssertExpectations(t)
	})

	t.Run("bank transfer gets internal reference", func(t *testing.T) {
		payments := new(PaymentRepositoryMock)
		svc := newService(payments, new(WalletRepositoryMock), new(ProviderClientMock), new(GatewayClientMock), new(EventPublisherMock))

		payments.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p models.Payment) bool {
			return len(p.Reference) > 5 && p.Reference[:5] == "BANK_"
		})).Return("pay-2", nil).Once()

		p, err := svc.CreateDeposit(context.Background(), "uid-1", 50, "USD", models.MethodBankTransfer)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentPending, p.Status)
	})

	t.Run("unsupported method", func(t *testing.T) {
		svc := newService(new(PaymentRepositoryMock), new(WalletRepositoryMock), new(ProviderClientMock), new(GatewayClientMock), new(EventPublisherMock))

		_, err := svc.CreateDeposit(context.Background(), "uid-1", 50, "USD", "crypto")
		assert.ErrorIs(t, err, ErrUnsupportedMethod)
	})
}

func TestService_CompleteDeposit(t *testing.T) {
	t.Run("marks completed, credits wallet and publishes event", func(t *testing.T) {
		payments := new(PaymentRepositoryMock)
		wallet := new(WalletRepositoryMock)
		publisher := new(EventPublisherMock)
		svc := newService(payments, wallet, new(ProviderClientMock), new(GatewayClientMock), publisher)

		payments.On("GetPaymentByReference", mock.Anything, "cs_123").
			Return(&models.Payment{ID: "pay-1", UserUID: "uid-1", Amount: 100, Currency: "USD", Status: models.PaymentPending}, nil).Once()
		payments.On("UpdatePaymentStatus", mock.Anything, "pay-1", models.PaymentCompleted).
			Return(nil).Once()
		wallet.On("AdjustUserBalance", mock.Anything, "uid-1", 100.0).
			Return(250.0, nil).Once()
		wallet.On("GetUser", mock.Anything, "uid-1").
			Return(&models.User{UID: "uid-1"}, nil).Once()
		publisher.On("Publish", "payment.completed", mock.Anything).Return(nil).Once()

		err := svc.CompleteDeposit(context.Background(), "cs_123")
		require.NoError(t, err)
		payments.AssertExpectations(t)
		wallet.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("credits first linked trading account", func(t *testing.T) {
		payments := new(PaymentRepositoryMock)
		wallet := new(WalletRepositoryMock)
		gateway := new(GatewayClientMock)
		publisher := new(EventPublisherMock)
		svc := newService(payments, wallet, new(ProviderClientMock), gateway, publisher)

		payments.On("GetPaymentByReference", mock.Anything, "cs_777").
			Return(&models.Payment{ID: "pay-7", UserUID: "uid-1", Amount: 200, Status: models.PaymentPending}, nil).Once()
		payments.On("UpdatePaymentStatus", mock.Anything, "pay-7", models.PaymentCompleted).Return(nil).Once()
		wallet.On("AdjustUserBalance", mock.Anything, "uid-1", 200.0).Return(200.0, nil).Once()
		wallet.On("GetUser", mock.Anything, "uid-1").
			Return(&models.User{UID: "uid-1", MT5Logins: []int64{100123, 100456}}, nil).Once()
		gateway.On("BalanceOperation", mock.Anything, int64(100123), 200.0, models.MT5TxnDeposit, mock.Anything, mock.Anything).
			Return(nil).Once()
		publisher.On("Publish", "payment.completed", mock.Anything).Return(nil).Once()

		err := svc.CompleteDeposit(context.Background(), "cs_777")
		require.NoError(t, err)
		gateway.AssertExpectations(t)
		wallet.AssertExpectations(t)
	})

	t.Run("no linked account skips trading credit", func(t *testing.T) {
		payments := new(PaymentRepositoryMock)
		wallet := new(WalletRepositoryMock)
		gateway := new(GatewayClientMock)
		publisher := new(EventPublisherMock)
		svc := newService(payments, wallet, new(ProviderClientMock), gateway, publisher)

		payments.On("GetPaymentByReference", mock.Anything, "cs_888").
			Return(&models.Payment{ID: "pay-8", UserUID: "uid-2", Amount: 50, Status: models.PaymentPending}, nil).Once()
		payments.On("UpdatePaymentStatus", mock.Anything, "pay-8", models.PaymentCompleted).Return(nil).Once()
		wallet.On("AdjustUserBalance", mock.Anything, "uid-2", 50.0).Return(50.0, nil).Once()
		wallet.On("GetUser", mock.Anything, "uid-2").
			Return(&models.User{UID: "uid-2"}, nil).Once()
		publisher.On("Publish", "payment.completed", mock.Anything).Return(nil).Once()

		err := svc.CompleteDeposit(context.Background(), "cs_888")
		require.NoError(t, err)
		gateway.AssertNotCalled(t, "BalanceOperation",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already completed payment is a no-op", func(t *testing.T) {
		payments := new(PaymentRepositoryMock)
		wallet := new(WalletRepositoryMock)
		svc := newService(payments, wallet, new(ProviderClientMock), new(GatewayClientMock), new(EventPublisherMock))

		payments.On("GetPaymentByReference", mock.Anything, "cs_123").
			Return(&models.Payment{ID: "pay-1", Amount: 100, Status: models.PaymentCompleted}, nil).Once()

		err := svc.CompleteDeposit(context.Background(), "cs_123")
		require.NoError(t, err)
		payments.AssertNotCalled(t, "UpdatePaymentStatus")
		wallet.AssertNotCalled(t, "AdjustUserBalance")
	})

	t.Run("gateway failure does not fail the deposit", func(t *testing.T) {
		payments := new(PaymentRepositoryMock)
		wallet := new(WalletRepositoryMock)
		gateway := new(GatewayClientMock)
		publisher := new(EventPublisherMock)
		svc := newService(payments, wallet, new(ProviderClientMock), gateway, publisher)

		payments.On("GetPaymentByReference", mock.Anything, "cs_123").
			Return(&models.Payment{
				ID: "pay-1", UserUID: "uid-1", Amount: 100, Status: models.PaymentPending,
				Data: map[string]any{"mt5_login": float64(100123)},
			}, nil).Once()
		payments.On("UpdatePaymentStatus", mock.Anything, "pay-1", models.PaymentCompleted).Return(nil).Once()
		wallet.On("AdjustUserBalance", mock.Anything, "uid-1", 100.0).Return(100.0, nil).Once()
		gateway.On("BalanceOperation", mock.Anything, int64(100123), 100.0, models.MT5TxnDeposit, mock.Anything, mock.Anything).
			Return(assert.AnError).Once()
		publisher.On("Publish", "payment.completed", mock.Anything).Return(nil).Once()

		err := svc.CompleteDeposit(context.Background(), "cs_123")
		assert.NoError(t, err)
		gateway.AssertExpectations(t)
	})
}

func TestService_HandleCheckoutEvent(t *testing.T) {
	t.Run("ignores unknown event types", func(t *testing.T) {
		payments := new(PaymentRepositoryMock)
		svc := newService(payments, new(WalletRepositoryMock), new(ProviderClientMock), new(GatewayClientMock), new(EventPublisherMock))

		var event paymentprovider.WebhookEvent
		event.Type = "invoice.created"
		err := svc.HandleCheckoutEvent(context.Background(), event)
		assert.NoError(t, err)
		payments.AssertNotCalled(t, "GetPaymentByReference")
	})
}

func TestService_Withdraw(t *testing.T) {
	t.Run("insufficient balance", func(t *testing.T) {
		wallet := new(WalletRepositoryMock)
		payments := new(PaymentRepositoryMock)
		svc := newService(payments, wallet, new(ProviderClientMock), new(GatewayClientMock), new(EventPublisherMock))

		wallet.On("GetUser", mock.Anything, "uid-1").
			Return(&models.User{UID: "uid-1", Balance: 50}, nil).Once()

		_, err := svc.Withdraw(context.Background(), "uid-1", 100, models.MethodBankTransfer, nil)
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		payments.AssertNotCalled(t, "CreatePayment")
	})

	t.Run("success debits wallet and stores negative amount", func(t *testing.T) {
		wallet := new(WalletRepositoryMock)
		payments := new(PaymentRepositoryMock)
		svc := newService(payments, wallet, new(ProviderClientMock), new(GatewayClientMock), new(EventPublisherMock))

		wallet.On("GetUser", mock.Anything, "uid-1").
			Return(&models.User{UID: "uid-1", Balance: 500}, nil).Once()
		payments.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p models.Payment) bool {
			return p.Amount == -100.0 && p.Status == models.PaymentPending && !p.IsDeposit()
		})).Return("pay-3", nil).Once()
		wallet.On("AdjustUserBalance", mock.Anything, "uid-1", -100.0).
			Return(400.0, nil).Once()

		p, err := svc.Withdraw(context.Background(), "uid-1", 100, models.MethodBankTransfer, map[string]any{"iban": "DE00"})
		require.NoError(t, err)
		assert.Equal(t, "pay-3", p.ID)
		wallet.AssertExpectations(t)
	})

	t.Run("debits wallet before creating the request", func(t *testing.T) {
		wallet := new(WalletRepositoryMock)
		payments := new(PaymentRepositoryMock)
		svc := newService(payments, wallet, new(ProviderClientMock), new(GatewayClientMock), new(EventPublisherMock))

		wallet.On("GetUser", mock.Anything, "uid-1").
			Return(&models.User{UID: "uid-1", Balance: 500}, nil).Once()
		wallet.On("AdjustUserBalance", mock.Anything, "uid-1", -100.0).
			Return(0.0, assert.AnError).Once()

		_, err := svc.Withdraw(context.Background(), "uid-1", 100, models.MethodBankTransfer, nil)
		require.Error(t, err)
		payments.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything)
	})

	t.Run("storage failure refunds the hold", func(t *testing.T) {
		wallet := new(WalletRepositoryMock)
		payments := new(PaymentRepositoryMock)
		svc := newService(payments, wallet, new(ProviderClientMock), new(GatewayClientMock), new(EventPublisherMock))

		wallet.On("GetUser", mock.Anything, "uid-1").
			Return(&models.User{UID: "uid-1", Balance: 500}, nil).Once()
		wallet.On("AdjustUserBalance", mock.Anything, "uid-1", -100.0).
			Return(400.0, nil).Once()
		payments.On("CreatePayment", mock.Anything, mock.Anything).
			Return("", assert.AnError).Once()
		wallet.On("AdjustUserBalance", mock.Anything, "uid-1", 100.0).
			Return(500.0, nil).Once()

		_, err := svc.Withdraw(context.Background(), "uid-1", 100, models.MethodBankTransfer, nil)
		require.Error(t, err)
		wallet.AssertExpectations(t)
	})

	t.Run("stripe withdrawals are not supported", func(t *testing.T) {
		svc := newService(new(PaymentRepositoryMock), new(WalletRepositoryMock), new(ProviderClientMock), new(GatewayClientMock), new(EventPublisherMock))

		_, err := svc.Withdraw(context.Background(), "uid-1", 100, models.MethodStripe, nil)
		assert.ErrorIs(t, err, ErrUnsupportedMethod)
	})
}
