package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/owenwebDe/forex-crm-backend/internal/models"
)

type GatewayClientMock struct {
	mock.Mock
}

func (m *GatewayClientMock) Login(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *GatewayClientMock) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *GatewayClientMock) CreateAccount(ctx context.Context, req models.MT5AccountRequest) (int64, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(int64), args.Error(1)
}

func (m *GatewayClientMock) GetAccountInfo(ctx context.Context, loginID int64) (*models.MT5AccountInfo, error) {
	args := m.Called(ctx, loginID)
	info, _ := args.Get(0).(*models.MT5AccountInfo)
	return info, args.Error(1)
}

func (m *GatewayClientMock) GetPositions(ctx context.Context, loginID int64) ([]models.MT5Position, error) {
	args := m.Called(ctx, loginID)
	list, _ := args.Get(0).([]models.MT5Position)
	return list, args.Error(1)
}

func (m *GatewayClientMock) GetPendingOrders(ctx context.Context, loginID int64) ([]models.MT5Order, error) {
	args := m.Called(ctx, loginID)
	list, _ := args.Get(0).([]models.MT5Order)
	return list, args.Error(1)
}

func (m *GatewayClientMock) GetTradeHistory(ctx context.Context, loginID int64, startDate, endDate string) ([]models.MT5Deal, error) {
	args := m.Called(ctx, loginID, startDate, endDate)
	list, _ := args.Get(0).([]models.MT5Deal)
	return list, args.Error(1)
}

func (m *GatewayClientMock) GetChart(ctx context.Context, symbol, from, to string) (*models.ChartSeries, error) {
	args := m.Called(ctx, symbol, from, to)
	series, _ := args.Get(0).(*models.ChartSeries)
	return series, args.Error(1)
}

type MarketCacheMock struct {
	mock.Mock
}

func (m *MarketCacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *MarketCacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

type AccountRepositoryMock struct {
	mock.Mock
}

func (m *AccountRepositoryMock) AddMT5Login(ctx context.Context, userUID string, login int64) error {
	args := m.Called(ctx, userUID, login)
	return args.Error(0)
}

func newService(gateway *GatewayClientMock, cache *MarketCacheMock) *TradingService {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	return NewTradingService(gateway, cache, new(AccountRepositoryMock), logger)
}

func TestTradingService_AccountInfo(t *testing.T) {
	t.Run("cache miss hits gateway and stores result", func(t *testing.T) {
		gateway := new(GatewayClientMock)
		cache := new(MarketCacheMock)
		svc := newService(gateway, cache)

		cache.On("Get", mock.Anything, "mt5:account:100123", mock.Anything).
			Return(false, nil).Once()
		want := &models.MT5AccountInfo{Login: 100123, Balance: 1000, Currency: "USD"}
		gateway.On("GetAccountInfo", mock.Anything, int64(100123)).Return(want, nil).Once()
		cache.On("Set", mock.Anything, "mt5:account:100123", want, accountCacheTTL).
			Return(nil).Once()

		got, err := svc.AccountInfo(context.Background(), 100123)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		gateway.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("cache error does not break the request", func(t *testing.T) {
		gateway := new(GatewayClientMock)
		cache := new(MarketCacheMock)
		svc := newService(gateway, cache)

		cache.On("Get", mock.Anything, mock.Anything, mock.Anything).
			Return(false, assert.AnError).Once()
		gateway.On("GetAccountInfo", mock.Anything, int64(7)).
			Return(&models.MT5AccountInfo{Login: 7}, nil).Once()
		cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(assert.AnError).Once()

		got, err := svc.AccountInfo(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, int64(7), got.Login)
	})
}

func TestTradingService_CreateAccount(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	user := &models.User{
		UID:     "uid-1",
		Name:    "Ivan Petrov",
		Email:   "ivan@example.com",
		Phone:   "+70000000000",
		Country: "RU",
		City:    "Moscow",
		Address: "Tverskaya 1",
	}

	t.Run("fills profile fields and links login to user", func(t *testing.T) {
		gateway := new(GatewayClientMock)
		users := new(AccountRepositoryMock)
		svc := NewTradingService(gateway, new(MarketCacheMock), users, logger)

		gateway.On("CreateAccount", mock.Anything, mock.MatchedBy(func(req models.MT5AccountRequest) bool {
			return req.Name == "Ivan Petrov" &&
				req.Email == "ivan@example.com" &&
				req.Country == "RU" &&
				req.MPassword != "" && req.IPassword != ""
		})).Return(int64(100777), nil).Once()
		users.On("AddMT5Login", mock.Anything, "uid-1", int64(100777)).Return(nil).Once()

		login, err := svc.CreateAccount(context.Background(), user, models.MT5AccountRequest{
			Platform:  "MT5",
			Server:    "Live-1",
			GroupName: "demo\\standard",
			Leverage:  100,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(100777), login)
		gateway.AssertExpectations(t)
		users.AssertExpectations(t)
	})

	t.Run("gateway error is returned and nothing is linked", func(t *testing.T) {
		gateway := new(GatewayClientMock)
		users := new(AccountRepositoryMock)
		svc := NewTradingService(gateway, new(MarketCacheMock), users, logger)

		gateway.On("CreateAccount", mock.Anything, mock.Anything).
			Return(int64(0), assert.AnError).Once()

		_, err := svc.CreateAccount(context.Background(), user, models.MT5AccountRequest{})
		require.Error(t, err)
		users.AssertNotCalled(t, "AddMT5Login", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAggregateStats(t *testing.T) {
	tests := []struct {
		name  string
		deals []models.MT5Deal
		want  models.TradeStats
	}{
		{
			name:  "no deals",
			deals: nil,
			want:  models.TradeStats{},
		},
		{
			name: "mixed wins and losses",
			deals: []models.MT5Deal{
				{Profit: 120.5},
				{Profit: -30.5},
				{Profit: 10},
				{Profit: -50},
				{Profit: 0},
			},
			want: models.TradeStats{
				TotalProfit:   130.5,
				TotalLoss:     80.5,
				NetProfit:     50,
				WinningTrades: 2,
				LosingTrades:  2,
			},
		},
		{
			name: "only losses",
			deals: []models.MT5Deal{
				{Profit: -10},
				{Profit: -20},
			},
			want: models.TradeStats{
				TotalLoss:    30,
				NetProfit:    -30,
				LosingTrades: 2,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := aggregateStats(tt.deals)
			assert.Equal(t, tt.want, *got)
		})
	}
}
