// Package services содержит бизнес-логику торгового раздела: проксирование
// данных шлюза MT5 с кэшированием в Redis и агрегацию статистики сделок.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/owenwebDe/forex-crm-backend/internal/lib/sl"
	"github.com/owenwebDe/forex-crm-backend/internal/models"
)

// TTL кэша рыночных данных. Сводка по счету живет меньше, чем ценовой ряд.
const (
	accountCacheTTL = 30 * time.Second
	chartCacheTTL   = 5 * time.Minute
)

// GatewayClient контракт торгового шлюза.
type GatewayClient interface {
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	CreateAccount(ctx context.Context, req models.MT5AccountRequest) (int64, error)
	GetAccountInfo(ctx context.Context, loginID int64) (*models.MT5AccountInfo, error)
	GetPositions(ctx context.Context, loginID int64) ([]models.MT5Position, error)
	GetPendingOrders(ctx context.Context, loginID int64) ([]models.MT5Order, error)
	GetTradeHistory(ctx context.Context, loginID int64, startDate, endDate string) ([]models.MT5Deal, error)
	GetChart(ctx context.Context, symbol, from, to string) (*models.ChartSeries, error)
}

// AccountRepository контракт хранилища привязок торговых счетов.
type AccountRepository interface {
	AddMT5Login(ctx context.Context, userUID string, login int64) error
}

// MarketCache контракт кэша рыночных данных.
type MarketCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// TradingService проксирует запросы к торговому шлюзу.
type TradingService struct {
	gateway GatewayClient
	cache   MarketCache
	users   AccountRepository
	log     *slog.Logger
}

// NewTradingService создает новый TradingService.
func NewTradingService(gateway GatewayClient, cache MarketCache, users AccountRepository, log *slog.Logger) *TradingService {
	return &TradingService{
		gateway: gateway,
		cache:   cache,
		users:   users,
		log:     log,
	}
}

// Connect открывает менеджерскую сессию на торговом сервере.
func (s *TradingService) Connect(ctx context.Context) error {
	const op = "services.trading.Connect"
	if err := s.gateway.Login(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Disconnect закрывает менеджерскую сессию. Ошибка шлюза не фатальна:
// сессия на его стороне все равно истечет сама.
func (s *TradingService) Disconnect(ctx context.Context) {
	if err := s.gateway.Logout(ctx); err != nil {
		s.log.Warn("gateway logout failed", sl.Err(err))
	}
}

// CreateAccount создает торговый счет на шлюзе и привязывает его логин
// к пользователю. Пустые контактные поля заполняются из профиля.
func (s *TradingService) CreateAccount(ctx context.Context, user *models.User, req models.MT5AccountRequest) (int64, error) {
	const op = "services.trading.CreateAccount"

	if req.Name == "" {
		req.Name = user.Name
	}
	if req.Email == "" {
		req.Email = user.Email
	}
	if req.Phone == "" {
		req.Phone = user.Phone
	}
	req.Country = user.Country
	req.City = user.City
	req.Address = user.Address
	if req.MPassword == "" {
		req.MPassword = "DefaultPass123!"
	}
	if req.IPassword == "" {
		req.IPassword = "DefaultPass123!"
	}

	login, err := s.gateway.CreateAccount(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.AddMT5Login(ctx, user.UID, login); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return login, nil
}

// AccountInfo возвращает сводку по торговому счету. Ответ шлюза кэшируется
// на короткий срок; ошибки кэша не фатальны и только логируются.
func (s *TradingService) AccountInfo(ctx context.Context, loginID int64) (*models.MT5AccountInfo, error) {
	const op = "services.trading.AccountInfo"

	key := fmt.Sprintf("mt5:account:%d", loginID)
	var cached models.MT5AccountInfo
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("market cache read failed", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	info, err := s.gateway.GetAccountInfo(ctx, loginID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, key, info, accountCacheTTL); err != nil {
		s.log.Warn("market cache write failed", sl.Err(err))
	}
	return info, nil
}

// Positions возвращает открытые позиции счета. Не кэшируется: позиции
// меняются с каждым тиком.
func (s *TradingService) Positions(ctx context.Context, loginID int64) ([]models.MT5Position, error) {
	const op = "services.trading.Positions"
	positions, err := s.gateway.GetPositions(ctx, loginID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return positions, nil
}

// PendingOrders возвращает отложенные ордера счета.
func (s *TradingService) PendingOrders(ctx context.Context, loginID int64) ([]models.MT5Order, error) {
	const op = "services.trading.PendingOrders"
	orders, err := s.gateway.GetPendingOrders(ctx, loginID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

// TradeHistory возвращает сделки счета за период.
func (s *TradingService) TradeHistory(ctx context.Context, loginID int64, startDate, endDate string) ([]models.MT5Deal, error) {
	const op = "services.trading.TradeHistory"
	deals, err := s.gateway.GetTradeHistory(ctx, loginID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return deals, nil
}

// Stats агрегирует прибыль и убытки по сделкам за период.
func (s *TradingService) Stats(ctx context.Context, loginID int64, startDate, endDate string) (*models.TradeStats, error) {
	const op = "services.trading.Stats"

	deals, err := s.gateway.GetTradeHistory(ctx, loginID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return aggregateStats(deals), nil
}

func aggregateStats(deals []models.MT5Deal) *models.TradeStats {
	stats := &models.TradeStats{}
	for _, d := range deals {
		switch {
		case d.Profit > 0:
			stats.TotalProfit += d.Profit
			stats.WinningTrades++
		case d.Profit < 0:
			stats.TotalLoss += -d.Profit
			stats.LosingTrades++
		}
	}
	stats.NetProfit = stats.TotalProfit - stats.TotalLoss
	return stats
}

// Chart возвращает ценовой ряд по инструменту. Ряд кэшируется:
// исторические данные не меняются, а шлюз отвечает медленно.
func (s *TradingService) Chart(ctx context.Context, symbol, from, to string) (*models.ChartSeries, error) {
	const op = "services.trading.Chart"

	key := fmt.Sprintf("mt5:chart:%s:%s:%s", symbol, from, to)
	var cached models.ChartSeries
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("market cache read failed", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	series, err := s.gateway.GetChart(ctx, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, key, series, chartCacheTTL); err != nil {
		s.log.Warn("market cache write failed", sl.Err(err))
	}
	return series, nil
}
