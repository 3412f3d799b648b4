// Package mt5 реализует клиент REST-шлюза торгового сервера MT5.
//
// Клиент держит неизменяемую конфигурацию и кэшированный токен сессии
// под собственным мьютексом; при истечении сессии токен запрашивается
// заново. Сам клиент безопасен для конкурентного использования.
package mt5

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/owenwebDe/forex-crm-backend/internal/config"
	"github.com/owenwebDe/forex-crm-backend/internal/models"
)

// Client клиент шлюза MT5.
type Client struct {
	baseURL         string
	managerID       string
	managerPassword string
	serverIP        string
	httpClient      *http.Client

	mu    sync.Mutex
	token string
}

// NewClient создает клиент шлюза по конфигурации.
func NewClient(cfg config.MT5Gateway) *Client {
	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		managerID:       cfg.ManagerID,
		managerPassword: cfg.ManagerPassword,
		serverIP:        cfg.ServerIP,
		httpClient:      &http.Client{Timeout: 10 * time.Second},
	}
}

// sessionToken возвращает кэшированный токен сессии, при необходимости
// выполняя аутентификацию на шлюзе. Сетевых вызовов под мьютексом не
// происходит дольше одного запроса токена.
func (c *Client) sessionToken(ctx context.Context) (string, error) {
	const op = "mt5.sessionToken"

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}

	body, err := json.Marshal(map[string]string{
		"userName": c.managerID,
		"password": c.managerPassword,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/Home/token", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	c.token = strings.Trim(strings.TrimSpace(string(raw)), `"`)
	return c.token, nil
}

// invalidateSession сбрасывает кэшированный токен, заставляя следующий
// вызов аутентифицироваться заново.
func (c *Client) invalidateSession() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	const op = "mt5.do"

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	token, err := c.sessionToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateSession()
		return fmt.Errorf("%s: gateway session expired", op)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Login открывает менеджерскую сессию на торговом сервере.
// Шлюз требует ip сервера MT5 в теле запроса.
func (c *Client) Login(ctx context.Context) error {
	managerID, _ := strconv.Atoi(c.managerID)
	req := map[string]any{
		"mngId": managerID,
		"pwd":   c.managerPassword,
		"srvIp": c.serverIP,
	}
	return c.do(ctx, http.MethodPost, "/Home/login", req, nil)
}

// Logout закрывает менеджерскую сессию и сбрасывает кэшированный токен.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/Home/logout", nil, nil)
	c.invalidateSession()
	return err
}

// CreateAccount создает торговый счет на сервере и возвращает его логин.
func (c *Client) CreateAccount(ctx context.Context, req models.MT5AccountRequest) (int64, error) {
	const op = "mt5.CreateAccount"

	var result struct {
		Login int64 `json:"login"`
	}
	if err := c.do(ctx, http.MethodPost, "/Home/createAccount", req, &result); err != nil {
		return 0, err
	}
	if result.Login == 0 {
		return 0, fmt.Errorf("%s: gateway returned no login", op)
	}
	return result.Login, nil
}

// GetAccountInfo возвращает сводку по торговому счету.
func (c *Client) GetAccountInfo(ctx context.Context, loginID int64) (*models.MT5AccountInfo, error) {
	var info models.MT5AccountInfo
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/Home/getUserInfo/%d", loginID), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetPositions возвращает открытые позиции счета.
func (c *Client) GetPositions(ctx context.Context, loginID int64) ([]models.MT5Position, error) {
	var positions []models.MT5Position
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/Home/getPosition/%d", loginID), nil, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// GetPendingOrders возвращает отложенные ордера счета.
func (c *Client) GetPendingOrders(ctx context.Context, loginID int64) ([]models.MT5Order, error) {
	var orders []models.MT5Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/Home/getPendingOrder/%d", loginID), nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetTradeHistory возвращает сделки счета за период.
func (c *Client) GetTradeHistory(ctx context.Context, loginID int64, startDate, endDate string) ([]models.MT5Deal, error) {
	var deals []models.MT5Deal
	req := map[string]any{
		"loginId":   loginID,
		"startDate": startDate,
		"endDate":   endDate,
	}
	if err := c.do(ctx, http.MethodPost, "/Home/tradehistory", req, &deals); err != nil {
		return nil, err
	}
	return deals, nil
}

// BalanceOperation выполняет балансовую операцию на торговом счете
// (txnType 0 — пополнение, 1 — списание).
func (c *Client) BalanceOperation(ctx context.Context, loginID int64, amount float64, txnType int, description, comment string) error {
	req := map[string]any{
		"loginid":     loginID,
		"amount":      amount,
		"txnType":     txnType,
		"description": description,
		"comment":     comment,
	}
	return c.do(ctx, http.MethodPost, "/Home/balanceOP", req, nil)
}

// GetChart возвращает ценовой ряд по инструменту за период.
func (c *Client) GetChart(ctx context.Context, symbol, from, to string) (*models.ChartSeries, error) {
	var series models.ChartSeries
	req := map[string]string{
		"symbol": symbol,
		"from":   from,
		"to":     to,
	}
	if err := c.do(ctx, http.MethodPost, "/Home/getchart", req, &series); err != nil {
		return nil, err
	}
	return &series, nil
}
