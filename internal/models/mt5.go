package models

// Типы балансовых операций торгового шлюза.
const (
	MT5TxnDeposit  = 0
	MT5TxnWithdraw = 1
)

// MT5AccountRequest заявка на создание торгового счета в формате шлюза.
type MT5AccountRequest struct {
	ID        int     `json:"id"`
	AccountID int     `json:"accountid"`
	Type      int     `json:"type"`
	Platform  string  `json:"platform"`
	Server    string  `json:"server"`
	GroupName string  `json:"groupName"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Country   string  `json:"country"`
	City      string  `json:"city"`
	Address   string  `json:"address"`
	Balance   float64 `json:"balance"`
	MPassword string  `json:"mPassword"`
	IPassword string  `json:"iPassword"`
	Leverage  int     `json:"leverage"`
}

// MT5AccountInfo сводка по торговому счету, как её отдает шлюз.
type MT5AccountInfo struct {
	Login      int64   `json:"login"`
	Balance    float64 `json:"balance"`
	Equity     float64 `json:"equity"`
	Margin     float64 `json:"margin"`
	FreeMargin float64 `json:"free_margin"`
	Profit     float64 `json:"profit"`
	Credit     float64 `json:"credit"`
	Leverage   int     `json:"leverage"`
	Name       string  `json:"name"`
	Server     string  `json:"server"`
	Currency   string  `json:"currency"`
}

// MT5Position открытая позиция на торговом счете.
type MT5Position struct {
	PositionID int64   `json:"positionid"`
	LoginID    int64   `json:"loginid"`
	Symbol     string  `json:"symbol"`
	LotSize    float64 `json:"lotsize"`
	Type       string  `json:"type"`
	OpenTime   int64   `json:"opentime"`
	Price      float64 `json:"price"`
	Current    float64 `json:"currentPrice"`
	Profit     float64 `json:"profit"`
	Swap       float64 `json:"swap"`
	Commission float64 `json:"commission"`
	SL         float64 `json:"sl"`
	TP         float64 `json:"tp"`
	Comment    string  `json:"comment,omitempty"`
}

// MT5Order отложенный ордер.
type MT5Order struct {
	Ticket int64   `json:"ticket"`
	Symbol string  `json:"symbol"`
	Type   string  `json:"type"`
	Volume float64 `json:"volume"`
	Price  float64 `json:"price"`
	SL     float64 `json:"sl"`
	TP     float64 `json:"tp"`
	State  string  `json:"state,omitempty"`
}

// MT5Deal сделка из торговой истории.
type MT5Deal struct {
	DealID  int64   `json:"dealId"`
	LoginID int64   `json:"loginid"`
	Symbol  string  `json:"symbol"`
	Type    string  `json:"type"`
	Volume  float64 `json:"volume"`
	Price   float64 `json:"price"`
	Profit  float64 `json:"profit"`
	Time    int64   `json:"time"`
}

// TradeStats агрегированная статистика прибыли и убытков по сделкам.
type TradeStats struct {
	TotalProfit   float64 `json:"total_profit"`
	TotalLoss     float64 `json:"total_loss"`
	NetProfit     float64 `json:"net_profit"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
}

// ChartSeries ценовой ряд по инструменту для построения графика.
type ChartSeries struct {
	Symbol string    `json:"symbol"`
	Dates  []string  `json:"dates"`
	Prices []float64 `json:"prices"`
	Volume []int64   `json:"volume"`
}
