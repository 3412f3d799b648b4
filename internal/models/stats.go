package models

// MonthlyCount количество событий за календарный месяц.
type MonthlyCount struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Count int `json:"count"`
}

// MonthlyAmount сумма и количество завершенных платежей за календарный месяц.
type MonthlyAmount struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Total float64 `json:"total_amount"`
	Count int     `json:"count"`
}

// DashboardStats счетчики для админской панели.
type DashboardStats struct {
	Users struct {
		Total       int `json:"total"`
		Active      int `json:"active"`
		KYCPending  int `json:"kyc_pending"`
		KYCApproved int `json:"kyc_approved"`
	} `json:"users"`
	Payments struct {
		TotalDeposits    float64 `json:"total_deposits"`
		TotalWithdrawals float64 `json:"total_withdrawals"`
		NetFlow          float64 `json:"net_flow"`
	} `json:"payments"`
	Tickets struct {
		Open   int `json:"open"`
		Closed int `json:"closed"`
		Total  int `json:"total"`
	} `json:"tickets"`
	Documents struct {
		Pending  int `json:"pending"`
		Approved int `json:"approved"`
		Total    int `json:"total"`
	} `json:"documents"`
}
