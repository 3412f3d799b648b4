package models

import "time"

// Методы пополнения и вывода средств.
const (
	MethodStripe       = "stripe"
	MethodCard         = "card"
	MethodBankTransfer = "bank_transfer"
)

// Статусы платежа.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Payment запись о пополнении или выводе средств.
// Отрицательная сумма означает вывод.
type Payment struct {
	ID        string         `json:"id"`
	UserUID   string         `json:"user_id"`
	Amount    float64        `json:"amount"`
	Currency  string         `json:"currency"`
	Method    string         `json:"method"`
	Status    string         `json:"status"`
	Reference string         `json:"reference,omitempty"`
	Data      map[string]any `json:"payment_data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// IsDeposit сообщает, является ли запись пополнением.
func (p *Payment) IsDeposit() bool {
	return p.Amount > 0
}
