package models

import "time"

// Статусы тикета поддержки.
const (
	TicketOpen   = "open"
	TicketClosed = "closed"
)

// Ticket обращение пользователя в поддержку.
type Ticket struct {
	ID          string          `json:"id"`
	UserUID     string          `json:"user_id"`
	Subject     string          `json:"subject"`
	Description string          `json:"description"`
	Category    string          `json:"category"` // technical, billing, trading, general
	Priority    string          `json:"priority"` // low, medium, high, urgent
	Status      string          `json:"status"`
	AssignedTo  string          `json:"assigned_to,omitempty"`
	Messages    []TicketMessage `json:"messages"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	ClosedAt    *time.Time      `json:"closed_at,omitempty"`
}

// TicketMessage сообщение в переписке по тикету.
type TicketMessage struct {
	AuthorUID string    `json:"author_id"`
	Body      string    `json:"message"`
	FromStaff bool      `json:"from_staff"`
	SentAt    time.Time `json:"sent_at"`
}
