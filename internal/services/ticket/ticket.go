// Package services содержит бизнес-логику тикетов поддержки.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/owenwebDe/forex-crm-backend/internal/lib/sl"
	"github.com/owenwebDe/forex-crm-backend/internal/models"
	"github.com/owenwebDe/forex-crm-backend/internal/rabbitmq"
)

// ErrTicketClosed — попытка написать в закрытый тикет.
var ErrTicketClosed = errors.New("ticket is closed")

// TicketRepository контракт хранилища тикетов.
type TicketRepository interface {
	CreateTicket(ctx context.Context, t models.Ticket) (string, error)
	GetTicket(ctx context.Context, id, ownerUID string) (*models.Ticket, error)
	ListTicketsByUser(ctx context.Context, userUID string, limit int) ([]*models.Ticket, error)
	ListAllTickets(ctx context.Context, limit int) ([]*models.Ticket, error)
	AppendTicketMessage(ctx context.Context, id string, msg models.TicketMessage) error
	CloseTicket(ctx context.Context, id, adminUID string) error
}

// EventPublisher контракт публикации событий в очередь.
type EventPublisher interface {
	Publish(routingKey string, message any) error
}

// TicketService операции над тикетами поддержки.
type TicketService struct {
	tickets   TicketRepository
	publisher EventPublisher
	log       *slog.Logger
}

// NewTicketService создает новый TicketService.
func NewTicketService(tickets TicketRepository, publisher EventPublisher, log *slog.Logger) *TicketService {
	return &TicketService{
		tickets:   tickets,
		publisher: publisher,
		log:       log,
	}
}

// Create открывает тикет с первым сообщением от автора и публикует
// событие для воркера уведомлений.
func (s *TicketService) Create(ctx context.Context, userUID, subject, body string) (*models.Ticket, error) {
	const op = "services.ticket.Create"

	t := models.Ticket{
		UserUID:     userUID,
		Subject:     subject,
		Description: body,
		Category:    "general",
		Priority:    "medium",
		Status:      models.TicketOpen,
		Messages: []models.TicketMessage{{
			AuthorUID: userUID,
			Body:      body,
			FromStaff: false,
			SentAt:    time.Now(),
		}},
	}
	id, err := s.tickets.CreateTicket(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.tickets.GetTicket(ctx, id, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.publisher.Publish(rabbitmq.RoutingTicketOpened, map[string]any{
		"ticket_id": created.ID,
		"user_id":   created.UserUID,
		"subject":   created.Subject,
	}); err != nil {
		s.log.Error("failed to publish ticket event", sl.Err(err))
	}
	return created, nil
}

// ListOwn возвращает тикеты пользователя.
func (s *TicketService) ListOwn(ctx context.Context, userUID string) ([]*models.Ticket, error) {
	const op = "services.ticket.ListOwn"
	list, err := s.tickets.ListTicketsByUser(ctx, userUID, 100)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// ListAll возвращает тикеты всех пользователей для администратора.
func (s *TicketService) ListAll(ctx context.Context) ([]*models.Ticket, error) {
	const op = "services.ticket.ListAll"
	list, err := s.tickets.ListAllTickets(ctx, 200)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Get возвращает тикет. Владелец видит только свои тикеты,
// администратор — любой (пустой ownerUID снимает фильтр).
func (s *TicketService) Get(ctx context.Context, id string, viewer *models.User) (*models.Ticket, error) {
	const op = "services.ticket.Get"

	ownerUID := viewer.UID
	if viewer.IsAdmin() {
		ownerUID = ""
	}
	t, err := s.tickets.GetTicket(ctx, id, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// AddMessage добавляет сообщение в открытый тикет.
// Сообщения администраторов помечаются как ответ поддержки.
func (s *TicketService) AddMessage(ctx context.Context, id string, author *models.User, body string) (*models.Ticket, error) {
	const op = "services.ticket.AddMessage"

	t, err := s.Get(ctx, id, author)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if t.Status == models.TicketClosed {
		return nil, fmt.Errorf("%s: %w", op, ErrTicketClosed)
	}

	msg := models.TicketMessage{
		AuthorUID: author.UID,
		Body:      body,
		FromStaff: author.IsAdmin(),
		SentAt:    time.Now(),
	}
	if err := s.tickets.AppendTicketMessage(ctx, t.ID, msg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.Get(ctx, id, author)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// Close закрывает тикет от имени администратора.
func (s *TicketService) Close(ctx context.Context, id, adminUID string) error {
	const op = "services.ticket.Close"
	if err := s.tickets.CloseTicket(ctx, id, adminUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
