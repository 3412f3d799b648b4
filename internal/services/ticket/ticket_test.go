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
)

type TicketRepositoryMock struct {
	mock.Mock
}

func (m *TicketRepositoryMock) CreateTicket(ctx context.Context, t models.Ticket) (string, error) {
	args := m.Called(ctx, t)
	return args.String(0), args.Error(1)
}

func (m *TicketRepositoryMock) GetTicket(ctx context.Context, id, ownerUID string) (*models.Ticket, error) {
	args := m.Called(ctx, id, ownerUID)
	t, _ := args.Get(0).(*models.Ticket)
	return t, args.Error(1)
}

func (m *TicketRepositoryMock) ListTicketsByUser(ctx context.Context, userUID string, limit int) ([]*models.Ticket, error) {
	args := m.Called(ctx, userUID, limit)
	list, _ := args.Get(0).([]*models.Ticket)
	return list, args.Error(1)
}

func (m *TicketRepositoryMock) ListAllTickets(ctx context.Context, limit int) ([]*models.Ticket, error) {
	args := m.Called(ctx, limit)
	list, _ := args.Get(0).([]*models.Ticket)
	return list, args.Error(1)
}

func (m *TicketRepositoryMock) AppendTicketMessage(ctx context.Context, id string, msg models.TicketMessage) error {
	args := m.Called(ctx, id, msg)
	return args.Error(0)
}

func (m *TicketRepositoryMock) CloseTicket(ctx context.Context, id, adminUID string) error {
	args := m.Called(ctx, id, adminUID)
	return args.Error(0)
}

type EventPublisherMock struct {
	mock.Mock
}

func (m *EventPublisherMock) Publish(routingKey string, message any) error {
	args := m.Called(routingKey, message)
	return args.Error(0)
}

func newService(tickets *TicketRepositoryMock, publisher *EventPublisherMock) *TicketService {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	return NewTicketService(tickets, publisher, logger)
}

func TestTicketService_Create(t *testing.T) {
	t.Run("persists first message and defaults", func(t *testing.T) {
		tickets := new(TicketRepositoryMock)
		publisher := new(EventPublisherMock)
		svc := newService(tickets, publisher)

		tickets.On("CreateTicket", mock.Anything, mock.MatchedBy(func(tk models.Ticket) bool {
			return tk.Subject == "Cannot withdraw" &&
				tk.Description == "Withdrawal stuck for a week" &&
				tk.Category == "general" &&
				tk.Priority == "medium" &&
				tk.Status == models.TicketOpen &&
				len(tk.Messages) == 1 &&
				tk.Messages[0].Body == "Withdrawal stuck for a week" &&
				tk.Messages[0].AuthorUID == "uid-1" &&
				!tk.Messages[0].FromStaff
		})).Return("tkt-1", nil).Once()
		tickets.On("GetTicket", mock.Anything, "tkt-1", "uid-1").
			Return(&models.Ticket{ID: "tkt-1", UserUID: "uid-1", Subject: "Cannot withdraw"}, nil).Once()
		publisher.On("Publish", "ticket.opened", mock.Anything).Return(nil).Once()

		created, err := svc.Create(context.Background(), "uid-1", "Cannot withdraw", "Withdrawal stuck for a week")
		require.NoError(t, err)
		assert.Equal(t, "tkt-1", created.ID)
		tickets.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("publish failure does not fail the request", func(t *testing.T) {
		tickets := new(TicketRepositoryMock)
		publisher := new(EventPublisherMock)
		svc := newService(tickets, publisher)

		tickets.On("CreateTicket", mock.Anything, mock.Anything).Return("tkt-2", nil).Once()
		tickets.On("GetTicket", mock.Anything, "tkt-2", "uid-1").
			Return(&models.Ticket{ID: "tkt-2", UserUID: "uid-1"}, nil).Once()
		publisher.On("Publish", mock.Anything, mock.Anything).Return(assert.AnError).Once()

		created, err := svc.Create(context.Background(), "uid-1", "Subject", "Body")
		require.NoError(t, err)
		assert.Equal(t, "tkt-2", created.ID)
	})
}

func TestTicketService_Lists(t *testing.T) {
	t.Run("own tickets are limited per user", func(t *testing.T) {
		tickets := new(TicketRepositoryMock)
		svc := newService(tickets, new(EventPublisherMock))

		tickets.On("ListTicketsByUser", mock.Anything, "uid-1", 100).
			Return([]*models.Ticket{{ID: "tkt-1"}}, nil).Once()

		list, err := svc.ListOwn(context.Background(), "uid-1")
		require.NoError(t, err)
		assert.Len(t, list, 1)
		tickets.AssertExpectations(t)
	})

	t.Run("admin listing covers all users", func(t *testing.T) {
		tickets := new(TicketRepositoryMock)
		svc := newService(tickets, new(EventPublisherMock))

		tickets.On("ListAllTickets", mock.Anything, 200).
			Return([]*models.Ticket{{ID: "tkt-1"}, {ID: "tkt-2"}}, nil).Once()

		list, err := svc.ListAll(context.Background())
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})
}

func TestTicketService_AddMessage(t *testing.T) {
	owner := &models.User{UID: "uid-1", Role: models.RoleUser}
	admin := &models.User{UID: "adm-1", Role: models.RoleAdmin}

	t.Run("closed ticket rejects new messages", func(t *testing.T) {
		tickets := new(TicketRepositoryMock)
		svc := newService(tickets, new(EventPublisherMock))

		tickets.On("GetTicket", mock.Anything, "tkt-1", "uid-1").
			Return(&models.Ticket{ID: "tkt-1", Status: models.TicketClosed}, nil).Once()

		_, err := svc.AddMessage(context.Background(), "tkt-1", owner, "hello?")
		assert.ErrorIs(t, err, ErrTicketClosed)
		tickets.AssertNotCalled(t, "AppendTicketMessage", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("admin message is marked as staff reply", func(t *testing.T) {
		tickets := new(TicketRepositoryMock)
		svc := newService(tickets, new(EventPublisherMock))

		open := &models.Ticket{ID: "tkt-1", Status: models.TicketOpen}
		tickets.On("GetTicket", mock.Anything, "tkt-1", "").Return(open, nil).Twice()
		tickets.On("AppendTicketMessage", mock.Anything, "tkt-1", mock.MatchedBy(func(msg models.TicketMessage) bool {
			return msg.FromStaff && msg.AuthorUID == "adm-1" && msg.Body == "resolved"
		})).Return(nil).Once()

		_, err := svc.AddMessage(context.Background(), "tkt-1", admin, "resolved")
		require.NoError(t, err)
		tickets.AssertExpectations(t)
	})
}
