package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/owenwebDe/forex-crm-backend/internal/models"
)

const ticketColumns = `id, user_uid, subject, description, category, priority, status,
			  assigned_to, messages, created_at, updated_at, closed_at`

func scanTicket(row interface{ Scan(...any) error }) (*models.Ticket, error) {
	t := &models.Ticket{}
	var assignedTo sql.NullString
	var closedAt sql.NullTime
	var messages []byte
	if err := row.Scan(&t.ID, &t.UserUID, &t.Subject, &t.Description, &t.Category,
		&t.Priority, &t.Status, &assignedTo, &messages, &t.CreatedAt, &t.UpdatedAt, &closedAt); err != nil {
		return nil, err
	}
	t.AssignedTo = assignedTo.String
	if closedAt.Valid {
		t.ClosedAt = &closedAt.Time
	}
	if len(messages) > 0 {
		if err := json.Unmarshal(messages, &t.Messages); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// CreateTicket сохраняет новый тикет и возвращает его id.
func (s *Storage) CreateTicket(ctx context.Context, t models.Ticket) (string, error) {
	const op = "storage.CreateTicket"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	messages, err := json.Marshal(t.Messages)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var newID string
	query := `INSERT INTO tickets (user_uid, subject, description, category, priority, status, messages)
			  VALUES ($1, $2, $3,
			      COALESCE(NULLIF($4, ''), 'general'),
			      COALESCE(NULLIF($5, ''), 'medium'),
			      $6, $7::jsonb)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		t.UserUID, t.Subject, t.Description, t.Category, t.Priority, t.Status, messages).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetTicket возвращает тикет по id. Если ownerUID непустой, тикет обязан
// принадлежать этому пользователю.
func (s *Storage) GetTicket(ctx context.Context, id, ownerUID string) (*models.Ticket, error) {
	const op = "storage.GetTicket"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + ticketColumns + `
			  FROM tickets
			  WHERE id = $1 AND ($2 = '' OR user_uid = $2)`
	t, err := scanTicket(s.DB.QueryRowContext(ctx, query, id, ownerUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// ListTicketsByUser возвращает тикеты пользователя, новые первыми.
func (s *Storage) ListTicketsByUser(ctx context.Context, userUID string, limit int) ([]*models.Ticket, error) {
	const op = "storage.ListTicketsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + ticketColumns + `
			  FROM tickets
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListAllTickets возвращает тикеты всех пользователей, новые первыми (для админов).
func (s *Storage) ListAllTickets(ctx context.Context, limit int) ([]*models.Ticket, error) {
	const op = "storage.ListAllTickets"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + ticketColumns + `
			  FROM tickets
			  ORDER BY created_at DESC
			  LIMIT $1`
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// AppendTicketMessage дописывает сообщение в переписку тикета.
func (s *Storage) AppendTicketMessage(ctx context.Context, id string, msg models.TicketMessage) error {
	const op = "storage.AppendTicketMessage"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE tickets
			  SET messages = messages || $1::jsonb,
			      updated_at = NOW()
			  WHERE id = $2`
	res, err := s.DB.ExecContext(ctx, query, body, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// CloseTicket закрывает тикет и фиксирует, кто из сотрудников его закрыл.
func (s *Storage) CloseTicket(ctx context.Context, id, adminUID string) error {
	const op = "storage.CloseTicket"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE tickets
			  SET status = 'closed',
			      assigned_to = $1,
			      closed_at = NOW(),
			      updated_at = NOW()
			  WHERE id = $2`
	res, err := s.DB.ExecContext(ctx, query, adminUID, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// CountTickets возвращает счетчики открытых и закрытых тикетов.
func (s *Storage) CountTickets(ctx context.Context) (open, closed int, err error) {
	const op = "storage.CountTickets"
	select {
	case <-ctx.Done():
		return 0, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*) FILTER (WHERE status = 'open'),
			      COUNT(*) FILTER (WHERE status = 'closed')
			  FROM tickets`
	if err = s.DB.QueryRowContext(ctx, query).Scan(&open, &closed); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return open, closed, nil
}
