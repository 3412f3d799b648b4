package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/owenwebDe/forex-crm-backend/internal/models"
)

const paymentColumns = `id, user_uid, amount, currency, method, status, reference,
			  payment_data, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	p := &models.Payment{}
	var reference sql.NullString
	var data []byte
	if err := row.Scan(&p.ID, &p.UserUID, &p.Amount, &p.Currency, &p.Method,
		&p.Status, &reference, &data, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Reference = reference.String
	if len(data) > 0 {
		if err := json.Unmarshal(data, &p.Data); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// CreatePayment сохраняет запись о платеже и возвращает её id.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) (string, error) {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	data, err := json.Marshal(p.Data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var newID string
	query := `INSERT INTO payments (user_uid, amount, currency, method, status, reference, payment_data)
			  VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		p.UserUID, p.Amount, p.Currency, p.Method, p.Status, p.Reference, data).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetPayment возвращает платеж по id. Если ownerUID непустой, платеж обязан
// принадлежать этому пользователю.
func (s *Storage) GetPayment(ctx context.Context, id, ownerUID string) (*models.Payment, error) {
	const op = "storage.GetPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + `
			  FROM payments
			  WHERE id = $1 AND ($2 = '' OR user_uid = $2)`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, id, ownerUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// GetPaymentByReference возвращает платеж по внешнему reference провайдера.
func (s *Storage) GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error) {
	const op = "storage.GetPaymentByReference"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + `
			  FROM payments
			  WHERE reference = $1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListPaymentsByUser возвращает платежи пользователя, новые первыми.
func (s *Storage) ListPaymentsByUser(ctx context.Context, userUID string, limit int) ([]*models.Payment, error) {
	const op = "storage.ListPaymentsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + `
			  FROM payments
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2`
	return s.listPayments(ctx, op, query, userUID, limit)
}

// ListAllPayments возвращает платежи всех пользователей (админский отчет).
func (s *Storage) ListAllPayments(ctx context.Context, limit int) ([]*models.Payment, error) {
	const op = "storage.ListAllPayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + `
			  FROM payments
			  ORDER BY created_at DESC
			  LIMIT $1`
	return s.listPayments(ctx, op, query, limit)
}

func (s *Storage) listPayments(ctx context.Context, op, query string, args ...any) ([]*models.Payment, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdatePaymentStatus обновляет статус платежа.
func (s *Storage) UpdatePaymentStatus(ctx context.Context, id, status string) error {
	const op = "storage.UpdatePaymentStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payments
			  SET status = $1,
			      updated_at = NOW()
			  WHERE id = $2`
	_, err := s.DB.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SumCompletedPayments возвращает суммы завершенных пополнений и выводов.
// Выводы хранятся отрицательными, поэтому возвращаемое значение по ним — модуль.
func (s *Storage) SumCompletedPayments(ctx context.Context) (deposits, withdrawals float64, err error) {
	const op = "storage.SumCompletedPayments"
	select {
	case <-ctx.Done():
		return 0, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COALESCE(SUM(amount) FILTER (WHERE amount > 0), 0),
			      COALESCE(ABS(SUM(amount) FILTER (WHERE amount < 0)), 0)
			  FROM payments
			  WHERE status = 'completed'`
	if err = s.DB.QueryRowContext(ctx, query).Scan(&deposits, &withdrawals); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return deposits, withdrawals, nil
}

// MonthlyPaymentTotals возвращает объемы завершенных платежей по месяцам начиная с since.
func (s *Storage) MonthlyPaymentTotals(ctx context.Context, since time.Time) ([]models.MonthlyAmount, error) {
	const op = "storage.MonthlyPaymentTotals"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXTRACT(YEAR FROM created_at)::INT,
			      EXTRACT(MONTH FROM created_at)::INT,
			      COALESCE(SUM(amount), 0),
			      COUNT(*)
			  FROM payments
			  WHERE created_at >= $1 AND status = 'completed'
			  GROUP BY 1, 2
			  ORDER BY 1, 2`
	rows, err := s.DB.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.MonthlyAmount
	for rows.Next() {
		var ma models.MonthlyAmount
		if err = rows.Scan(&ma.Year, &ma.Month, &ma.Total, &ma.Count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, ma)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
