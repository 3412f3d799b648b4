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

const userColumns = `uid, name, email, password_hash, phone, country, city, address,
			  balance, role, kyc_status, is_active, mt5_logins, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var phone, country, city, address sql.NullString
	var logins []byte
	if err := row.Scan(&u.UID, &u.Name, &u.Email, &u.PasswordHash, &phone, &country,
		&city, &address, &u.Balance, &u.Role, &u.KYCStatus, &u.IsActive, &logins, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Phone = phone.String
	u.Country = country.String
	u.City = city.String
	u.Address = address.String
	if len(logins) > 0 {
		if err := json.Unmarshal(logins, &u.MT5Logins); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO users (name, email, password_hash, phone, country, city, address,
			      balance, role, kyc_status, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Phone, user.Country, user.City,
		user.Address, user.Balance, user.Role, user.KYCStatus, user.IsActive).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ListUsers возвращает всех пользователей, новые первыми.
func (s *Storage) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateUserProfile применяет частичное обновление профиля и возвращает
// обновленного пользователя. Nil-поля не затрагиваются.
func (s *Storage) UpdateUserProfile(ctx context.Context, userUID string, upd models.UserUpdate) (*models.User, error) {
	const op = "storage.UpdateUserProfile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET name    = COALESCE($1, name),
			      phone   = COALESCE($2, phone),
			      country = COALESCE($3, country),
			      city    = COALESCE($4, city),
			      address = COALESCE($5, address)
			  WHERE uid = $6
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query,
		upd.Name, upd.Phone, upd.Country, upd.City, upd.Address, userUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// AddMT5Login привязывает логин торгового счета к пользователю.
// Повторная привязка того же логина не создает дубликата.
func (s *Storage) AddMT5Login(ctx context.Context, userUID string, login int64) error {
	const op = "storage.AddMT5Login"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET mt5_logins = CASE
			      WHEN mt5_logins @> to_jsonb($1::BIGINT) THEN mt5_logins
			      ELSE mt5_logins || to_jsonb($1::BIGINT)
			  END
			  WHERE uid = $2`
	res, err := s.DB.ExecContext(ctx, query, login, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// AdjustUserBalance изменяет баланс кошелька на delta (может быть отрицательной)
// и возвращает новое значение.
func (s *Storage) AdjustUserBalance(ctx context.Context, userUID string, delta float64) (float64, error) {
	const op = "storage.AdjustUserBalance"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET balance = balance + $1
			  WHERE uid = $2
			  RETURNING balance`
	var balance float64
	err := s.DB.QueryRowContext(ctx, query, delta, userUID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return balance, nil
}

// SetUserBalance выставляет баланс кошелька в абсолютное значение (админская операция).
func (s *Storage) SetUserBalance(ctx context.Context, userUID string, balance float64) error {
	const op = "storage.SetUserBalance"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET balance = $1
			  WHERE uid = $2`
	_, err := s.DB.ExecContext(ctx, query, balance, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetKYCStatus обновляет статус KYC-проверки пользователя.
func (s *Storage) SetKYCStatus(ctx context.Context, userUID, status string) error {
	const op = "storage.SetKYCStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET kyc_status = $1
			  WHERE uid = $2`
	_, err := s.DB.ExecContext(ctx, query, status, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetUserActive включает или выключает учетную запись.
func (s *Storage) SetUserActive(ctx context.Context, userUID string, active bool) error {
	const op = "storage.SetUserActive"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET is_active = $1
			  WHERE uid = $2`
	_, err := s.DB.ExecContext(ctx, query, active, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountUsers возвращает счетчики пользователей для админской панели:
// всего, активных, с ожидающим и подтвержденным KYC.
func (s *Storage) CountUsers(ctx context.Context) (total, active, kycPending, kycApproved int, err error) {
	const op = "storage.CountUsers"
	select {
	case <-ctx.Done():
		return 0, 0, 0, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*),
			      COUNT(*) FILTER (WHERE is_active),
			      COUNT(*) FILTER (WHERE kyc_status = 'pending'),
			      COUNT(*) FILTER (WHERE kyc_status = 'approved')
			  FROM users`
	if err = s.DB.QueryRowContext(ctx, query).Scan(&total, &active, &kycPending, &kycApproved); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, active, kycPending, kycApproved, nil
}

// MonthlyRegistrations возвращает количество регистраций по месяцам начиная с since.
func (s *Storage) MonthlyRegistrations(ctx context.Context, since time.Time) ([]models.MonthlyCount, error) {
	const op = "storage.MonthlyRegistrations"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXTRACT(YEAR FROM created_at)::INT,
			      EXTRACT(MONTH FROM created_at)::INT,
			      COUNT(*)
			  FROM users
			  WHERE created_at >= $1
			  GROUP BY 1, 2
			  ORDER BY 1, 2`
	rows, err := s.DB.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.MonthlyCount
	for rows.Next() {
		var mc models.MonthlyCount
		if err = rows.Scan(&mc.Year, &mc.Month, &mc.Count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, mc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
