package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/owenwebDe/forex-crm-backend/internal/models"
)

// Колонки без file_data: содержимое файла поднимается только точечно.
const documentColumns = `id, user_uid, document_type, file_name, mime_type, status,
			  uploaded_at, reviewed_at, reviewer_notes`

func scanDocument(row interface{ Scan(...any) error }) (*models.Document, error) {
	d := &models.Document{}
	var reviewedAt sql.NullTime
	var notes sql.NullString
	if err := row.Scan(&d.ID, &d.UserUID, &d.Type, &d.FileName, &d.MimeType,
		&d.Status, &d.UploadedAt, &reviewedAt, &notes); err != nil {
		return nil, err
	}
	if reviewedAt.Valid {
		d.ReviewedAt = &reviewedAt.Time
	}
	d.ReviewerNotes = notes.String
	return d, nil
}

// CreateDocument сохраняет загруженный документ и возвращает его id.
func (s *Storage) CreateDocument(ctx context.Context, d models.Document) (string, error) {
	const op = "storage.CreateDocument"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO documents (user_uid, document_type, file_name, mime_type, file_data, status)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		d.UserUID, d.Type, d.FileName, d.MimeType, d.FileData, d.Status).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetDocument возвращает документ вместе с содержимым файла.
// Если ownerUID непустой, документ обязан принадлежать этому пользователю.
func (s *Storage) GetDocument(ctx context.Context, id, ownerUID string) (*models.Document, error) {
	const op = "storage.GetDocument"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + documentColumns + `, file_data
			  FROM documents
			  WHERE id = $1 AND ($2 = '' OR user_uid = $2)`
	d := &models.Document{}
	var reviewedAt sql.NullTime
	var notes sql.NullString
	err := s.DB.QueryRowContext(ctx, query, id, ownerUID).Scan(
		&d.ID, &d.UserUID, &d.Type, &d.FileName, &d.MimeType, &d.Status,
		&d.UploadedAt, &reviewedAt, &notes, &d.FileData)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if reviewedAt.Valid {
		d.ReviewedAt = &reviewedAt.Time
	}
	d.ReviewerNotes = notes.String
	return d, nil
}

// ListDocumentsByUser возвращает документы пользователя без содержимого файлов.
func (s *Storage) ListDocumentsByUser(ctx context.Context, userUID string, limit int) ([]*models.Document, error) {
	const op = "storage.ListDocumentsByUser"

	query := `SELECT ` + documentColumns + `
			  FROM documents
			  WHERE user_uid = $1
			  ORDER BY uploaded_at DESC
			  LIMIT $2`
	return s.listDocuments(ctx, op, query, userUID, limit)
}

// ListPendingDocuments возвращает документы, ожидающие проверки (для админов).
func (s *Storage) ListPendingDocuments(ctx context.Context, limit int) ([]*models.Document, error) {
	const op = "storage.ListPendingDocuments"

	query := `SELECT ` + documentColumns + `
			  FROM documents
			  WHERE status = 'pending'
			  ORDER BY uploaded_at
			  LIMIT $1`
	return s.listDocuments(ctx, op, query, limit)
}

func (s *Storage) listDocuments(ctx context.Context, op, query string, args ...any) ([]*models.Document, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ReviewDocument фиксирует результат проверки документа.
func (s *Storage) ReviewDocument(ctx context.Context, id, status, notes string) (*models.Document, error) {
	const op = "storage.ReviewDocument"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE documents
			  SET status = $1,
			      reviewer_notes = NULLIF($2, ''),
			      reviewed_at = NOW()
			  WHERE id = $3
			  RETURNING ` + documentColumns
	d, err := scanDocument(s.DB.QueryRowContext(ctx, query, status, notes, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

// CountDocuments возвращает счетчики документов по статусам проверки.
func (s *Storage) CountDocuments(ctx context.Context) (pending, approved int, err error) {
	const op = "storage.CountDocuments"
	select {
	case <-ctx.Done():
		return 0, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*) FILTER (WHERE status = 'pending'),
			      COUNT(*) FILTER (WHERE status = 'approved')
			  FROM documents`
	if err = s.DB.QueryRowContext(ctx, query).Scan(&pending, &approved); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return pending, approved, nil
}

// CreateBankDetails сохраняет банковские реквизиты пользователя.
func (s *Storage) CreateBankDetails(ctx context.Context, b models.BankDetails) (string, error) {
	const op = "storage.CreateBankDetails"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO bank_details (user_uid, bank_name, account_name, account_number,
			      routing_number, swift_code, iban, account_type)
			  VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		b.UserUID, b.BankName, b.AccountName, b.AccountNumber,
		b.RoutingNumber, b.SwiftCode, b.IBAN, b.AccountType).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// UpdateBankDetails перезаписывает реквизиты пользователя и сбрасывает
// флаг проверки: измененные реквизиты проверяются заново.
func (s *Storage) UpdateBankDetails(ctx context.Context, id, ownerUID string, b models.BankDetails) (*models.BankDetails, error) {
	const op = "storage.UpdateBankDetails"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE bank_details
			  SET bank_name      = $1,
			      account_name   = $2,
			      account_number = $3,
			      routing_number = NULLIF($4, ''),
			      swift_code     = NULLIF($5, ''),
			      iban           = NULLIF($6, ''),
			      account_type   = $7,
			      verified       = FALSE
			  WHERE id = $8 AND user_uid = $9
			  RETURNING id, user_uid, bank_name, account_name, account_number,
			      routing_number, swift_code, iban, account_type, verified, created_at`
	updated := &models.BankDetails{}
	var routing, swift, iban sql.NullString
	err := s.DB.QueryRowContext(ctx, query,
		b.BankName, b.AccountName, b.AccountNumber, b.RoutingNumber, b.SwiftCode,
		b.IBAN, b.AccountType, id, ownerUID).Scan(
		&updated.ID, &updated.UserUID, &updated.BankName, &updated.AccountName,
		&updated.AccountNumber, &routing, &swift, &iban, &updated.AccountType,
		&updated.Verified, &updated.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	updated.RoutingNumber = routing.String
	updated.SwiftCode = swift.String
	updated.IBAN = iban.String
	return updated, nil
}

// DeleteBankDetails удаляет реквизиты пользователя.
func (s *Storage) DeleteBankDetails(ctx context.Context, id, ownerUID string) error {
	const op = "storage.DeleteBankDetails"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM bank_details
			  WHERE id = $1 AND user_uid = $2`
	res, err := s.DB.ExecContext(ctx, query, id, ownerUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// ListBankDetailsByUser возвращает сохраненные реквизиты пользователя.
func (s *Storage) ListBankDetailsByUser(ctx context.Context, userUID string) ([]*models.BankDetails, error) {
	const op = "storage.ListBankDetailsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, bank_name, account_name, account_number,
			      routing_number, swift_code, iban, account_type, verified, created_at
			  FROM bank_details
			  WHERE user_uid = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.BankDetails
	for rows.Next() {
		b := &models.BankDetails{}
		var routing, swift, iban sql.NullString
		if err = rows.Scan(&b.ID, &b.UserUID, &b.BankName, &b.AccountName, &b.AccountNumber,
			&routing, &swift, &iban, &b.AccountType, &b.Verified, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		b.RoutingNumber = routing.String
		b.SwiftCode = swift.String
		b.IBAN = iban.String
		result = append(result, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
