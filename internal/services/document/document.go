// Package services содержит бизнес-логику KYC-документов и банковских реквизитов.
package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/owenwebDe/forex-crm-backend/internal/models"
)

// Ошибки бизнес-уровня документов.
var (
	ErrBadFileData   = errors.New("file data is not valid base64")
	ErrFileTooLarge  = errors.New("file exceeds size limit")
	ErrKYCIncomplete = errors.New("kyc review requires approved or rejected status")
)

// Лимит на размер файла после декодирования, 10 МБ.
const maxFileBytes = 10 << 20

// DocumentRepository контракт хранилища документов и реквизитов.
type DocumentRepository interface {
	CreateDocument(ctx context.Context, d models.Document) (string, error)
	GetDocument(ctx context.Context, id, ownerUID string) (*models.Document, error)
	ListDocumentsByUser(ctx context.Context, userUID string, limit int) ([]*models.Document, error)
	ListPendingDocuments(ctx context.Context, limit int) ([]*models.Document, error)
	ReviewDocument(ctx context.Context, id, status, notes string) (*models.Document, error)
	CreateBankDetails(ctx context.Context, b models.BankDetails) (string, error)
	ListBankDetailsByUser(ctx context.Context, userUID string) ([]*models.BankDetails, error)
	UpdateBankDetails(ctx context.Context, id, ownerUID string, b models.BankDetails) (*models.BankDetails, error)
	DeleteBankDetails(ctx context.Context, id, ownerUID string) error
}

// KYCRepository контракт хранилища для обновления KYC-статуса пользователя.
type KYCRepository interface {
	SetKYCStatus(ctx context.Context, userUID, status string) error
}

// DocumentService операции над KYC-документами.
type DocumentService struct {
	documents DocumentRepository
	users     KYCRepository
}

// NewDocumentService создает новый DocumentService.
func NewDocumentService(documents DocumentRepository, users KYCRepository) *DocumentService {
	return &DocumentService{
		documents: documents,
		users:     users,
	}
}

// Upload сохраняет документ пользователя в статусе pending.
// Содержимое файла принимается строкой base64 и проверяется до записи.
func (s *DocumentService) Upload(ctx context.Context, userUID string, d models.Document) (*models.Document, error) {
	const op = "services.document.Upload"

	raw, err := base64.StdEncoding.DecodeString(d.FileData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrBadFileData)
	}
	if len(raw) > maxFileBytes {
		return nil, fmt.Errorf("%s: %w", op, ErrFileTooLarge)
	}

	d.UserUID = userUID
	d.Status = models.DocumentPending
	id, err := s.documents.CreateDocument(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.documents.GetDocument(ctx, id, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	created.FileData = ""
	return created, nil
}

// ListOwn возвращает документы пользователя без содержимого файлов.
func (s *DocumentService) ListOwn(ctx context.Context, userUID string) ([]*models.Document, error) {
	const op = "services.document.ListOwn"
	list, err := s.documents.ListDocumentsByUser(ctx, userUID, 100)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Get возвращает документ с содержимым файла. Владелец видит только свои
// документы, администратор — любой.
func (s *DocumentService) Get(ctx context.Context, id string, viewer *models.User) (*models.Document, error) {
	const op = "services.document.Get"

	ownerUID := viewer.UID
	if viewer.IsAdmin() {
		ownerUID = ""
	}
	d, err := s.documents.GetDocument(ctx, id, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

// ListPending возвращает очередь документов на проверку для администратора.
func (s *DocumentService) ListPending(ctx context.Context) ([]*models.Document, error) {
	const op = "services.document.ListPending"
	list, err := s.documents.ListPendingDocuments(ctx, 100)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Review фиксирует решение администратора по документу. Одобрение документа
// переводит KYC-статус владельца в approved, отклонение — в rejected.
func (s *DocumentService) Review(ctx context.Context, id, status, notes string) (*models.Document, error) {
	const op = "services.document.Review"

	if status != models.DocumentApproved && status != models.DocumentRejected {
		return nil, fmt.Errorf("%s: %w", op, ErrKYCIncomplete)
	}

	d, err := s.documents.ReviewDocument(ctx, id, status, notes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	kycStatus := models.KYCApproved
	if status == models.DocumentRejected {
		kycStatus = models.KYCRejected
	}
	if err := s.users.SetKYCStatus(ctx, d.UserUID, kycStatus); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

// AddBankDetails сохраняет банковские реквизиты пользователя.
func (s *DocumentService) AddBankDetails(ctx context.Context, userUID string, b models.BankDetails) (*models.BankDetails, error) {
	const op = "services.document.AddBankDetails"

	b.UserUID = userUID
	id, err := s.documents.CreateBankDetails(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	b.ID = id
	return &b, nil
}

// ListBankDetails возвращает сохраненные реквизиты пользователя.
func (s *DocumentService) ListBankDetails(ctx context.Context, userUID string) ([]*models.BankDetails, error) {
	const op = "services.document.ListBankDetails"
	list, err := s.documents.ListBankDetailsByUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// UpdateBankDetails перезаписывает реквизиты пользователя. Проверка
// реквизитов после изменения начинается заново.
func (s *DocumentService) UpdateBankDetails(ctx context.Context, userUID, id string, b models.BankDetails) (*models.BankDetails, error) {
	const op = "services.document.UpdateBankDetails"
	updated, err := s.documents.UpdateBankDetails(ctx, id, userUID, b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// DeleteBankDetails удаляет реквизиты пользователя.
func (s *DocumentService) DeleteBankDetails(ctx context.Context, userUID, id string) error {
	const op = "services.document.DeleteBankDetails"
	if err := s.documents.DeleteBankDetails(ctx, id, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
