package services

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/owenwebDe/forex-crm-backend/internal/models"
	"github.com/owenwebDe/forex-crm-backend/internal/storage/repository"
)

type DocumentRepositoryMock struct {
	mock.Mock
}

func (m *DocumentRepositoryMock) CreateDocument(ctx context.Context, d models.Document) (string, error) {
	args := m.Called(ctx, d)
	return args.String(0), args.Error(1)
}

func (m *DocumentRepositoryMock) GetDocument(ctx context.Context, id, ownerUID string) (*models.Document, error) {
	args := m.Called(ctx, id, ownerUID)
	d, _ := args.Get(0).(*models.Document)
	return d, args.Error(1)
}

func (m *DocumentRepositoryMock) ListDocumentsByUser(ctx context.Context, userUID string, limit int) ([]*models.Document, error) {
	args := m.Called(ctx, userUID, limit)
	list, _ := args.Get(0).([]*models.Document)
	return list, args.Error(1)
}

func (m *DocumentRepositoryMock) ListPendingDocuments(ctx context.Context, limit int) ([]*models.Document, error) {
	args := m.Called(ctx, limit)
	list, _ := args.Get(0).([]*models.Document)
	return list, args.Error(1)
}

func (m *DocumentRepositoryMock) ReviewDocument(ctx context.Context, id, status, notes string) (*models.Document, error) {
	args := m.Called(ctx, id, status, notes)
	d, _ := args.Get(0).(*models.Document)
	return d, args.Error(1)
}

func (m *DocumentRepositoryMock) CreateBankDetails(ctx context.Context, b models.BankDetails) (string, error) {
	args := m.Called(ctx, b)
	return args.String(0), args.Error(1)
}

func (m *DocumentRepositoryMock) ListBankDetailsByUser(ctx context.Context, userUID string) ([]*models.BankDetails, error) {
	args := m.Called(ctx, userUID)
	list, _ := args.Get(0).([]*models.BankDetails)
	return list, args.Error(1)
}

func (m *DocumentRepositoryMock) UpdateBankDetails(ctx context.Context, id, ownerUID string, b models.BankDetails) (*models.BankDetails, error) {
	args := m.Called(ctx, id, ownerUID, b)
	d, _ := args.Get(0).(*models.BankDetails)
	return d, args.Error(1)
}

func (m *DocumentRepositoryMock) DeleteBankDetails(ctx context.Context, id, ownerUID string) error {
	args := m.Called(ctx, id, ownerUID)
	return args.Error(0)
}

type KYCRepositoryMock struct {
	mock.Mock
}

func (m *KYCRepositoryMock) SetKYCStatus(ctx context.Context, userUID, status string) error {
	args := m.Called(ctx, userUID, status)
	return args.Error(0)
}

func TestDocumentService_Upload(t *testing.T) {
	t.Run("rejects broken base64", func(t *testing.T) {
		documents := new(DocumentRepositoryMock)
		svc := NewDocumentService(documents, new(KYCRepositoryMock))

		_, err := svc.Upload(context.Background(), "uid-1", models.Document{FileData: "%%%not-base64%%%"})
		assert.ErrorIs(t, err, ErrBadFileData)
		documents.AssertNotCalled(t, "CreateDocument", mock.Anything, mock.Anything)
	})

	t.Run("stores document and strips file data from response", func(t *testing.T) {
		documents := new(DocumentRepositoryMock)
		svc := NewDocumentService(documents, new(KYCRepositoryMock))

		payload := base64.StdEncoding.EncodeToString([]byte("passport scan"))
		documents.On("CreateDocument", mock.Anything, mock.MatchedBy(func(d models.Document) bool {
			return d.UserUID == "uid-1" && d.Status == models.DocumentPending
		})).Return("doc-1", nil).Once()
		documents.On("GetDocument", mock.Anything, "doc-1", "uid-1").
			Return(&models.Document{ID: "doc-1", UserUID: "uid-1", FileData: payload}, nil).Once()

		created, err := svc.Upload(context.Background(), "uid-1", models.Document{FileData: payload})
		require.NoError(t, err)
		assert.Empty(t, created.FileData)
		documents.AssertExpectations(t)
	})
}

func TestDocumentService_Review(t *testing.T) {
	t.Run("unknown status is rejected", func(t *testing.T) {
		documents := new(DocumentRepositoryMock)
		svc := NewDocumentService(documents, new(KYCRepositoryMock))

		_, err := svc.Review(context.Background(), "doc-1", "maybe", "")
		assert.ErrorIs(t, err, ErrKYCIncomplete)
		documents.AssertNotCalled(t, "ReviewDocument", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("approval updates owner kyc status", func(t *testing.T) {
		documents := new(DocumentRepositoryMock)
		users := new(KYCRepositoryMock)
		svc := NewDocumentService(documents, users)

		documents.On("ReviewDocument", mock.Anything, "doc-1", models.DocumentApproved, "ok").
			Return(&models.Document{ID: "doc-1", UserUID: "uid-1", Status: models.DocumentApproved}, nil).Once()
		users.On("SetKYCStatus", mock.Anything, "uid-1", models.KYCApproved).Return(nil).Once()

		d, err := svc.Review(context.Background(), "doc-1", models.DocumentApproved, "ok")
		require.NoError(t, err)
		assert.Equal(t, models.DocumentApproved, d.Status)
		users.AssertExpectations(t)
	})

	t.Run("rejection marks owner kyc rejected", func(t *testing.T) {
		documents := new(DocumentRepositoryMock)
		users := new(KYCRepositoryMock)
		svc := NewDocumentService(documents, users)

		documents.On("ReviewDocument", mock.Anything, "doc-2", models.DocumentRejected, "blurry").
			Return(&models.Document{ID: "doc-2", UserUID: "uid-2", Status: models.DocumentRejected}, nil).Once()
		users.On("SetKYCStatus", mock.Anything, "uid-2", models.KYCRejected).Return(nil).Once()

		_, err := svc.Review(context.Background(), "doc-2", models.DocumentRejected, "blurry")
		require.NoError(t, err)
		users.AssertExpectations(t)
	})
}

func TestDocumentService_BankDetails(t *testing.T) {
	t.Run("update keeps ownership filter", func(t *testing.T) {
		documents := new(DocumentRepositoryMock)
		svc := NewDocumentService(documents, new(KYCRepositoryMock))

		details := models.BankDetails{BankName: "Deutsche Bank", IBAN: "DE00"}
		documents.On("UpdateBankDetails", mock.Anything, "bd-1", "uid-1", details).
			Return(&models.BankDetails{ID: "bd-1", UserUID: "uid-1", BankName: "Deutsche Bank"}, nil).Once()

		updated, err := svc.UpdateBankDetails(context.Background(), "uid-1", "bd-1", details)
		require.NoError(t, err)
		assert.Equal(t, "bd-1", updated.ID)
		documents.AssertExpectations(t)
	})

	t.Run("delete of foreign details reports not found", func(t *testing.T) {
		documents := new(DocumentRepositoryMock)
		svc := NewDocumentService(documents, new(KYCRepositoryMock))

		documents.On("DeleteBankDetails", mock.Anything, "bd-9", "uid-1").
			Return(repository.ErrNotFound).Once()

		err := svc.DeleteBankDetails(context.Background(), "uid-1", "bd-9")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
