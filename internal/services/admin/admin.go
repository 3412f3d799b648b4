// Package services содержит бизнес-логику админской панели:
// сводная статистика, управление пользователями и платежами, аналитика.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/owenwebDe/forex-crm-backend/internal/models"
)

// Ошибки бизнес-уровня админских операций.
var (
	ErrBadKYCStatus     = errors.New("kyc status must be pending, approved or rejected")
	ErrBadPaymentStatus = errors.New("payment status must be pending, completed or failed")
)

// AdminRepository контракт хранилища для админских операций.
type AdminRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	SetKYCStatus(ctx context.Context, userUID, status string) error
	SetUserActive(ctx context.Context, userUID string, active bool) error
	SetUserBalance(ctx context.Context, userUID string, balance float64) error
	CountUsers(ctx context.Context) (total, active, kycPending, kycApproved int, err error)
	MonthlyRegistrations(ctx context.Context, since time.Time) ([]models.MonthlyCount, error)

	GetPayment(ctx context.Context, id, ownerUID string) (*models.Payment, error)
	ListAllPayments(ctx context.Context, limit int) ([]*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id, status string) error
	SumCompletedPayments(ctx context.Context) (deposits, withdrawals float64, err error)
	MonthlyPaymentTotals(ctx context.Context, since time.Time) ([]models.MonthlyAmount, error)

	CountTickets(ctx context.Context) (open, closed int, err error)
	CountDocuments(ctx context.Context) (pending, approved int, err error)
}

// DepositCompleter завершает подтвержденный депозит по его reference.
// Реализуется платежным сервисом, чтобы подтверждение card/bank_transfer
// из админки шло тем же путем, что и вебхук Stripe.
type DepositCompleter interface {
	CompleteDeposit(ctx context.Context, reference string) error
}

// AdminService операции, доступные только администраторам.
type AdminService struct {
	repo     AdminRepository
	deposits DepositCompleter
}

// NewAdminService создает новый AdminService.
func NewAdminService(repo AdminRepository, deposits DepositCompleter) *AdminService {
	return &AdminService{
		repo:     repo,
		deposits: deposits,
	}
}

// Dashboard собирает сводные счетчики по всем разделам.
func (s *AdminService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	const op = "services.admin.Dashboard"

	stats := &models.DashboardStats{}

	total, active, kycPending, kycApproved, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	stats.Users.Total = total
	stats.Users.Active = active
	stats.Users.KYCPending = kycPending
	stats.Users.KYCApproved = kycApproved

	deposits, withdrawals, err := s.repo.SumCompletedPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	stats.Payments.TotalDeposits = deposits
	stats.Payments.TotalWithdrawals = withdrawals
	stats.Payments.NetFlow = deposits - withdrawals

	open, closed, err := s.repo.CountTickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	stats.Tickets.Open = open
	stats.Tickets.Closed = closed
	stats.Tickets.Total = open + closed

	docPending, docApproved, err := s.repo.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	stats.Documents.Pending = docPending
	stats.Documents.Approved = docApproved
	stats.Documents.Total = docPending + docApproved

	return stats, nil
}

// ListUsers возвращает страницу пользователей.
func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "services.admin.ListUsers"

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	list, err := s.repo.ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// GetUser возвращает пользователя по UID.
func (s *AdminService) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "services.admin.GetUser"
	u, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SetKYC вручную выставляет KYC-статус пользователя.
func (s *AdminService) SetKYC(ctx context.Context, userUID, status string) (*models.User, error) {
	const op = "services.admin.SetKYC"

	switch status {
	case models.KYCPending, models.KYCApproved, models.KYCRejected:
	default:
		return nil, fmt.Errorf("%s: %w", op, ErrBadKYCStatus)
	}
	if err := s.repo.SetKYCStatus(ctx, userUID, status); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SetActive включает или выключает учетную запись. Деактивированный
// пользователь перестает проходить разрешение токена при следующем запросе.
func (s *AdminService) SetActive(ctx context.Context, userUID string, active bool) (*models.User, error) {
	const op = "services.admin.SetActive"

	if err := s.repo.SetUserActive(ctx, userUID, active); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SetBalance выставляет баланс кошелька в абсолютное значение.
func (s *AdminService) SetBalance(ctx context.Context, userUID string, balance float64) (*models.User, error) {
	const op = "services.admin.SetBalance"

	if err := s.repo.SetUserBalance(ctx, userUID, balance); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ListPayments возвращает платежи всех пользователей.
func (s *AdminService) ListPayments(ctx context.Context, limit int) ([]*models.Payment, error) {
	const op = "services.admin.ListPayments"

	if limit <= 0 || limit > 500 {
		limit = 100
	}
	list, err := s.repo.ListAllPayments(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// SetPaymentStatus вручную меняет статус платежа. Подтверждение депозита
// идет через платежный сервис и зачисляет средства на кошелек.
func (s *AdminService) SetPaymentStatus(ctx context.Context, paymentID, status string) (*models.Payment, error) {
	const op = "services.admin.SetPaymentStatus"

	switch status {
	case models.PaymentPending, models.PaymentCompleted, models.PaymentFailed:
	default:
		return nil, fmt.Errorf("%s: %w", op, ErrBadPaymentStatus)
	}

	payment, err := s.repo.GetPayment(ctx, paymentID, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if status == models.PaymentCompleted && payment.IsDeposit() && payment.Reference != "" {
		if err := s.deposits.CompleteDeposit(ctx, payment.Reference); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else if err := s.repo.UpdatePaymentStatus(ctx, paymentID, status); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.repo.GetPayment(ctx, paymentID, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// Analytics месячная аналитика по регистрациям и платежам.
type Analytics struct {
	Registrations []models.MonthlyCount  `json:"registrations"`
	Payments      []models.MonthlyAmount `json:"payments"`
}

// MonthlyAnalytics возвращает помесячную аналитику за последние months месяцев.
func (s *AdminService) MonthlyAnalytics(ctx context.Context, months int) (*Analytics, error) {
	const op = "services.admin.MonthlyAnalytics"

	if months <= 0 || months > 36 {
		months = 12
	}
	since := time.Now().AddDate(0, -months, 0)

	regs, err := s.repo.MonthlyRegistrations(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	payments, err := s.repo.MonthlyPaymentTotals(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Analytics{Registrations: regs, Payments: payments}, nil
}
