// Package services содержит бизнес-логику работы с профилем пользователя.
package services

import (
	"context"
	"fmt"

	"github.com/owenwebDe/forex-crm-backend/internal/models"
)

// UserRepository контракт хранилища для операций с профилем.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, userUID string, upd models.UserUpdate) (*models.User, error)
}

// UserService операции над собственным профилем пользователя.
type UserService struct {
	users UserRepository
}

// NewUserService создает новый UserService.
func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users}
}

// UpdateProfile применяет частичное обновление профиля и возвращает свежую копию.
func (s *UserService) UpdateProfile(ctx context.Context, userUID string, upd models.UserUpdate) (*models.User, error) {
	const op = "services.user.UpdateProfile"
	user, err := s.users.UpdateUserProfile(ctx, userUID, upd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}
