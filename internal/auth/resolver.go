// Package auth реализует разрешение предъявленного токена в учетную запись.
//
// Resolver проверяет токен через jwt.Maker, затем загружает пользователя
// по subject из хранилища. Любой сбой на этом пути схлопывается в
// ErrUnauthenticated; проверка активности дает ErrInactiveAccount.
// Resolver не хранит состояния между вызовами и ничего не мутирует.
package auth

import (
	"context"
	"fmt"

	"github.com/owenwebDe/forex-crm-backend/internal/lib/jwt"
	"github.com/owenwebDe/forex-crm-backend/internal/models"
)

// UserProvider описывает контракт чтения пользователей из хранилища.
type UserProvider interface {
	// GetUser возвращает пользователя по его UID или ошибку, если не найден.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Resolver превращает строку токена в загруженную учетную запись.
type Resolver struct {
	users UserProvider
	maker jwt.Maker
}

// NewResolver создает новый Resolver поверх хранилища и кодека токенов.
func NewResolver(users UserProvider, maker jwt.Maker) *Resolver {
	return &Resolver{
		users: users,
		maker: maker,
	}
}

// Resolve проверяет токен и загружает пользователя по subject.
//
// Возвращает ErrUnauthenticated при любой проблеме: битая подпись,
// истекший срок, пустой subject или отсутствующая в базе учетная запись.
// Учетная запись перечитывается из хранилища на каждый вызов — состояние
// между запросами не кэшируется, чтобы деактивация действовала немедленно.
func (r *Resolver) Resolve(ctx context.Context, tokenStr string) (*models.User, error) {
	const op = "auth.Resolve"

	claims, err := r.maker.ParseToken(tokenStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	user, err := r.users.GetUser(ctx, claims.Subject)
	if err != nil {
		// Отсутствие учетной записи неотличимо для вызывающего от битого токена.
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}
	return user, nil
}

// ResolveActive работает как Resolve и дополнительно требует активную
// учетную запись, иначе возвращает ErrInactiveAccount.
func (r *Resolver) ResolveActive(ctx context.Context, tokenStr string) (*models.User, error) {
	const op = "auth.ResolveActive"

	user, err := r.Resolve(ctx, tokenStr)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%s: %w", op, ErrInactiveAccount)
	}
	return user, nil
}
