// Package services содержит логику бизнес-уровня для регистрации и входа пользователей.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/owenwebDe/forex-crm-backend/internal/lib/jwt"
	"github.com/owenwebDe/forex-crm-backend/internal/lib/password"
	"github.com/owenwebDe/forex-crm-backend/internal/models"
	"github.com/owenwebDe/forex-crm-backend/internal/storage/repository"
)

// ErrInvalidCredentials — пара email/пароль не подходит. Текст намеренно
// не уточняет, что именно неверно.
var ErrInvalidCredentials = errors.New("incorrect email or password")

// ErrEmailTaken — пользователь с таким email уже зарегистрирован.
var ErrEmailTaken = repository.ErrEmailTaken

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его UID.
	RegisterUser(ctx context.Context, user models.User) (string, error)

	// GetUser возвращает пользователя по UID или ошибку, если не найден.
	GetUser(ctx context.Context, userUID string) (*models.User, error)

	// GetUserByEmail возвращает пользователя по email или ошибку, если не найден.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// RegisterRequest входные данные регистрации нового пользователя.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Country  string
	City     string
	Address  string
}

// AuthService отвечает за регистрацию и вход: хэширование пароля,
// проверку учетных данных и выпуск токена.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// Register создает нового пользователя с хэшированием пароля, дефолтной ролью
// user и активной учетной записью, после чего сразу выпускает токен.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (string, *models.User, error) {
	const op = "services.auth.Register"

	if _, err := s.users.GetUserByEmail(ctx, req.Email); err == nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashed,
		Phone:        req.Phone,
		Country:      req.Country,
		City:         req.City,
		Address:      req.Address,
		Role:         models.RoleUser, // дефолтная роль при регистрации
		KYCStatus:    models.KYCPending,
		IsActive:     true,
	}
	uid, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.users.GetUser(ctx, uid)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(created.UID, created.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, created, nil
}

// Login проверяет пароль пользователя и выпускает токен.
//
// Деактивация учетной записи здесь не проверяется: пароль сверяется в любом
// случае, а доступ неактивного пользователя режется на уровне 1 при
// разрешении токена.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		// Неизвестный email дает тот же ответ, что и неверный пароль.
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.jwtMaker.GenerateToken(user.UID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}
