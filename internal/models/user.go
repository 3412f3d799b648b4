// Package models содержит доменные модели бэк-офиса: пользователей,
// платежи, тикеты поддержки, KYC-документы и типы торгового шлюза MT5.
// Структуры используются в бизнес-логике и при работе с хранилищем.
package models

import "time"

// Роли пользователей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Статусы KYC-проверки пользователя.
const (
	KYCPending  = "pending"
	KYCApproved = "approved"
	KYCRejected = "rejected"
)

// User представляет зарегистрированного пользователя системы.
//
// PasswordHash никогда не логируется и не отдается наружу: в HTTP-ответы
// пользователь попадает только через UserResponse.
type User struct {
	UID          string    // Уникальный идентификатор пользователя
	Name         string    // Полное имя
	Email        string    // Электронная почта, уникальный ключ входа
	PasswordHash string    // bcrypt-хэш пароля
	Phone        string    // Телефон (опционально)
	Country      string    // Страна (опционально)
	City         string    // Город (опционально)
	Address      string    // Адрес (опционально)
	Balance      float64   // Баланс кошелька в USD
	Role         string    // Роль: user или admin
	KYCStatus    string    // Статус KYC: pending, approved, rejected
	IsActive     bool      // Деактивированный пользователь не проходит уровень 1
	MT5Logins    []int64   // Привязанные логины торговых счетов MT5
	CreatedAt    time.Time // Дата регистрации, неизменяемая
}

// IsAdmin сообщает, обладает ли пользователь административной ролью.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasMT5Login сообщает, привязан ли торговый счет к пользователю.
func (u *User) HasMT5Login(login int64) bool {
	for _, l := range u.MT5Logins {
		if l == login {
			return true
		}
	}
	return false
}

// UserResponse публичное представление пользователя без хэша пароля.
type UserResponse struct {
	UID       string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Country   string    `json:"country,omitempty"`
	City      string    `json:"city,omitempty"`
	Address   string    `json:"address,omitempty"`
	Balance   float64   `json:"balance"`
	Role      string    `json:"role"`
	KYCStatus string    `json:"kyc_status"`
	IsActive  bool      `json:"is_active"`
	MT5Logins []int64   `json:"mt5_accounts"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse конвертирует доменную модель в публичное представление.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		UID:       u.UID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Country:   u.Country,
		City:      u.City,
		Address:   u.Address,
		Balance:   u.Balance,
		Role:      u.Role,
		KYCStatus: u.KYCStatus,
		IsActive:  u.IsActive,
		MT5Logins: u.MT5Logins,
		CreatedAt: u.CreatedAt,
	}
}

// UserUpdate частичное обновление профиля: nil-поле не трогает колонку.
type UserUpdate struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Country *string `json:"country,omitempty"`
	City    *string `json:"city,omitempty"`
	Address *string `json:"address,omitempty"`
}
