package auth

import "errors"

// Виды отказа в доступе. Middleware транспортного слоя — единственное место,
// где эти ошибки превращаются в HTTP-статусы.
var (
	// ErrUnauthenticated — токен отсутствует, испорчен, просрочен либо его
	// subject не найден в хранилище. Причины намеренно не различаются,
	// чтобы не раскрывать существование учетных записей.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInactiveAccount — токен валиден, но учетная запись деактивирована.
	ErrInactiveAccount = errors.New("inactive account")

	// ErrForbidden — личность установлена и активна, но роли недостаточно.
	ErrForbidden = errors.New("forbidden")
)
