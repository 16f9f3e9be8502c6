package service

import (
	"VaultKeeper/internal/common"
	"errors"
	"fmt"
)

var (
	// ErrLoginTaken логин уже занят.
	ErrLoginTaken = errors.New("login already taken")
	// ErrInvalidCredentials неверный логин, пароль или код. Что именно — не сообщаем.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", common.ErrAccessDenied)
)

// invalid оборачивает сообщение в ErrValidation.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, fmt.Sprintf(format, args...))
}
