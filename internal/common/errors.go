// Package common содержит ошибки-маркеры, общие для всех слоёв сервера.
// Сравнивать через errors.Is.
package common

import "errors"

var (
	// ErrValidation некорректный ввод при создании/изменении.
	ErrValidation = errors.New("validation error")
	// ErrAccessDenied у вызывающего нет прав или неверный секрет.
	ErrAccessDenied = errors.New("access denied")
	// ErrShareExpired доступ исчерпан по времени или по счётчику обращений.
	ErrShareExpired = errors.New("share expired")
	// ErrRateLimited превышен бюджет попыток проверки секрета.
	ErrRateLimited = errors.New("rate limited")
	// ErrConfiguration не задана обязательная настройка.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound запись не найдена.
	ErrNotFound = errors.New("not found")
)
