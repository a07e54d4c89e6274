package models

import "errors"

// Ошибки предметной области. Хранилище и сервисы оборачивают их через %w,
// HTTP‑слой сопоставляет их со статусами через errors.Is.
var (
	// ErrValidation — отсутствующие или некорректные входные данные (400).
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized — неверные учётные данные или токен (401).
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden — операция над чужим ресурсом (403).
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound — ресурс не найден (404).
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken — email уже зарегистрирован (конфликт, отдаётся как 400).
	ErrEmailTaken = errors.New("email already registered")
)

// ErrInvalidCredentials — единое сообщение для любой неудачной попытки входа.
const ErrInvalidCredentials = "invalid login or password"
