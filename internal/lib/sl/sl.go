// Package sl содержит вспомогательные атрибуты для логгера slog.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
// Для nil‑ошибки пишется пустая строка, чтобы логирование не паниковало.
//
//	log.Error("failed to create usuario", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Email возвращает атрибут с адресом, уже приведённым к каноническому виду вызывающим кодом.
func Email(email string) slog.Attr {
	return slog.String("email", email)
}
