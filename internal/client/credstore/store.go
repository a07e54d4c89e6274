// Package credstore хранит токен и снимок профиля клиента между запусками.
//
// Доступны два бэкенда: зашифрованный файл (FileStore) и redis (RedisStore).
package credstore

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/tecnico-directory/internal/config"
)

// Ключи, под которыми сессия сохраняет своё состояние.
const (
	KeyToken   = "token"
	KeyUsuario = "usuario"
)

// Store — асинхронное key-value хранилище строк.
// Get возвращает ok=false для отсутствующего ключа.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Closer освобождает ресурсы бэкенда.
type Closer interface {
	Close() error
}

// New создаёт хранилище по настройкам клиента.
func New(ctx context.Context, cfg config.CredStore) (Store, error) {
	const op = "credstore.New"
	switch cfg.Backend {
	case config.CredStoreFile:
		return NewFileStore(cfg.Path, cfg.Secret)
	case config.CredStoreRedis:
		s, err := NewRedisStore(ctx, cfg.RedisConnection, cfg.Namespace)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%s: unknown backend %q", op, cfg.Backend)
	}
}
