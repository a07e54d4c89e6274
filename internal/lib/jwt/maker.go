// Package jwt реализует выпуск и разбор bearer‑токенов сессии.
//
// Токен подписывается HS256 и несёт идентификатор пользователя и признак техника
// в claim‑полях usuario_logado_id и usuario_logado_tecnico.
package jwt

import (
	"time"
)

// DefaultTTL — срок жизни токена по умолчанию.
const DefaultTTL = time.Hour

// Maker описывает интерфейс для генерации и парсинга токенов.
type Maker interface {
	GenerateToken(usuarioID int, tecnico bool) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует Maker с использованием секретного ключа и времени жизни токена.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewJWTMaker создаёт MakerImpl. Нулевой ttl заменяется на DefaultTTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
