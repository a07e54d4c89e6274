// Package models содержит доменную модель пользователя справочника (Usuario),
// частичное обновление профиля и результат аутентификации.
// Структуры используются в бизнес‑логике, хранилище и HTTP‑клиенте.
package models

import (
	"strings"
	"time"
)

// MaxIdade — верхняя граница возраста.
const MaxIdade = 150

// Relacionamento — семейное положение пользователя.
type Relacionamento string

const (
	// Solteiro — не состоит в браке.
	Solteiro Relacionamento = "SOLTEIRO"
	// Casado — состоит в браке.
	Casado Relacionamento = "CASADO"
)

// Valid сообщает, является ли значение допустимым элементом перечисления.
func (r Relacionamento) Valid() bool {
	return r == Solteiro || r == Casado
}

// Usuario представляет зарегистрированного пользователя справочника.
// Хэш пароля никогда не сериализуется в JSON.
type Usuario struct {
	ID             int            `json:"id"`
	Nome           string         `json:"nome"`
	Email          string         `json:"email"`
	Senha          string         `json:"-"` // bcrypt‑хэш пароля
	Avatar         string         `json:"avatar"`
	Bio            string         `json:"bio"`
	Zap            string         `json:"zap"`
	Tecnico        bool           `json:"tecnico"`
	Idade          int            `json:"idade"`
	Relacionamento Relacionamento `json:"relacionamento"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// UsuarioPatch описывает частичное обновление пользователя:
// записываются только поля, отличные от nil.
type UsuarioPatch struct {
	Nome           *string
	Email          *string
	Senha          *string
	Avatar         *string
	Bio            *string
	Zap            *string
	Tecnico        *bool
	Idade          *int
	Relacionamento *Relacionamento
}

// Empty сообщает, что в патче нет ни одного поля.
func (p UsuarioPatch) Empty() bool {
	return p.Nome == nil && p.Email == nil && p.Senha == nil && p.Avatar == nil &&
		p.Bio == nil && p.Zap == nil && p.Tecnico == nil && p.Idade == nil &&
		p.Relacionamento == nil
}

// LoginResult — результат успешной аутентификации.
type LoginResult struct {
	Token   string
	UserID  int
	Tecnico bool
}

// NormalizeEmail приводит email к каноническому виду: без пробелов по краям, в нижнем регистре.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
