package models

import "time"

// Типы событий жизненного цикла пользователя.
const (
	EventUsuarioCreated = "usuario.created"
	EventUsuarioUpdated = "usuario.updated"
	EventUsuarioDeleted = "usuario.deleted"
)

// UsuarioEvent публикуется в брокер после изменения пользователя.
type UsuarioEvent struct {
	Type       string    `json:"type"`
	UsuarioID  int       `json:"usuario_id"`
	Tecnico    bool      `json:"tecnico"`
	OccurredAt time.Time `json:"occurred_at"`
}
