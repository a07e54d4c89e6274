// Package services содержит бизнес-логику справочника пользователей и техников:
// регистрацию, чтение, частичное обновление, удаление и публикацию событий жизненного цикла.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/magabrotheeeer/tecnico-directory/internal/lib/password"
	"github.com/magabrotheeeer/tecnico-directory/internal/lib/sl"
	"github.com/magabrotheeeer/tecnico-directory/internal/models"
)

// UsuarioRepository определяет методы хранилища пользователей.
type UsuarioRepository interface {
	CreateUsuario(ctx context.Context, u models.Usuario) (*models.Usuario, error)
	GetUsuario(ctx context.Context, id int) (*models.Usuario, error)
	GetUsuarioByEmail(ctx context.Context, email string) (*models.Usuario, error)
	ListUsuarios(ctx context.Context) ([]*models.Usuario, error)
	ListTecnicos(ctx context.Context) ([]*models.Usuario, error)
	GetTecnico(ctx context.Context, id int) (*models.Usuario, error)
	UpdateUsuario(ctx context.Context, id int, patch models.UsuarioPatch) (*models.Usuario, error)
	UpdateBio(ctx context.Context, id int, bio string) (*models.Usuario, error)
	DeleteUsuario(ctx context.Context, id int) error
}

// EventPublisher публикует события жизненного цикла пользователя.
type EventPublisher interface {
	Publish(ctx context.Context, event models.UsuarioEvent) error
}

// NoopPublisher используется, когда брокер не настроен.
type NoopPublisher struct{}

// Publish ничего не делает.
func (NoopPublisher) Publish(context.Context, models.UsuarioEvent) error { return nil }

// UsuarioService реализует операции справочника.
type UsuarioService struct {
	repo      UsuarioRepository
	publisher EventPublisher
	log       *slog.Logger
	now       func() time.Time
}

// NewUsuarioService создает новый экземпляр UsuarioService. nil‑publisher заменяется на NoopPublisher.
func NewUsuarioService(repo UsuarioRepository, publisher EventPublisher, log *slog.Logger) *UsuarioService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &UsuarioService{
		repo:      repo,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Create регистрирует пользователя. В u.Senha передаётся пароль в открытом виде.
func (s *UsuarioService) Create(ctx context.Context, u models.Usuario) (*models.Usuario, error) {
	const op = "services.usuario.Create"

	u.Email = models.NormalizeEmail(u.Email)
	u.Nome = strings.TrimSpace(u.Nome)
	if err := validateNew(u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err := s.repo.GetUsuarioByEmail(ctx, u.Email)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%s: %w", op, models.ErrEmailTaken)
	case !errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := password.GetHash(u.Senha)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u.Senha = hash

	created, err := s.repo.CreateUsuario(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("created new usuario", slog.Int("id", created.ID), slog.Bool("tecnico", created.Tecnico))
	s.publish(ctx, models.EventUsuarioCreated, created)
	return created, nil
}

// Get возвращает пользователя по ID.
func (s *UsuarioService) Get(ctx context.Context, id int) (*models.Usuario, error) {
	const op = "services.usuario.Get"
	u, err := s.repo.GetUsuario(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// List возвращает всех пользователей.
func (s *UsuarioService) List(ctx context.Context) ([]*models.Usuario, error) {
	const op = "services.usuario.List"
	list, err := s.repo.ListUsuarios(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// ListTecnicos возвращает пользователей‑техников.
func (s *UsuarioService) ListTecnicos(ctx context.Context) ([]*models.Usuario, error) {
	const op = "services.usuario.ListTecnicos"
	list, err := s.repo.ListTecnicos(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// GetTecnico возвращает техника по ID; обычный пользователь даёт models.ErrNotFound.
func (s *UsuarioService) GetTecnico(ctx context.Context, id int) (*models.Usuario, error) {
	const op = "services.usuario.GetTecnico"
	u, err := s.repo.GetTecnico(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// Update применяет частичное обновление. Новый пароль хэшируется, email нормализуется.
func (s *UsuarioService) Update(ctx context.Context, id int, patch models.UsuarioPatch) (*models.Usuario, error) {
	const op = "services.usuario.Update"

	if err := validatePatch(&patch); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if patch.Senha != nil {
		hash, err := password.GetHash(*patch.Senha)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		patch.Senha = &hash
	}

	empty := patch.Empty()
	updated, err := s.repo.UpdateUsuario(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !empty {
		s.log.Info("updated usuario", slog.Int("id", id))
		s.publish(ctx, models.EventUsuarioUpdated, updated)
	}
	return updated, nil
}

// UpdateBio меняет только bio; содержимое не проверяется.
func (s *UsuarioService) UpdateBio(ctx context.Context, id int, bio string) (*models.Usuario, error) {
	const op = "services.usuario.UpdateBio"
	updated, err := s.repo.UpdateBio(ctx, id, bio)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("updated bio", slog.Int("id", id))
	s.publish(ctx, models.EventUsuarioUpdated, updated)
	return updated, nil
}

// Delete удаляет пользователя безвозвратно.
func (s *UsuarioService) Delete(ctx context.Context, id int) error {
	const op = "services.usuario.Delete"
	if err := s.repo.DeleteUsuario(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("deleted usuario", slog.Int("id", id))
	s.publish(ctx, models.EventUsuarioDeleted, &models.Usuario{ID: id})
	return nil
}

func (s *UsuarioService) publish(ctx context.Context, eventType string, u *models.Usuario) {
	event := models.UsuarioEvent{
		Type:       eventType,
		UsuarioID:  u.ID,
		Tecnico:    u.Tecnico,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish usuario event",
			slog.String("type", eventType), slog.Int("id", u.ID), sl.Err(err))
	}
}

func validateNew(u models.Usuario) error {
	switch {
	case u.Nome == "":
		return fmt.Errorf("%w: nome is required", models.ErrValidation)
	case u.Email == "":
		return fmt.Errorf("%w: email is required", models.ErrValidation)
	case strings.TrimSpace(u.Senha) == "":
		return fmt.Errorf("%w: senha is required", models.ErrValidation)
	case u.Idade <= 0 || u.Idade > models.MaxIdade:
		return fmt.Errorf("%w: idade must be between 1 and %d", models.ErrValidation, models.MaxIdade)
	case !u.Relacionamento.Valid():
		return fmt.Errorf("%w: relacionamento must be SOLTEIRO or CASADO", models.ErrValidation)
	case !digitsOnly(u.Zap):
		return fmt.Errorf("%w: zap must contain digits only", models.ErrValidation)
	}
	return nil
}

func validatePatch(p *models.UsuarioPatch) error {
	if p.Nome != nil {
		nome := strings.TrimSpace(*p.Nome)
		if nome == "" {
			return fmt.Errorf("%w: nome must not be empty", models.ErrValidation)
		}
		p.Nome = &nome
	}
	if p.Email != nil {
		email := models.NormalizeEmail(*p.Email)
		if email == "" {
			return fmt.Errorf("%w: email must not be empty", models.ErrValidation)
		}
		p.Email = &email
	}
	if p.Senha != nil && strings.TrimSpace(*p.Senha) == "" {
		return fmt.Errorf("%w: senha must not be empty", models.ErrValidation)
	}
	if p.Idade != nil && (*p.Idade <= 0 || *p.Idade > models.MaxIdade) {
		return fmt.Errorf("%w: idade must be between 1 and %d", models.ErrValidation, models.MaxIdade)
	}
	if p.Relacionamento != nil && !p.Relacionamento.Valid() {
		return fmt.Errorf("%w: relacionamento must be SOLTEIRO or CASADO", models.ErrValidation)
	}
	if p.Zap != nil && !digitsOnly(*p.Zap) {
		return fmt.Errorf("%w: zap must contain digits only", models.ErrValidation)
	}
	return nil
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
