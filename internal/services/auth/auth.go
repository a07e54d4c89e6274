// Package services содержит логику аутентификации пользователей справочника:
// проверку пароля и выпуск токена сессии.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/magabrotheeeer/tecnico-directory/internal/lib/jwt"
	"github.com/magabrotheeeer/tecnico-directory/internal/lib/password"
	"github.com/magabrotheeeer/tecnico-directory/internal/lib/sl"
	"github.com/magabrotheeeer/tecnico-directory/internal/models"
)

// Исходы попытки входа (значения метки outcome).
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidRequest     = "invalid_request"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeError              = "error"
)

// UserRepository описывает контракт поиска пользователя для входа.
type UserRepository interface {
	// GetUsuarioByEmail возвращает пользователя по email или ошибку с models.ErrNotFound.
	GetUsuarioByEmail(ctx context.Context, email string) (*models.Usuario, error)
}

// NewLoginCounter регистрирует счётчик directory_login_attempts_total в reg.
func NewLoginCounter(reg prometheus.Registerer) *prometheus.CounterVec {
	return promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "directory_login_attempts_total",
		Help: "Login attempts by outcome.",
	}, []string{"outcome"})
}

// AuthService отвечает за вход по email и паролю.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	log      *slog.Logger
	attempts *prometheus.CounterVec
}

// NewAuthService создает новый экземпляр AuthService. attempts может быть nil.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, log *slog.Logger, attempts *prometheus.CounterVec) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		log:      log,
		attempts: attempts,
	}
}

// Login проверяет пару email/пароль и выпускает токен.
// Неизвестный email и неверный пароль неразличимы для вызывающего: оба дают models.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*models.LoginResult, error) {
	const op = "services.auth.Login"

	email = models.NormalizeEmail(email)
	log := s.log.With(slog.String("op", op), sl.Email(email))

	if email == "" || strings.TrimSpace(rawPassword) == "" {
		s.record(log, OutcomeInvalidRequest)
		return nil, fmt.Errorf("%s: %w", op, models.ErrValidation)
	}

	user, err := s.users.GetUsuarioByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.record(log, OutcomeInvalidCredentials)
			return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
		}
		log.Error("failed to load user", sl.Err(err))
		s.record(log, OutcomeError)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := password.CompareHash(user.Senha, rawPassword); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			log.Error("failed to compare password hash", sl.Err(err))
		}
		s.record(log, OutcomeInvalidCredentials)
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Tecnico)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))
		s.record(log, OutcomeError)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.record(log.With(slog.Int("usuario_id", user.ID)), OutcomeSuccess)
	return &models.LoginResult{
		Token:   token,
		UserID:  user.ID,
		Tecnico: user.Tecnico,
	}, nil
}

func (s *AuthService) record(log *slog.Logger, outcome string) {
	log.Info("login attempt", slog.String("outcome", outcome))
	if s.attempts != nil {
		s.attempts.WithLabelValues(outcome).Inc()
	}
}
