// Package login реализует HTTP-обработчик входа пользователя справочника.
//
// Обработчик декодирует email и senha, делегирует проверку сервису аутентификации
// и возвращает токен сессии, ID пользователя и признак техника.
// Любая неудачная попытка входа даёт одно и то же сообщение об ошибке.
package login

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tecnico-directory/internal/http/response"
	"github.com/magabrotheeeer/tecnico-directory/internal/lib/sl"
	"github.com/magabrotheeeer/tecnico-directory/internal/models"
)

// SuccessMessage — текст поля msg при успешном входе.
const SuccessMessage = "Logado com sucesso."

// Request — структура входных данных для авторизации.
type Request struct {
	Email string `json:"email" example:"ana@test.com"`
	Senha string `json:"senha" example:"secret123"`
}

// Response — тело успешного ответа.
type Response struct {
	Msg     string `json:"msg" example:"Logado com sucesso."`
	Token   string `json:"token"`
	ID      int    `json:"id" example:"1"`
	Tecnico bool   `json:"tecnico"`
}

// Handler обрабатывает HTTP-запросы для авторизации.
type Handler struct {
	log     *slog.Logger // Логгер для записи операций и ошибок
	service Service      // Сервис аутентификации
}

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Авторизация пользователя
// @Description Аутентифицирует пользователя по email и паролю. Возвращает JWT на 1 час.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Success 200 {object} Response "Успешная авторизация"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 429 {object} response.ErrorResponse "Слишком много попыток"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ErrorWithDetails(r, "invalid request body", err))
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Senha == "" {
		log.Info("login with missing credentials")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(models.ErrInvalidCredentials))
		return
	}

	res, err := h.service.Login(r.Context(), req.Email, req.Senha)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrValidation):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(models.ErrInvalidCredentials))
		case errors.Is(err, models.ErrUnauthorized):
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error(models.ErrInvalidCredentials))
		default:
			log.Error("login failed", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ErrorWithDetails(r, "internal error", err))
		}
		return
	}

	log.Info("login success", slog.Int("usuario_id", res.UserID))
	render.JSON(w, r, Response{
		Msg:     SuccessMessage,
		Token:   res.Token,
		ID:      res.UserID,
		Tecnico: res.Tecnico,
	})
}
